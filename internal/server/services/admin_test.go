package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/docdrive/internal/common"
	"github.com/dmitrijs2005/docdrive/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countProfiles(t *testing.T, e *testEnv) int {
	t.Helper()
	list, err := e.rm.Admins(nil).List(context.Background(), 0, 0)
	require.NoError(t, err)
	return len(list)
}

func TestChangeRole_PromoteDemotePromoteKeepsOneProfile(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	root := e.user(t, "root@example.com", models.RoleSuperadmin)
	u := e.user(t, "maria.lopez@example.com", models.RoleUser)

	for _, role := range []models.Role{models.RoleAdmin, models.RoleUser, models.RoleAdmin, models.RoleSuperadmin, models.RoleAdmin} {
		got, err := e.admins.ChangeRole(ctx, root, u.ID, role)
		require.NoError(t, err)
		assert.Equal(t, role, got.Role)
	}

	assert.Equal(t, 1, countProfiles(t, e))
	p, err := e.rm.Admins(nil).GetByUserID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maria.lopez", p.Name)
}

func TestChangeRole_SelfAlwaysRejected(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	root := e.user(t, "root@example.com", models.RoleSuperadmin)

	for _, role := range []models.Role{models.RoleUser, models.RoleAdmin, models.RoleSuperadmin} {
		_, err := e.admins.ChangeRole(ctx, root, root.ID, role)
		assert.ErrorIs(t, err, common.ErrSelfRoleChange, role)
	}
	got, err := e.rm.Users(nil).GetByID(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperadmin, got.Role)
}

func TestChangeRole_Rules(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	root := e.user(t, "root@example.com", models.RoleSuperadmin)
	anna := e.user(t, "anna@example.com", models.RoleAdmin)
	u := e.user(t, "u@example.com", models.RoleUser)

	_, err := e.admins.ChangeRole(ctx, anna, u.ID, models.RoleAdmin)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = e.admins.ChangeRole(ctx, root, "missing", models.RoleAdmin)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = e.admins.ChangeRole(ctx, root, u.ID, models.Role("owner"))
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestCreateAdmin(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	root := e.user(t, "root@example.com", models.RoleSuperadmin)
	anna := e.user(t, "anna@example.com", models.RoleAdmin)

	_, err := e.admins.CreateAdmin(ctx, anna, NewAdmin{Email: "x@example.com", Password: testPassword})
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = e.admins.CreateAdmin(ctx, root, NewAdmin{Email: "new@example.com"})
	assert.ErrorIs(t, err, common.ErrorValidation, "new accounts need a password")

	p, err := e.admins.CreateAdmin(ctx, root, NewAdmin{Email: "new@example.com", Name: "Notaría Sur", Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, "Notaría Sur", p.Name)
	created, err := e.rm.Users(nil).GetByID(ctx, p.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, created.Role)

	_, err = e.admins.CreateAdmin(ctx, root, NewAdmin{Email: "new@example.com"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	plain := e.user(t, "plain@example.com", models.RoleUser)
	p2, err := e.admins.CreateAdmin(ctx, root, NewAdmin{Email: "plain@example.com"})
	require.NoError(t, err)
	assert.Equal(t, plain.ID, p2.UserID)
	assert.Equal(t, "Plain", p2.Name)
}

func TestCreateUser(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	root := e.user(t, "root@example.com", models.RoleSuperadmin)
	anna := e.user(t, "anna@example.com", models.RoleAdmin)
	plain := e.user(t, "plain@example.com", models.RoleUser)

	_, err := e.admins.CreateUser(ctx, plain, "x@example.com", testPassword, "")
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = e.admins.CreateUser(ctx, anna, "x@example.com", testPassword, models.RoleAdmin)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	u, err := e.admins.CreateUser(ctx, anna, "x@example.com", testPassword, "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role)

	_, err = e.admins.CreateUser(ctx, anna, "x@example.com", testPassword, "")
	assert.ErrorIs(t, err, common.ErrorValidation)

	staff, err := e.admins.CreateUser(ctx, root, "staff@example.com", testPassword, models.RoleAdmin)
	require.NoError(t, err)
	_, err = e.rm.Admins(nil).GetByUserID(ctx, staff.ID)
	assert.NoError(t, err)
}

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	root := e.user(t, "root@example.com", models.RoleSuperadmin)
	anna, p := e.admin(t, "anna@example.com")
	plain := e.user(t, "plain@example.com", models.RoleUser)

	got, err := e.admins.Profile(ctx, anna)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = e.admins.Profile(ctx, root)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = e.admins.Profile(ctx, plain)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = e.admins.ListProfiles(ctx, anna, 0, 10)
	assert.ErrorIs(t, err, common.ErrorForbidden)
	list, err := e.admins.ListProfiles(ctx, root, 0, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	updated, err := e.admins.UpdateProfile(ctx, root, p.ID, AdminUpdate{Name: ptr("Anna Office")})
	require.NoError(t, err)
	assert.Equal(t, "Anna Office", updated.Name)
	assert.Equal(t, p.DriveFolderID, updated.DriveFolderID)

	_, err = e.admins.UpdateProfile(ctx, root, "missing", AdminUpdate{})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	audit, err := e.admins.AuditUsers(ctx, root, 0, 0)
	require.NoError(t, err)
	assert.Len(t, audit, 3)

	assert.ErrorIs(t, e.admins.DeleteProfile(ctx, anna, p.ID), common.ErrorForbidden)
	require.NoError(t, e.admins.DeleteProfile(ctx, root, p.ID))
	assert.ErrorIs(t, e.admins.DeleteProfile(ctx, root, p.ID), common.ErrorNotFound)
}

func TestAssociate(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	root := e.user(t, "root@example.com", models.RoleSuperadmin)
	anna, annaProfile := e.admin(t, "anna@example.com")
	_, ottoProfile := e.admin(t, "otto@example.com")
	u := e.user(t, "u@example.com", models.RoleUser)

	require.NoError(t, e.admins.Associate(ctx, anna, u.ID, annaProfile.ID))
	require.NoError(t, e.admins.Associate(ctx, anna, u.ID, annaProfile.ID))
	assert.ErrorIs(t, e.admins.Associate(ctx, anna, u.ID, ottoProfile.ID), common.ErrorForbidden)
	assert.ErrorIs(t, e.admins.Associate(ctx, u, u.ID, annaProfile.ID), common.ErrorForbidden)
	assert.ErrorIs(t, e.admins.Associate(ctx, root, "missing", annaProfile.ID), common.ErrorNotFound)
	assert.ErrorIs(t, e.admins.Associate(ctx, root, u.ID, "missing"), common.ErrorNotFound)
	require.NoError(t, e.admins.Associate(ctx, root, u.ID, ottoProfile.ID))

	linked, err := e.users.MyAdmins(ctx, u)
	require.NoError(t, err)
	assert.Len(t, linked, 2)

	require.NoError(t, e.admins.Disassociate(ctx, anna, u.ID, annaProfile.ID))
	assert.ErrorIs(t, e.admins.Disassociate(ctx, anna, u.ID, annaProfile.ID), common.ErrorNotFound)
}

func TestBootstrapSuperadmin(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)

	_, _, err := e.admins.BootstrapSuperadmin(ctx, "root@example.com", "short")
	assert.ErrorIs(t, err, common.ErrorValidation)

	u, created, err := e.admins.BootstrapSuperadmin(ctx, "Root@Example.com", testPassword)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RoleSuperadmin, u.Role)
	assert.Equal(t, "root@example.com", u.Email)
	assert.Equal(t, 1, countProfiles(t, e))

	again, created, err := e.admins.BootstrapSuperadmin(ctx, "root@example.com", "another-password")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, 1, countProfiles(t, e))

	_, err = e.users.Login(ctx, "root@example.com", testPassword)
	assert.NoError(t, err)
}
