package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/docdrive/internal/common"
	"github.com/dmitrijs2005/docdrive/internal/dbx"
	"github.com/dmitrijs2005/docdrive/internal/logging"
	"github.com/dmitrijs2005/docdrive/internal/server/drive/memdrive"
	"github.com/dmitrijs2005/docdrive/internal/server/models"
	filesrepo "github.com/dmitrijs2005/docdrive/internal/server/repositories/files"
	"github.com/dmitrijs2005/docdrive/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpload_TargetResolution(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	anna, annaProfile := e.admin(t, "anna@example.com")
	_, ottoProfile := e.admin(t, "otto@example.com")
	u := e.user(t, "u@example.com", models.RoleUser)

	_, err := e.files.Upload(ctx, u, Upload{Filename: "a.txt", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrNoAdmin)

	e.associate(t, u, ottoProfile)
	e.associate(t, u, annaProfile)

	f := e.upload(t, u, "", "a.txt", "hello")
	assert.Equal(t, ottoProfile.ID, f.OwnerAdminID, "first associated admin")
	assert.Equal(t, u.ID, f.UploadedByUserID)
	assert.Equal(t, int64(5), f.FileSize)
	data, ok := e.store.Content(f.DriveFileID)
	require.True(t, ok)
	assert.Equal(t, "hello", string(data))

	f = e.upload(t, u, annaProfile.ID, "b.txt", "x")
	assert.Equal(t, annaProfile.ID, f.OwnerAdminID)

	stranger := e.user(t, "s@example.com", models.RoleUser)
	_, err = e.files.Upload(ctx, stranger, Upload{AdminID: annaProfile.ID, Filename: "c.txt", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = e.files.Upload(ctx, u, Upload{AdminID: "missing", Filename: "c.txt", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	own := e.upload(t, anna, "", "own.txt", "x")
	assert.Equal(t, annaProfile.ID, own.OwnerAdminID)
}

func TestUpload_Validation(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	anna, _ := e.admin(t, "anna@example.com")

	_, err := e.files.Upload(ctx, anna, Upload{Filename: "  ", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, common.ErrorValidation)

	f, err := e.files.Upload(ctx, anna, Upload{Filename: `C:\docs\scan.pdf`, Body: strings.NewReader("x")})
	require.NoError(t, err)
	assert.Equal(t, "scan.pdf", f.Filename)
	assert.Equal(t, `C:\docs\scan.pdf`, f.OriginalFilename)
	assert.Equal(t, defaultMimeType, f.MimeType)
}

func TestUpload_DriveNotConfigured(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	root := e.user(t, "root@example.com", models.RoleSuperadmin)
	p, err := e.admins.CreateAdmin(ctx, root, NewAdmin{Email: "bare@example.com", Password: testPassword})
	require.NoError(t, err)
	u := e.user(t, "u@example.com", models.RoleUser)
	e.associate(t, u, p)

	_, err = e.files.Upload(ctx, u, Upload{Filename: "a.txt", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, common.ErrDriveNotConfigured)
}

func TestUpload_RemoteFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	anna, _ := e.admin(t, "anna@example.com")
	e.store.FailOn(memdrive.OpCreate, errors.New("500 backend error"))

	_, err := e.files.Upload(ctx, anna, Upload{Filename: "a.txt", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, common.ErrRemoteProvider)

	files, err := e.files.List(ctx, anna, "", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, files)
}

type failingFilesRepo struct {
	filesrepo.Repository
}

func (failingFilesRepo) Create(context.Context, *models.File) (*models.File, error) {
	return nil, errBoom{}
}

type failingFilesManager struct {
	*repomanager.InMemoryRepositoryManager
}

func (failingFilesManager) Files(dbx.DBTX) filesrepo.Repository { return failingFilesRepo{} }

func TestUpload_RecordFailureRemovesOrphan(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	anna, _ := e.admin(t, "anna@example.com")

	rm := failingFilesManager{e.rm}
	ds := NewDriveService(e.db, rm, e.vault, e.store, time.Second, logging.Nop{})
	fs := NewFileService(e.db, rm, ds, logging.Nop{})

	_, err := fs.Upload(ctx, anna, Upload{Filename: "a.txt", Body: strings.NewReader("x")})
	assert.ErrorContains(t, err, "boom")
	assert.Zero(t, e.store.Len())
}

func TestListAndGet_UsersOnlySeeAssociatedAdmins(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	anna, annaProfile := e.admin(t, "anna@example.com")
	otto, ottoProfile := e.admin(t, "otto@example.com")
	alice := e.user(t, "alice@example.com", models.RoleUser)
	bob := e.user(t, "bob@example.com", models.RoleUser)
	e.associate(t, alice, annaProfile)
	e.associate(t, bob, ottoProfile)

	fa := e.upload(t, alice, "", "alice.txt", "a")
	fo := e.upload(t, otto, "", "otto.txt", "o")
	e.upload(t, anna, "", "anna.txt", "n")

	list, err := e.files.List(ctx, alice, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, f := range list {
		assert.Equal(t, annaProfile.ID, f.OwnerAdminID)
	}
	assert.Equal(t, "anna.txt", list[0].Filename, "newest first")

	_, err = e.files.List(ctx, alice, ottoProfile.ID, 0, 0)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = e.files.Get(ctx, alice, fo.ID)
	assert.ErrorIs(t, err, common.ErrorForbidden)
	_, err = e.files.Get(ctx, alice, "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	got, err := e.files.Get(ctx, alice, fa.ID)
	require.NoError(t, err)
	assert.Equal(t, fa.ID, got.ID)

	lonely := e.user(t, "lonely@example.com", models.RoleUser)
	list, err = e.files.List(ctx, lonely, "", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = e.files.List(ctx, anna, "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	list, err = e.files.List(ctx, anna, ottoProfile.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = e.files.List(ctx, anna, "", 1, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDownload(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	_, p := e.admin(t, "anna@example.com")
	alice := e.user(t, "alice@example.com", models.RoleUser)
	bob := e.user(t, "bob@example.com", models.RoleUser)
	e.associate(t, alice, p)
	f := e.upload(t, alice, "", "a.txt", "payload")

	file, rc, err := e.files.Download(ctx, alice, f.ID)
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "payload", string(b))
	assert.Equal(t, "a.txt", file.Filename)

	_, _, err = e.files.Download(ctx, bob, f.ID)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	e.store.FailOn(memdrive.OpGetMedia, errors.New("gone"))
	_, _, err = e.files.Download(ctx, alice, f.ID)
	assert.ErrorIs(t, err, common.ErrRemoteProvider)
}

// slowBody yields one chunk per read after waiting delay.
type slowBody struct {
	chunks []string
	delay  time.Duration
}

func (b *slowBody) Read(p []byte) (int, error) {
	if len(b.chunks) == 0 {
		return 0, io.EOF
	}
	time.Sleep(b.delay)
	n := copy(p, b.chunks[0])
	b.chunks = b.chunks[1:]
	return n, nil
}

func TestTransfer_SlowStreamsOutliveTimeout(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.drives.timeout = 100 * time.Millisecond
	anna, _ := e.admin(t, "anna@example.com")

	body := &slowBody{chunks: []string{"ab", "cd", "ef", "gh", "ij"}, delay: 60 * time.Millisecond}
	f, err := e.files.Upload(ctx, anna, Upload{Filename: "slow.txt", Body: body})
	require.NoError(t, err)
	assert.Equal(t, int64(10), f.FileSize)

	e.store.Pace(2, 60*time.Millisecond)
	_, rc, err := e.files.Download(ctx, anna, f.ID)
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "abcdefghij", string(b))
}

func TestTransfer_StalledStreamsHitDeadline(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.drives.timeout = 50 * time.Millisecond
	anna, _ := e.admin(t, "anna@example.com")
	f := e.upload(t, anna, "", "a.txt", "abc")
	before := e.store.Len()

	_, err := e.files.Upload(ctx, anna, Upload{
		Filename: "stalled.txt",
		Body:     &slowBody{chunks: []string{"a", "b"}, delay: 200 * time.Millisecond},
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, common.ErrRemoteProvider)
	assert.Equal(t, before, e.store.Len())

	e.store.Pace(1, time.Hour)
	_, rc, err := e.files.Download(ctx, anna, f.ID)
	require.NoError(t, err)
	defer rc.Close()
	_, err = io.ReadAll(rc)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDelete_RemoteFailureStillRemovesRecord(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	_, p := e.admin(t, "anna@example.com")
	alice := e.user(t, "alice@example.com", models.RoleUser)
	e.associate(t, alice, p)
	f := e.upload(t, alice, "", "a.txt", "x")

	e.store.FailOn(memdrive.OpDelete, errors.New("503 unavailable"))
	require.NoError(t, e.files.Delete(ctx, alice, f.ID))

	_, err := e.files.Get(ctx, alice, f.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.True(t, e.store.Has(f.DriveFileID))
}

func TestDelete_Permissions(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	owner, p := e.admin(t, "anna@example.com")
	alice := e.user(t, "alice@example.com", models.RoleUser)
	bob := e.user(t, "bob@example.com", models.RoleUser)
	e.associate(t, alice, p)
	e.associate(t, bob, p)
	f := e.upload(t, alice, "", "a.txt", "x")

	assert.ErrorIs(t, e.files.Delete(ctx, bob, f.ID), common.ErrorForbidden)
	assert.ErrorIs(t, e.files.Delete(ctx, bob, "missing"), common.ErrorNotFound)

	require.NoError(t, e.files.Delete(ctx, owner, f.ID))
	assert.False(t, e.store.Has(f.DriveFileID))
}
