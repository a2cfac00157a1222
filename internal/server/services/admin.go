package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/docdrive/internal/common"
	"github.com/dmitrijs2005/docdrive/internal/dbx"
	"github.com/dmitrijs2005/docdrive/internal/logging"
	"github.com/dmitrijs2005/docdrive/internal/server/access"
	"github.com/dmitrijs2005/docdrive/internal/server/models"
	"github.com/dmitrijs2005/docdrive/internal/server/repositories/repomanager"
)

// AdminUpdate holds optional profile changes; nil fields are left untouched.
type AdminUpdate struct {
	Name          *string
	DriveFolderID *string
}

// NewAdmin describes an admin account created by a superadmin. Password is
// only required when no user with Email exists yet.
type NewAdmin struct {
	Email    string
	Name     string
	Password string
}

// AdminService manages roles, admin profiles and user/admin associations.
type AdminService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewAdminService(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger) *AdminService {
	return &AdminService{db: db, repomanager: m, logger: l.With("module", "admin_service")}
}

// Profile returns the caller's own admin profile.
func (s *AdminService) Profile(ctx context.Context, caller *models.User) (*models.AdminProfile, error) {
	if !access.IsStaff(caller) {
		return nil, common.ErrorForbidden
	}
	p, err := s.repomanager.Admins(s.db).GetByUserID(ctx, caller.ID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("admin profile: %w", common.ErrorNotFound)
	}
	return p, err
}

func (s *AdminService) ListProfiles(ctx context.Context, caller *models.User, skip, limit int) ([]*models.AdminProfile, error) {
	if !access.IsSuperadmin(caller) {
		return nil, common.ErrorForbidden
	}
	skip, limit = normalizePage(skip, limit)
	return s.repomanager.Admins(s.db).List(ctx, skip, limit)
}

// CreateAdmin promotes an existing user, or creates a new one, and gives it
// an admin profile. A staff account that already has a profile yields
// common.ErrorAlreadyExists; a demoted account gets its old profile back.
func (s *AdminService) CreateAdmin(ctx context.Context, caller *models.User, in NewAdmin) (*models.AdminProfile, error) {
	if !access.IsSuperadmin(caller) {
		return nil, common.ErrorForbidden
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)

	profile, err := dbx.InTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) (*models.AdminProfile, error) {
		users := s.repomanager.Users(tx)
		user, err := users.GetByEmail(ctx, email)
		promoted := false
		switch {
		case errors.Is(err, common.ErrorNotFound):
			if err := validatePassword(in.Password); err != nil {
				return nil, err
			}
			hash, err := hashPassword(in.Password)
			if err != nil {
				return nil, err
			}
			user, err = users.Create(ctx, &models.User{Email: email, PasswordHash: hash, Role: models.RoleAdmin})
			if err != nil {
				return nil, fmt.Errorf("error creating user: %w", err)
			}
			promoted = true
		case err != nil:
			return nil, fmt.Errorf("error searching user: %w", err)
		case user.Role == models.RoleUser:
			if user, err = users.UpdateRole(ctx, user.ID, models.RoleAdmin); err != nil {
				return nil, fmt.Errorf("error promoting user: %w", err)
			}
			promoted = true
		}

		profile, created, err := ensureAdminProfile(ctx, s.repomanager, tx, user, name)
		if err != nil {
			return nil, err
		}
		if !created && !promoted {
			return nil, fmt.Errorf("admin with this email: %w", common.ErrorAlreadyExists)
		}
		return profile, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Admin created", "admin_id", profile.ID, "by", caller.ID)
	return profile, nil
}

func (s *AdminService) UpdateProfile(ctx context.Context, caller *models.User, id string, upd AdminUpdate) (*models.AdminProfile, error) {
	if !access.IsSuperadmin(caller) {
		return nil, common.ErrorForbidden
	}
	return dbx.InTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) (*models.AdminProfile, error) {
		repo := s.repomanager.Admins(tx)
		profile, err := repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if upd.Name != nil {
			profile.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.DriveFolderID != nil {
			profile.DriveFolderID = strings.TrimSpace(*upd.DriveFolderID)
		}
		return repo.Update(ctx, profile)
	})
}

// DeleteProfile removes an admin profile together with its files and
// associations. The user account keeps its role.
func (s *AdminService) DeleteProfile(ctx context.Context, caller *models.User, id string) error {
	if !access.IsSuperadmin(caller) {
		return common.ErrorForbidden
	}
	if err := s.repomanager.Admins(s.db).Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "Admin deleted", "admin_id", id, "by", caller.ID)
	return nil
}

// CreateUser lets staff create accounts. Staff roles require a superadmin
// caller and get an admin profile.
func (s *AdminService) CreateUser(ctx context.Context, caller *models.User, email, password string, role models.Role) (*models.User, error) {
	if !access.IsStaff(caller) {
		return nil, common.ErrorForbidden
	}
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, common.NewValidationError(fmt.Sprintf("unknown role %q", role))
	}
	if !access.CanCreateWithRole(caller, role) {
		return nil, common.ErrorForbidden
	}

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	return dbx.InTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		user, err := s.repomanager.Users(tx).Create(ctx, &models.User{Email: email, PasswordHash: hash, Role: role})
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.NewValidationError("user already exists")
		}
		if err != nil {
			return nil, fmt.Errorf("error creating user: %w", err)
		}
		if role.IsStaff() {
			if _, _, err := ensureAdminProfile(ctx, s.repomanager, tx, user, ""); err != nil {
				return nil, err
			}
		}
		return user, nil
	})
}

// BootstrapSuperadmin creates the first superadmin. An existing account with
// the same email is left untouched and returned with created set to false.
func (s *AdminService) BootstrapSuperadmin(ctx context.Context, email, password string) (user *models.User, created bool, err error) {
	email, err = normalizeEmail(email)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, false, fmt.Errorf("error searching user: %w", err)
	}

	if err := validatePassword(password); err != nil {
		return nil, false, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, false, err
	}

	user, err = dbx.InTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		u, err := s.repomanager.Users(tx).Create(ctx, &models.User{Email: email, PasswordHash: hash, Role: models.RoleSuperadmin})
		if err != nil {
			return nil, fmt.Errorf("error creating superadmin: %w", err)
		}
		if _, _, err := ensureAdminProfile(ctx, s.repomanager, tx, u, ""); err != nil {
			return nil, err
		}
		return u, nil
	})
	if err != nil {
		return nil, false, err
	}

	s.logger.Info(ctx, "Superadmin created", "user_id", user.ID)
	return user, true, nil
}

// AuditUsers lists every account for superadmin review.
func (s *AdminService) AuditUsers(ctx context.Context, caller *models.User, skip, limit int) ([]*models.User, error) {
	if !access.IsSuperadmin(caller) {
		return nil, common.ErrorForbidden
	}
	skip, limit = normalizePage(skip, limit)
	return s.repomanager.Users(s.db).List(ctx, skip, limit)
}

// ChangeRole sets the role of targetID. Promotion to a staff role ensures an
// admin profile exists; demotion keeps the profile. Repeating the call is
// harmless and never creates a second profile.
func (s *AdminService) ChangeRole(ctx context.Context, caller *models.User, targetID string, role models.Role) (*models.User, error) {
	if !access.IsSuperadmin(caller) {
		return nil, common.ErrorForbidden
	}
	if !role.Valid() {
		return nil, common.NewValidationError(fmt.Sprintf("unknown role %q", role))
	}

	user, err := dbx.InTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		users := s.repomanager.Users(tx)
		target, err := users.GetByID(ctx, targetID)
		if err != nil {
			return nil, err
		}
		if err := access.CanChangeRole(caller, target); err != nil {
			return nil, err
		}

		updated, err := users.UpdateRole(ctx, targetID, role)
		if err != nil {
			return nil, fmt.Errorf("error updating role: %w", err)
		}
		if role.IsStaff() {
			if _, _, err := ensureAdminProfile(ctx, s.repomanager, tx, updated, ""); err != nil {
				return nil, err
			}
		}
		return updated, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Role changed", "user_id", targetID, "role", role.String(), "by", caller.ID)
	return user, nil
}

// Associate links userID to the admin profile adminID.
func (s *AdminService) Associate(ctx context.Context, caller *models.User, userID, adminID string) error {
	admin, err := s.associationTarget(ctx, caller, userID, adminID)
	if err != nil {
		return err
	}
	return s.repomanager.Admins(s.db).Associate(ctx, userID, admin.ID)
}

// Disassociate unlinks userID from adminID; an absent link is ErrorNotFound.
func (s *AdminService) Disassociate(ctx context.Context, caller *models.User, userID, adminID string) error {
	admin, err := s.associationTarget(ctx, caller, userID, adminID)
	if err != nil {
		return err
	}
	return s.repomanager.Admins(s.db).Disassociate(ctx, userID, admin.ID)
}

func (s *AdminService) associationTarget(ctx context.Context, caller *models.User, userID, adminID string) (*models.AdminProfile, error) {
	if !access.IsStaff(caller) {
		return nil, common.ErrorForbidden
	}
	if _, err := s.repomanager.Users(s.db).GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("user: %w", err)
	}
	admin, err := s.repomanager.Admins(s.db).GetByID(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("admin: %w", err)
	}
	if !access.CanAssociate(caller, admin) {
		return nil, common.ErrorForbidden
	}
	return admin, nil
}
