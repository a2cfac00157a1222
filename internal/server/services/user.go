package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/docdrive/internal/common"
	"github.com/dmitrijs2005/docdrive/internal/dbx"
	"github.com/dmitrijs2005/docdrive/internal/logging"
	"github.com/dmitrijs2005/docdrive/internal/server/access"
	"github.com/dmitrijs2005/docdrive/internal/server/auth"
	"github.com/dmitrijs2005/docdrive/internal/server/config"
	"github.com/dmitrijs2005/docdrive/internal/server/models"
	"github.com/dmitrijs2005/docdrive/internal/server/ratelimit"
	"github.com/dmitrijs2005/docdrive/internal/server/repositories/repomanager"
)

// ErrEmailRegistered is returned when an email is already taken. It matches
// common.ErrorValidation.
var ErrEmailRegistered = common.NewValidationError("email already registered")

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserUpdate holds optional changes; nil fields are left untouched.
type UserUpdate struct {
	Email    *string
	Password *string
}

// UserService provides authentication and account operations:
// - Register, Login, RefreshToken: mint and rotate token pairs
// - Authenticate: resolve a bearer token to exactly one user
// - self-service and staff user management
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	limiter                      ratelimit.Limiter
	logger                       logging.Logger
}

// NewUserService constructs a UserService using repositories and server config.
// A nil limiter disables login throttling.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, limiter ratelimit.Limiter, l logging.Logger) *UserService {
	if limiter == nil {
		limiter = ratelimit.Nop{}
	}
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		limiter:                      limiter,
		logger:                       l.With("module", "user_service"),
	}
}

// Register creates a plain user and returns it with a fresh TokenPair.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, nil, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, nil, err
	}

	var (
		user *models.User
		pair *TokenPair
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)
		if _, err := repo.GetByEmail(ctx, email); err == nil {
			return ErrEmailRegistered
		} else if !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("error searching user: %w", err)
		}

		user, err = repo.Create(ctx, &models.User{Email: email, PasswordHash: hash, Role: models.RoleUser})
		if errors.Is(err, common.ErrorAlreadyExists) {
			return ErrEmailRegistered
		}
		if err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}

		pair, err = s.generateTokenPair(ctx, user, tx)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info(ctx, "Registered", "user_id", user.ID)
	return user, pair, nil
}

// Login verifies the password and returns a new TokenPair. Unknown emails and
// wrong passwords both yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	if err := s.limiter.Check(ctx, email); err != nil {
		if errors.Is(err, common.ErrTooManyAttempts) {
			return nil, err
		}
		s.logger.Warn(ctx, "login limiter unavailable", "error", err.Error())
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.logger.Error(ctx, "error searching user", "error", err.Error())
		return nil, common.ErrorInternal
	}

	if user == nil {
		checkPassword(string(dummyHash), password)
		s.recordFailure(ctx, email)
		return nil, common.ErrorUnauthorized
	}
	if !checkPassword(user.PasswordHash, password) {
		s.recordFailure(ctx, email)
		return nil, common.ErrorUnauthorized
	}

	if err := s.limiter.Reset(ctx, email); err != nil {
		s.logger.Warn(ctx, "login limiter reset failed", "error", err.Error())
	}
	return s.generateTokenPair(ctx, user, s.db)
}

func (s *UserService) recordFailure(ctx context.Context, email string) {
	if err := s.limiter.Fail(ctx, email); err != nil {
		s.logger.Warn(ctx, "login limiter record failed", "error", err.Error())
	}
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expired(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		user, err := s.repomanager.Users(tx).GetByID(ctx, token.UserID)
		if err != nil {
			return fmt.Errorf("error loading user: %w", err)
		}
		pair, err = s.generateTokenPair(ctx, user, tx)
		return err
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// Authenticate resolves an access token to its user. Tokens of deleted users
// are rejected with common.ErrInvalidToken.
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	userID, err := auth.GetUserIDFromToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}

// UpdateMe applies email and password changes to the caller's own account.
func (s *UserService) UpdateMe(ctx context.Context, caller *models.User, upd UserUpdate) (*models.User, error) {
	return s.update(ctx, caller.ID, upd)
}

// MyAdmins lists the admin profiles the caller is associated with.
func (s *UserService) MyAdmins(ctx context.Context, caller *models.User) ([]*models.AdminProfile, error) {
	_, list, err := associations(ctx, s.repomanager, s.db, caller.ID)
	return list, err
}

func (s *UserService) List(ctx context.Context, caller *models.User, skip, limit int) ([]*models.User, error) {
	if !access.IsStaff(caller) {
		return nil, common.ErrorForbidden
	}
	skip, limit = normalizePage(skip, limit)
	return s.repomanager.Users(s.db).List(ctx, skip, limit)
}

func (s *UserService) Get(ctx context.Context, caller *models.User, id string) (*models.User, error) {
	if !access.IsStaff(caller) {
		return nil, common.ErrorForbidden
	}
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

// Update changes another account's email or password. Roles are changed only
// through AdminService.ChangeRole.
func (s *UserService) Update(ctx context.Context, caller *models.User, id string, upd UserUpdate) (*models.User, error) {
	if !access.IsStaff(caller) {
		return nil, common.ErrorForbidden
	}
	target, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanUpdateUser(caller, target) {
		return nil, common.ErrorForbidden
	}
	return s.update(ctx, id, upd)
}

// Delete removes an account. Accounts that uploaded files cannot be deleted
// and yield common.ErrorConflict.
func (s *UserService) Delete(ctx context.Context, caller *models.User, id string) error {
	if !access.IsStaff(caller) {
		return common.ErrorForbidden
	}
	repo := s.repomanager.Users(s.db)
	target, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanDeleteUser(caller, target) {
		return common.ErrorForbidden
	}
	if err := repo.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return fmt.Errorf("%w: user has uploaded files", common.ErrorConflict)
		}
		return err
	}
	s.logger.Info(ctx, "User deleted", "user_id", id, "by", caller.ID)
	return nil
}

func (s *UserService) update(ctx context.Context, id string, upd UserUpdate) (*models.User, error) {
	var email, hash string
	if upd.Email != nil {
		e, err := normalizeEmail(*upd.Email)
		if err != nil {
			return nil, err
		}
		email = e
	}
	if upd.Password != nil {
		if err := validatePassword(*upd.Password); err != nil {
			return nil, err
		}
		h, err := hashPassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	return dbx.InTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		repo := s.repomanager.Users(tx)
		user, err := repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if email != "" && email != user.Email {
			if other, err := repo.GetByEmail(ctx, email); err == nil && other.ID != user.ID {
				return nil, ErrEmailRegistered
			} else if err != nil && !errors.Is(err, common.ErrorNotFound) {
				return nil, fmt.Errorf("error searching user: %w", err)
			}
			user.Email = email
		}
		if hash != "" {
			user.PasswordHash = hash
		}

		updated, err := repo.Update(ctx, user)
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, ErrEmailRegistered
		}
		if err != nil {
			return nil, fmt.Errorf("error updating user: %w", err)
		}

		if hash != "" {
			if err := s.repomanager.RefreshTokens(tx).DeleteByUser(ctx, id); err != nil {
				return nil, fmt.Errorf("error revoking refresh tokens: %w", err)
			}
		}
		return updated, nil
	})
}

// --- helpers below ---

func (s *UserService) generateAccessToken(user *models.User) (string, error) {
	return auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *UserService) generateTokenPair(ctx context.Context, user *models.User, tx dbx.DBTX) (*TokenPair, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	refreshRepo := s.repomanager.RefreshTokens(tx)
	if err := refreshRepo.DeleteExpired(ctx, user.ID, time.Now()); err != nil {
		return nil, common.ErrorInternal
	}
	if err := refreshRepo.Create(ctx, user.ID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refresh}, nil
}
