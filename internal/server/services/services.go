// Package services contains server-side business logic. Each service loads
// what it needs through the repository manager, asks the access package
// whether the caller may proceed and runs multi-step writes in one
// transaction.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/docdrive/internal/common"
	"github.com/dmitrijs2005/docdrive/internal/dbx"
	"github.com/dmitrijs2005/docdrive/internal/server/access"
	"github.com/dmitrijs2005/docdrive/internal/server/models"
	"github.com/dmitrijs2005/docdrive/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	defaultPageLimit  = 100
	maxPageLimit      = 1000
)

// bcryptCost is lowered in tests.
var bcryptCost = bcrypt.DefaultCost

// dummyHash is compared against when the email is unknown so both login
// failure paths cost the same.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("docdrive-dummy-password"), bcrypt.MinCost)

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.IndexByte(email, '@'):], ".") {
		return "", common.NewValidationError("invalid email address")
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return common.NewValidationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return nil
}

func hashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// normalizePage clamps paging parameters: negative skip becomes 0 and a
// missing or oversized limit falls back to the defaults.
func normalizePage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return skip, limit
}

// associations returns the admin profile ids userID is linked to.
func associations(ctx context.Context, rm repomanager.RepositoryManager, db dbx.DBTX, userID string) (models.AdminSet, []*models.AdminProfile, error) {
	list, err := rm.Admins(db).ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading associations: %w", err)
	}
	ids := make([]string, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.ID)
	}
	return models.NewAdminSet(ids...), list, nil
}

// ensureAdminProfile returns the profile of user, creating it with the
// derived display name when absent. created reports whether a row was added.
func ensureAdminProfile(ctx context.Context, rm repomanager.RepositoryManager, tx dbx.DBTX, user *models.User, name string) (profile *models.AdminProfile, created bool, err error) {
	repo := rm.Admins(tx)
	profile, err = repo.GetByUserID(ctx, user.ID)
	if err == nil {
		return profile, false, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, false, fmt.Errorf("error loading admin profile: %w", err)
	}

	if name == "" {
		name = user.DisplayName()
	}
	profile, err = repo.Create(ctx, &models.AdminProfile{UserID: user.ID, Name: name})
	if errors.Is(err, common.ErrorAlreadyExists) {
		// a concurrent promotion won the unique key
		profile, err = repo.GetByUserID(ctx, user.ID)
		return profile, false, err
	}
	if err != nil {
		return nil, false, fmt.Errorf("error creating admin profile: %w", err)
	}
	return profile, true, nil
}

// readableFile loads fileID and checks caller may read it. Missing files
// yield ErrorNotFound before any policy check.
func readableFile(ctx context.Context, rm repomanager.RepositoryManager, db dbx.DBTX, caller *models.User, fileID string) (*models.File, error) {
	file, err := rm.Files(db).GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	var assoc models.AdminSet
	if !caller.Role.IsStaff() {
		if assoc, _, err = associations(ctx, rm, db, caller.ID); err != nil {
			return nil, err
		}
	}
	if !access.CanReadFile(caller, assoc, file) {
		return nil, common.ErrorForbidden
	}
	return file, nil
}
