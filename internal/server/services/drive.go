package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/docdrive/internal/common"
	"github.com/dmitrijs2005/docdrive/internal/dbx"
	"github.com/dmitrijs2005/docdrive/internal/logging"
	"github.com/dmitrijs2005/docdrive/internal/server/access"
	"github.com/dmitrijs2005/docdrive/internal/server/drive"
	"github.com/dmitrijs2005/docdrive/internal/server/models"
	"github.com/dmitrijs2005/docdrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/docdrive/internal/server/vault"
)

// CredentialStatus describes an admin's drive configuration without exposing
// the secret material.
type CredentialStatus struct {
	DriveFolderID  string
	HasCredentials bool
	ClientEmail    string
}

// FolderStructure is the result of creating the document taxonomy.
type FolderStructure struct {
	// Folders maps taxonomy names to remote folder ids.
	Folders map[string]string
	// Created is false when cached ids were returned without remote calls.
	Created bool
}

// DriveService manages per-admin drive credentials and folder layout. It is
// also the only place credentials are decrypted for remote calls.
type DriveService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	vault       *vault.Vault
	provider    drive.Provider
	timeout     time.Duration
	logger      logging.Logger
}

func NewDriveService(db *sql.DB, m repomanager.RepositoryManager, v *vault.Vault, p drive.Provider, timeout time.Duration, l logging.Logger) *DriveService {
	return &DriveService{
		db:          db,
		repomanager: m,
		vault:       v,
		provider:    p,
		timeout:     timeout,
		logger:      l.With("module", "drive_service", "provider", p.Name()),
	}
}

// withTimeout bounds a remote call. A non-positive timeout only adds cancellation.
func (s *DriveService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// SetCredentials validates and encrypts a service account key and stores it
// with the root folder id on the caller's profile, creating the profile when
// missing.
func (s *DriveService) SetCredentials(ctx context.Context, caller *models.User, rawJSON, folderID string) (*CredentialStatus, error) {
	if !access.IsStaff(caller) {
		return nil, common.ErrorForbidden
	}
	folderID = strings.TrimSpace(folderID)
	if folderID == "" {
		return nil, common.NewValidationError("drive folder id is required")
	}

	sa, err := vault.ParseServiceAccount([]byte(rawJSON))
	if err != nil {
		return nil, err
	}
	ciphertext, err := s.vault.EncryptServiceAccount(sa)
	if err != nil {
		return nil, fmt.Errorf("error encrypting credentials: %w", err)
	}

	profile, err := dbx.InTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) (*models.AdminProfile, error) {
		p, _, err := ensureAdminProfile(ctx, s.repomanager, tx, caller, "")
		if err != nil {
			return nil, err
		}
		if !access.CanManageCredentials(caller, p) {
			return nil, common.ErrorForbidden
		}
		return s.repomanager.Admins(tx).SetCredentials(ctx, p.ID, ciphertext, folderID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Drive credentials stored", "admin_id", profile.ID, "client_email", sa.ClientEmail)
	return &CredentialStatus{DriveFolderID: profile.DriveFolderID, HasCredentials: true, ClientEmail: sa.ClientEmail}, nil
}

// GetCredentials reports the caller's configuration. A missing profile is
// reported as unconfigured rather than as an error.
func (s *DriveService) GetCredentials(ctx context.Context, caller *models.User) (*CredentialStatus, error) {
	if !access.IsStaff(caller) {
		return nil, common.ErrorForbidden
	}
	profile, err := s.repomanager.Admins(s.db).GetByUserID(ctx, caller.ID)
	if errors.Is(err, common.ErrorNotFound) {
		return &CredentialStatus{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.status(ctx, profile), nil
}

func (s *DriveService) DeleteCredentials(ctx context.Context, caller *models.User) error {
	profile, err := s.ownProfile(ctx, caller)
	if err != nil {
		return err
	}
	if err := s.repomanager.Admins(s.db).ClearCredentials(ctx, profile.ID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("drive credentials: %w", common.ErrorNotFound)
		}
		return err
	}
	s.logger.Info(ctx, "Drive credentials deleted", "admin_id", profile.ID)
	return nil
}

// UpdateFolder replaces the root folder id and keeps the stored credentials.
func (s *DriveService) UpdateFolder(ctx context.Context, caller *models.User, folderID string) (*CredentialStatus, error) {
	folderID = strings.TrimSpace(folderID)
	if folderID == "" {
		return nil, common.NewValidationError("drive folder id is required")
	}
	profile, err := s.ownProfile(ctx, caller)
	if err != nil {
		return nil, err
	}
	profile.DriveFolderID = folderID
	profile, err = s.repomanager.Admins(s.db).Update(ctx, profile)
	if err != nil {
		return nil, err
	}
	return s.status(ctx, profile), nil
}

// ValidateCredentials checks a service account key against the drive
// backend. A non-empty candidate is validated as submitted, without storing
// it; otherwise the caller's stored key is used. The key must survive an
// encrypt/decrypt round trip and list at least one page of what it can see.
// Every failure is logged and reported as false.
func (s *DriveService) ValidateCredentials(ctx context.Context, caller *models.User, candidate string) (bool, error) {
	if !access.IsStaff(caller) {
		return false, common.ErrorForbidden
	}
	log := s.logger.With("user_id", caller.ID)

	var sa *vault.ServiceAccount
	if strings.TrimSpace(candidate) != "" {
		parsed, err := vault.ParseServiceAccount([]byte(candidate))
		if err != nil {
			log.Warn(ctx, "credential validation: malformed key", "error", err.Error())
			return false, nil
		}
		sa = parsed
	} else {
		stored, ok := s.storedAccount(ctx, log, caller)
		if !ok {
			return false, nil
		}
		sa = stored
	}
	log = log.With("client_email", sa.ClientEmail)

	ct, err := s.vault.EncryptServiceAccount(sa)
	if err == nil {
		sa, err = s.vault.DecryptServiceAccount(ct)
	}
	if err != nil {
		log.Warn(ctx, "credential validation: round trip failed", "error", err.Error())
		return false, nil
	}

	rctx, cancel := s.withTimeout(ctx)
	defer cancel()
	client, err := s.provider.Open(rctx, sa)
	if err == nil {
		_, err = client.List(rctx, "", 1)
	}
	if err != nil {
		log.Warn(ctx, "credential validation: remote check failed", "error", err.Error())
		return false, nil
	}
	return true, nil
}

func (s *DriveService) storedAccount(ctx context.Context, log logging.Logger, caller *models.User) (*vault.ServiceAccount, bool) {
	profile, err := s.repomanager.Admins(s.db).GetByUserID(ctx, caller.ID)
	if err != nil {
		log.Warn(ctx, "credential validation: no admin profile", "error", err.Error())
		return nil, false
	}
	if !profile.HasCredentials() {
		log.Warn(ctx, "credential validation: no credentials stored", "admin_id", profile.ID)
		return nil, false
	}
	sa, err := s.vault.DecryptServiceAccount(profile.EncryptedDriveCred)
	if err != nil {
		log.Warn(ctx, "credential validation: decrypt failed", "admin_id", profile.ID, "error", err.Error())
		return nil, false
	}
	return sa, true
}

// ListFolderContents lists the caller's root folder.
func (s *DriveService) ListFolderContents(ctx context.Context, caller *models.User) (string, []*drive.Object, error) {
	profile, err := s.ownProfile(ctx, caller)
	if err != nil {
		return "", nil, err
	}
	if profile.DriveFolderID == "" && profile.HasCredentials() {
		return "", nil, common.ErrFolderNotConfigured
	}
	client, err := s.open(ctx, profile)
	if err != nil {
		return "", nil, err
	}

	rctx, cancel := s.withTimeout(ctx)
	defer cancel()
	objects, err := client.List(rctx, profile.DriveFolderID, 0)
	if err != nil {
		return "", nil, err
	}
	return profile.DriveFolderID, objects, nil
}

// CreateStructure creates the taxonomy folders under the caller's root
// folder and caches their ids. When every id is already cached it returns
// them without remote calls unless force is set.
func (s *DriveService) CreateStructure(ctx context.Context, caller *models.User, force bool) (*FolderStructure, error) {
	profile, err := s.ownProfile(ctx, caller)
	if err != nil {
		return nil, err
	}
	if profile.DriveFolderID == "" && profile.HasCredentials() {
		return nil, common.ErrFolderNotConfigured
	}
	if profile.Folders.Complete() && !force {
		return &FolderStructure{Folders: drive.FolderNames(profile.Folders)}, nil
	}

	client, err := s.open(ctx, profile)
	if err != nil {
		return nil, err
	}

	rctx, cancel := s.withTimeout(ctx)
	defer cancel()
	created, ids, err := drive.CreateStructure(rctx, client, profile.DriveFolderID)
	if err != nil {
		s.logger.Warn(ctx, "folder structure incomplete", "admin_id", profile.ID, "created", len(created), "error", err.Error())
		return nil, err
	}

	if _, err := s.repomanager.Admins(s.db).SetFolders(ctx, profile.ID, ids); err != nil {
		return nil, fmt.Errorf("error caching folder ids: %w", err)
	}
	s.logger.Info(ctx, "Folder structure created", "admin_id", profile.ID)
	return &FolderStructure{Folders: drive.FolderNames(ids), Created: true}, nil
}

// ownProfile loads the profile of a staff caller.
func (s *DriveService) ownProfile(ctx context.Context, caller *models.User) (*models.AdminProfile, error) {
	if !access.IsStaff(caller) {
		return nil, common.ErrorForbidden
	}
	profile, err := s.repomanager.Admins(s.db).GetByUserID(ctx, caller.ID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("admin profile: %w", common.ErrorNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !access.CanManageCredentials(caller, profile) {
		return nil, common.ErrorForbidden
	}
	return profile, nil
}

func (s *DriveService) status(ctx context.Context, profile *models.AdminProfile) *CredentialStatus {
	st := &CredentialStatus{DriveFolderID: profile.DriveFolderID, HasCredentials: profile.HasCredentials()}
	if st.HasCredentials {
		sa, err := s.vault.DecryptServiceAccount(profile.EncryptedDriveCred)
		if err != nil {
			s.logger.Warn(ctx, "stored credentials unreadable", "admin_id", profile.ID, "error", err.Error())
		} else {
			st.ClientEmail = sa.ClientEmail
		}
	}
	return st
}

// open decrypts the profile credentials and opens a provider client.
// Integrity failures are returned as is and never replaced by empty
// credentials.
func (s *DriveService) open(ctx context.Context, profile *models.AdminProfile) (drive.Client, error) {
	if !profile.HasCredentials() {
		return nil, common.ErrDriveNotConfigured
	}
	sa, err := s.vault.DecryptServiceAccount(profile.EncryptedDriveCred)
	if err != nil {
		s.logger.Error(ctx, "stored credentials unreadable", "admin_id", profile.ID, "error", err.Error())
		return nil, err
	}
	client, err := s.provider.Open(ctx, sa)
	if err != nil {
		return nil, drive.Wrap("open drive client", err)
	}
	return client, nil
}
