package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/dmitrijs2005/docdrive/internal/common"
	"github.com/dmitrijs2005/docdrive/internal/logging"
	"github.com/dmitrijs2005/docdrive/internal/server/access"
	"github.com/dmitrijs2005/docdrive/internal/server/drive"
	"github.com/dmitrijs2005/docdrive/internal/server/models"
	"github.com/dmitrijs2005/docdrive/internal/server/repositories/repomanager"
)

const defaultMimeType = "application/octet-stream"

// ErrNoAdmin is returned when an upload has no admin to go to.
var ErrNoAdmin = common.NewValidationError("user is not associated with any admin")

// Upload describes an incoming file.
type Upload struct {
	// AdminID selects the target profile; empty picks the default.
	AdminID     string
	Filename    string
	MimeType    string
	Size        int64
	Description string
	Body        io.Reader
}

// FileService proxies file bytes to the owning admin's drive and keeps the
// local metadata.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	drives      *DriveService
	logger      logging.Logger
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, ds *DriveService, l logging.Logger) *FileService {
	return &FileService{db: db, repomanager: m, drives: ds, logger: l.With("module", "file_service")}
}

// Upload stores the bytes on the target admin's drive and records the file.
// Like Download, the upload is only cut when it stalls for the drive timeout.
// The record is written only after the remote upload succeeded; if writing
// it fails the remote object is removed again on a best-effort basis.
func (s *FileService) Upload(ctx context.Context, caller *models.User, in Upload) (*models.File, error) {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(in.Filename), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return nil, common.NewValidationError("filename is required")
	}
	if in.MimeType == "" {
		in.MimeType = defaultMimeType
	}

	admin, err := s.uploadTarget(ctx, caller, in.AdminID)
	if err != nil {
		return nil, err
	}
	client, err := s.drives.open(ctx, admin)
	if err != nil {
		return nil, err
	}

	tr := drive.NewTransfer(ctx, s.drives.timeout)
	obj, err := client.Create(tr.Context(), tr.Reader(in.Body), name, in.MimeType, admin.DriveFolderID)
	err = tr.Err(err)
	tr.Stop()
	if err != nil {
		s.logger.Warn(ctx, "remote upload failed", "admin_id", admin.ID, "error", err.Error())
		return nil, err
	}

	size := obj.Size
	if size == 0 {
		size = in.Size
	}
	file, err := s.repomanager.Files(s.db).Create(ctx, &models.File{
		Filename:         name,
		OriginalFilename: in.Filename,
		DriveFileID:      obj.ID,
		MimeType:         in.MimeType,
		FileSize:         size,
		OwnerAdminID:     admin.ID,
		UploadedByUserID: caller.ID,
		Description:      strings.TrimSpace(in.Description),
	})
	if err != nil {
		dctx, dcancel := s.drives.withTimeout(context.WithoutCancel(ctx))
		defer dcancel()
		if derr := client.Delete(dctx, obj.ID); derr != nil {
			s.logger.Error(ctx, "orphaned remote file", "drive_file_id", obj.ID, "error", derr.Error())
		}
		return nil, fmt.Errorf("error recording file: %w", err)
	}

	s.logger.Info(ctx, "File uploaded", "file_id", file.ID, "admin_id", admin.ID, "size", size)
	return file, nil
}

// uploadTarget resolves the admin profile an upload goes to: the requested
// one, else the first associated admin, else the caller's own profile.
func (s *FileService) uploadTarget(ctx context.Context, caller *models.User, adminID string) (*models.AdminProfile, error) {
	assoc, linked, err := associations(ctx, s.repomanager, s.db, caller.ID)
	if err != nil {
		return nil, err
	}

	if adminID != "" {
		admin, err := s.repomanager.Admins(s.db).GetByID(ctx, adminID)
		if err != nil {
			return nil, fmt.Errorf("admin: %w", err)
		}
		if !access.CanUploadTo(caller, assoc, admin) {
			return nil, common.ErrorForbidden
		}
		return admin, nil
	}

	if len(linked) > 0 {
		return linked[0], nil
	}
	if caller.Role.IsStaff() {
		own, err := s.repomanager.Admins(s.db).GetByUserID(ctx, caller.ID)
		if err == nil {
			return own, nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
	}
	return nil, ErrNoAdmin
}

func (s *FileService) Get(ctx context.Context, caller *models.User, id string) (*models.File, error) {
	return readableFile(ctx, s.repomanager, s.db, caller, id)
}

// List returns files newest first. Staff see every file, optionally narrowed
// to adminID; plain users only see files of their associated admins.
func (s *FileService) List(ctx context.Context, caller *models.User, adminID string, skip, limit int) ([]*models.File, error) {
	skip, limit = normalizePage(skip, limit)
	filter := models.FileFilter{Skip: skip, Limit: limit}

	var assoc models.AdminSet
	if caller.Role.IsStaff() {
		if adminID != "" {
			filter.AdminIDs = []string{adminID}
		}
	} else {
		var err error
		if assoc, _, err = associations(ctx, s.repomanager, s.db, caller.ID); err != nil {
			return nil, err
		}
		switch {
		case adminID != "" && !assoc.Has(adminID):
			return nil, common.ErrorForbidden
		case adminID != "":
			filter.AdminIDs = []string{adminID}
		default:
			filter.AdminIDs = make([]string, 0, len(assoc))
			for id := range assoc {
				filter.AdminIDs = append(filter.AdminIDs, id)
			}
			sort.Strings(filter.AdminIDs)
		}
	}

	files, err := s.repomanager.Files(s.db).List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return access.FilterFiles(caller, assoc, files), nil
}

// Download opens the remote content of a readable file. The drive timeout
// applies per read: the stream is cut only when it stalls for that long. The
// returned reader must be closed by the caller.
func (s *FileService) Download(ctx context.Context, caller *models.User, id string) (*models.File, io.ReadCloser, error) {
	file, err := readableFile(ctx, s.repomanager, s.db, caller, id)
	if err != nil {
		return nil, nil, err
	}
	if file.DriveFileID == "" {
		return nil, nil, fmt.Errorf("remote content: %w", common.ErrorNotFound)
	}

	admin, err := s.repomanager.Admins(s.db).GetByID(ctx, file.OwnerAdminID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil, common.ErrDriveNotConfigured
	}
	if err != nil {
		return nil, nil, err
	}
	client, err := s.drives.open(ctx, admin)
	if err != nil {
		return nil, nil, err
	}

	tr := drive.NewTransfer(ctx, s.drives.timeout)
	body, err := client.GetMedia(tr.Context(), file.DriveFileID)
	if err != nil {
		err = tr.Err(err)
		tr.Stop()
		return nil, nil, err
	}
	return file, tr.ReadCloser(body), nil
}

// Delete removes the file record. The remote object is deleted first on a
// best-effort basis: failures are logged and never block the local delete.
func (s *FileService) Delete(ctx context.Context, caller *models.User, id string) error {
	repo := s.repomanager.Files(s.db)
	file, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !access.CanDeleteFile(caller, file) {
		return common.ErrorForbidden
	}

	if file.DriveFileID != "" {
		s.deleteRemote(ctx, file)
	}

	if err := repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "File deleted", "file_id", id, "by", caller.ID)
	return nil
}

func (s *FileService) deleteRemote(ctx context.Context, file *models.File) {
	log := s.logger.With("file_id", file.ID, "drive_file_id", file.DriveFileID)

	admin, err := s.repomanager.Admins(s.db).GetByID(ctx, file.OwnerAdminID)
	if err != nil {
		log.Warn(ctx, "remote delete skipped", "error", err.Error())
		return
	}
	client, err := s.drives.open(ctx, admin)
	if err != nil {
		log.Warn(ctx, "remote delete skipped", "error", err.Error())
		return
	}

	rctx, cancel := s.drives.withTimeout(ctx)
	defer cancel()
	if err := client.Delete(rctx, file.DriveFileID); err != nil {
		log.Warn(ctx, "remote delete failed", "error", err.Error())
	}
}
