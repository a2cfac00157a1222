// Package files persists file metadata. The bytes live on the owner admin's drive.
package files

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/docdrive/internal/dbx"
	"github.com/dmitrijs2005/docdrive/internal/server/models"
)

const columns = `id, filename, original_filename, COALESCE(drive_file_id, ''), mime_type, file_size,
		owner_admin_id, uploaded_by_user_id, COALESCE(description, ''), created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (*models.File, error) {
	f := &models.File{}
	err := s.Scan(&f.ID, &f.Filename, &f.OriginalFilename, &f.DriveFileID, &f.MimeType, &f.FileSize,
		&f.OwnerAdminID, &f.UploadedByUserID, &f.Description, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	query :=
		`INSERT INTO files (filename, original_filename, drive_file_id, mime_type, file_size,
		                    owner_admin_id, uploaded_by_user_id, description)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, NULLIF($8, ''))
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		file.Filename, file.OriginalFilename, file.DriveFileID, file.MimeType, file.FileSize,
		file.OwnerAdminID, file.UploadedByUserID, file.Description,
	).Scan(&file.ID, &file.CreatedAt, &file.UpdatedAt)
	if err != nil {
		return nil, dbx.MapError(err)
	}

	return file, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	f, err := scanFile(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM files WHERE id = $1`, id))
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return f, nil
}

func (r *PostgresRepository) List(ctx context.Context, filter models.FileFilter) ([]*models.File, error) {
	if filter.AdminIDs != nil && len(filter.AdminIDs) == 0 {
		return nil, nil
	}

	var (
		where string
		args  []any
	)
	if len(filter.AdminIDs) > 0 {
		ph := make([]string, len(filter.AdminIDs))
		for i, id := range filter.AdminIDs {
			args = append(args, id)
			ph[i] = fmt.Sprintf("$%d", i+1)
		}
		where = ` WHERE owner_admin_id IN (` + strings.Join(ph, ", ") + `)`
	}
	args = append(args, filter.Skip, filter.Limit)

	query := `SELECT ` + columns + ` FROM files` + where +
		fmt.Sprintf(` ORDER BY created_at DESC, id DESC OFFSET $%d LIMIT $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return dbx.MapError(err)
	}
	return dbx.RequireAffected(res)
}
