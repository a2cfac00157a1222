// Package admins persists admin profiles (the admins table) and the
// user_admins association.
package admins

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/docdrive/internal/dbx"
	"github.com/dmitrijs2005/docdrive/internal/server/models"
)

const columns = `a.id, a.user_id, a.name,
		COALESCE(a.encrypted_drive_cred, ''), COALESCE(a.drive_folder_id, ''),
		COALESCE(a.folder_pending_id, ''), COALESCE(a.folder_in_review_id, ''),
		COALESCE(a.folder_approved_id, ''), COALESCE(a.folder_rejected_id, ''),
		COALESCE(a.folder_archived_id, ''),
		a.created_at, a.updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAdmin(s scanner) (*models.AdminProfile, error) {
	a := &models.AdminProfile{}
	err := s.Scan(&a.ID, &a.UserID, &a.Name,
		&a.EncryptedDriveCred, &a.DriveFolderID,
		&a.Folders.Pending, &a.Folders.InReview,
		&a.Folders.Approved, &a.Folders.Rejected,
		&a.Folders.Archived,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *PostgresRepository) queryOne(ctx context.Context, query string, args ...any) (*models.AdminProfile, error) {
	a, err := scanAdmin(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return a, nil
}

func (r *PostgresRepository) queryMany(ctx context.Context, query string, args ...any) ([]*models.AdminProfile, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.AdminProfile
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Create(ctx context.Context, admin *models.AdminProfile) (*models.AdminProfile, error) {
	query :=
		`INSERT INTO admins AS a (user_id, name)
		 VALUES ($1, $2)
		 RETURNING ` + columns

	return r.queryOne(ctx, query, admin.UserID, admin.Name)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.AdminProfile, error) {
	return r.queryOne(ctx, `SELECT `+columns+` FROM admins a WHERE a.id = $1`, id)
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*models.AdminProfile, error) {
	return r.queryOne(ctx, `SELECT `+columns+` FROM admins a WHERE a.user_id = $1`, userID)
}

func (r *PostgresRepository) List(ctx context.Context, skip, limit int) ([]*models.AdminProfile, error) {
	return r.queryMany(ctx, `SELECT `+columns+` FROM admins a ORDER BY a.created_at, a.id OFFSET $1 LIMIT $2`, skip, limit)
}

func (r *PostgresRepository) Update(ctx context.Context, admin *models.AdminProfile) (*models.AdminProfile, error) {
	query :=
		`UPDATE admins AS a SET name = $2, drive_folder_id = NULLIF($3, ''), updated_at = now()
		 WHERE a.id = $1
		 RETURNING ` + columns

	return r.queryOne(ctx, query, admin.ID, admin.Name, admin.DriveFolderID)
}

func (r *PostgresRepository) SetCredentials(ctx context.Context, id, ciphertext, folderID string) (*models.AdminProfile, error) {
	query :=
		`UPDATE admins AS a SET encrypted_drive_cred = $2, drive_folder_id = NULLIF($3, ''), updated_at = now()
		 WHERE a.id = $1
		 RETURNING ` + columns

	return r.queryOne(ctx, query, id, ciphertext, folderID)
}

func (r *PostgresRepository) ClearCredentials(ctx context.Context, id string) error {
	query :=
		`UPDATE admins SET encrypted_drive_cred = NULL, updated_at = now()
		 WHERE id = $1 AND encrypted_drive_cred IS NOT NULL`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return dbx.MapError(err)
	}
	return dbx.RequireAffected(res)
}

func (r *PostgresRepository) SetFolders(ctx context.Context, id string, f models.FolderIDs) (*models.AdminProfile, error) {
	query :=
		`UPDATE admins AS a SET
		    folder_pending_id = $2, folder_in_review_id = $3, folder_approved_id = $4,
		    folder_rejected_id = $5, folder_archived_id = $6, updated_at = now()
		 WHERE a.id = $1
		 RETURNING ` + columns

	return r.queryOne(ctx, query, id, f.Pending, f.InReview, f.Approved, f.Rejected, f.Archived)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admins WHERE id = $1`, id)
	if err != nil {
		return dbx.MapError(err)
	}
	return dbx.RequireAffected(res)
}

func (r *PostgresRepository) Associate(ctx context.Context, userID, adminID string) error {
	query :=
		`INSERT INTO user_admins (user_id, admin_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, admin_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, userID, adminID); err != nil {
		return dbx.MapError(err)
	}
	return nil
}

func (r *PostgresRepository) Disassociate(ctx context.Context, userID, adminID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_admins WHERE user_id = $1 AND admin_id = $2`, userID, adminID)
	if err != nil {
		return dbx.MapError(err)
	}
	return dbx.RequireAffected(res)
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.AdminProfile, error) {
	query :=
		`SELECT ` + columns + ` FROM admins a
		 JOIN user_admins ua ON ua.admin_id = a.id
		 WHERE ua.user_id = $1
		 ORDER BY ua.created_at, a.id`

	return r.queryMany(ctx, query, userID)
}
