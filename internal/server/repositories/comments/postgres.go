// Package comments persists file comments.
package comments

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/docdrive/internal/dbx"
	"github.com/dmitrijs2005/docdrive/internal/server/models"
)

const columns = `id, file_id, user_id, text, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanComment(s scanner) (*models.Comment, error) {
	c := &models.Comment{}
	if err := s.Scan(&c.ID, &c.FileID, &c.UserID, &c.Text, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PostgresRepository) one(ctx context.Context, query string, args ...any) (*models.Comment, error) {
	c, err := scanComment(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	query :=
		`INSERT INTO comments (file_id, user_id, text)
		 VALUES ($1, $2, $3)
		 RETURNING ` + columns

	return r.one(ctx, query, comment.FileID, comment.UserID, comment.Text)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	return r.one(ctx, `SELECT `+columns+` FROM comments WHERE id = $1`, id)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Comment, error) {
	return r.one(ctx, `SELECT `+columns+` FROM comments WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) ListByFile(ctx context.Context, fileID string) ([]*models.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+columns+` FROM comments WHERE file_id = $1 ORDER BY created_at, id`, fileID)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	defer rows.Close()

	var result []*models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) UpdateText(ctx context.Context, id, text string) (*models.Comment, error) {
	query :=
		`UPDATE comments SET text = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + columns

	return r.one(ctx, query, id, text)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return dbx.MapError(err)
	}
	return dbx.RequireAffected(res)
}
