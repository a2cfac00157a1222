package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/docdrive/internal/dbx"
	"github.com/dmitrijs2005/docdrive/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func pointer(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func (r *PostgresRepository) Append(ctx context.Context, e *models.CommentHistoryEntry) (*models.CommentHistoryEntry, error) {
	query :=
		`INSERT INTO comment_history (comment_id, file_id, action, previous_text, new_text, actor_user_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		e.CommentID, e.FileID, string(e.Action), nullable(e.PreviousText), nullable(e.NewText), e.ActorUserID,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return e, nil
}

func (r *PostgresRepository) ListByComment(ctx context.Context, commentID string) ([]*models.CommentHistoryEntry, error) {
	query :=
		`SELECT id, comment_id, file_id, action, previous_text, new_text, actor_user_id, created_at
		 FROM comment_history
		 WHERE comment_id = $1
		 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, commentID)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	defer rows.Close()

	var result []*models.CommentHistoryEntry
	for rows.Next() {
		var (
			e              models.CommentHistoryEntry
			action         string
			previous, next sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.CommentID, &e.FileID, &action, &previous, &next, &e.ActorUserID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		e.Action = models.HistoryAction(action)
		e.PreviousText = pointer(previous)
		e.NewText = pointer(next)
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
