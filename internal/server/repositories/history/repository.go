// Package history stores the append-only comment audit trail. There is no
// update or delete operation.
package history

import (
	"context"

	"github.com/dmitrijs2005/docdrive/internal/server/models"
)

type Repository interface {
	Append(ctx context.Context, entry *models.CommentHistoryEntry) (*models.CommentHistoryEntry, error)
	// ListByComment returns entries oldest first.
	ListByComment(ctx context.Context, commentID string) ([]*models.CommentHistoryEntry, error)
}
