package comments

import (
	"context"

	"github.com/dmitrijs2005/docdrive/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*models.Comment, error)
	ListByFile(ctx context.Context, fileID string) ([]*models.Comment, error)
	UpdateText(ctx context.Context, id, text string) (*models.Comment, error)
	Delete(ctx context.Context, id string) error
}
