package files

import (
	"context"

	"github.com/dmitrijs2005/docdrive/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	GetByID(ctx context.Context, id string) (*models.File, error)
	// List returns files newest first.
	List(ctx context.Context, filter models.FileFilter) ([]*models.File, error)
	Delete(ctx context.Context, id string) error
}
