package users

import (
	"context"

	"github.com/dmitrijs2005/docdrive/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, skip, limit int) ([]*models.User, error)
	// Update persists email and password hash.
	Update(ctx context.Context, user *models.User) (*models.User, error)
	UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error)
	Delete(ctx context.Context, id string) error
}
