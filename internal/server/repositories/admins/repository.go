package admins

import (
	"context"

	"github.com/dmitrijs2005/docdrive/internal/server/models"
)

// Repository persists admin profiles and their user associations.
type Repository interface {
	Create(ctx context.Context, admin *models.AdminProfile) (*models.AdminProfile, error)
	GetByID(ctx context.Context, id string) (*models.AdminProfile, error)
	GetByUserID(ctx context.Context, userID string) (*models.AdminProfile, error)
	List(ctx context.Context, skip, limit int) ([]*models.AdminProfile, error)
	// Update persists name and drive folder id.
	Update(ctx context.Context, admin *models.AdminProfile) (*models.AdminProfile, error)
	SetCredentials(ctx context.Context, id, ciphertext, folderID string) (*models.AdminProfile, error)
	// ClearCredentials returns ErrorNotFound when no credentials were stored.
	ClearCredentials(ctx context.Context, id string) error
	SetFolders(ctx context.Context, id string, folders models.FolderIDs) (*models.AdminProfile, error)
	Delete(ctx context.Context, id string) error

	// Associate is idempotent.
	Associate(ctx context.Context, userID, adminID string) error
	// Disassociate returns ErrorNotFound when the pair was not associated.
	Disassociate(ctx context.Context, userID, adminID string) error
	ListByUser(ctx context.Context, userID string) ([]*models.AdminProfile, error)
}
