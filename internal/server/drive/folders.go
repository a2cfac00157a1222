package drive

import (
	"context"

	"github.com/dmitrijs2005/docdrive/internal/server/models"
)

// Taxonomy folder names, in creation order.
const (
	FolderPending  = "Pendientes"
	FolderInReview = "En Revisión"
	FolderApproved = "Aprobados"
	FolderRejected = "Rechazados"
	FolderArchived = "Archivados"
)

var Taxonomy = []string{FolderPending, FolderInReview, FolderApproved, FolderRejected, FolderArchived}

// CreateStructure creates every taxonomy folder under parent and returns the
// created objects keyed by name along with the ids to cache.
// It stops at the first failure.
func CreateStructure(ctx context.Context, c Client, parent string) (map[string]*Object, models.FolderIDs, error) {
	created := make(map[string]*Object, len(Taxonomy))
	for _, name := range Taxonomy {
		obj, err := c.CreateFolder(ctx, name, parent)
		if err != nil {
			return created, models.FolderIDs{}, err
		}
		created[name] = obj
	}

	ids := models.FolderIDs{
		Pending:  created[FolderPending].ID,
		InReview: created[FolderInReview].ID,
		Approved: created[FolderApproved].ID,
		Rejected: created[FolderRejected].ID,
		Archived: created[FolderArchived].ID,
	}
	return created, ids, nil
}

// FolderNames maps cached folder ids back to taxonomy names.
func FolderNames(ids models.FolderIDs) map[string]string {
	return map[string]string{
		FolderPending:  ids.Pending,
		FolderInReview: ids.InReview,
		FolderApproved: ids.Approved,
		FolderRejected: ids.Rejected,
		FolderArchived: ids.Archived,
	}
}
