// Package drive abstracts the remote document store an admin's files live in.
// A Provider opens per-credential Clients; the concrete backends live in the
// gdrive and s3drive subpackages.
package drive

import (
	"context"
	"io"
	"time"

	"github.com/dmitrijs2005/docdrive/internal/server/vault"
)

// FolderMimeType marks folders in listings, matching Google Drive.
const FolderMimeType = "application/vnd.google-apps.folder"

// Object is a remote file or folder.
type Object struct {
	ID          string
	Name        string
	MimeType    string
	Size        int64
	CreatedAt   time.Time
	ModifiedAt  time.Time
	WebViewLink string
}

func (o *Object) IsFolder() bool { return o.MimeType == FolderMimeType }

// Provider opens clients authenticated with a service account.
type Provider interface {
	Open(ctx context.Context, sa *vault.ServiceAccount) (Client, error)
	Name() string
}

// Client performs remote calls on behalf of one admin. Implementations return
// errors wrapped with common.ErrRemoteProvider, except for context errors
// which are returned as is.
type Client interface {
	// Create uploads r as a new file under parent.
	Create(ctx context.Context, r io.Reader, name, mimeType, parent string) (*Object, error)
	GetMedia(ctx context.Context, id string) (io.ReadCloser, error)
	Delete(ctx context.Context, id string) error
	// List returns up to limit non-trashed children of parent; limit <= 0 means all.
	// An empty parent lists whatever the credentials can see.
	List(ctx context.Context, parent string, limit int) ([]*Object, error)
	CreateFolder(ctx context.Context, name, parent string) (*Object, error)
}
