package models

import "time"

// File is the local metadata of a document stored on an admin's drive.
type File struct {
	ID               string
	Filename         string
	OriginalFilename string
	// DriveFileID is the id assigned by the remote provider.
	DriveFileID      string
	MimeType         string
	FileSize         int64
	OwnerAdminID     string
	UploadedByUserID string
	Description      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// FileFilter narrows file listings.
type FileFilter struct {
	// AdminIDs restricts results to files owned by these admins. Nil means
	// no restriction; an empty non-nil slice matches nothing.
	AdminIDs []string
	Skip     int
	Limit    int
}
