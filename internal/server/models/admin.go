package models

import "time"

// FolderIDs caches the remote ids of the document taxonomy folders.
type FolderIDs struct {
	Pending  string
	InReview string
	Approved string
	Rejected string
	Archived string
}

// Complete reports whether every taxonomy folder id is known.
func (f FolderIDs) Complete() bool {
	return f.Pending != "" && f.InReview != "" && f.Approved != "" && f.Rejected != "" && f.Archived != ""
}

// AdminProfile is the administrative extension of a staff User. It owns the
// encrypted drive credentials and the root folder files are uploaded to.
type AdminProfile struct {
	ID     string
	UserID string
	Name   string

	// EncryptedDriveCred is the vault ciphertext, empty when not configured.
	EncryptedDriveCred string
	DriveFolderID      string
	Folders            FolderIDs

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *AdminProfile) HasCredentials() bool { return a.EncryptedDriveCred != "" }

// AdminSet is the set of admin profile ids a user is associated with.
type AdminSet map[string]struct{}

func NewAdminSet(ids ...string) AdminSet {
	s := make(AdminSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s AdminSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}
