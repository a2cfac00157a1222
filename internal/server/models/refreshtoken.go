package models

import "time"

// RefreshToken is the stored half of an opaque refresh token. Only the
// SHA-256 digest of the token is persisted; the raw value exists on the
// client alone.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token can no longer be exchanged at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
