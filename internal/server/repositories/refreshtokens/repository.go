// Package refreshtokens declares the repository contract for the refresh
// tokens exchanged at /auth/refresh.
package refreshtokens

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/dmitrijs2005/docdrive/internal/server/models"
)

// Repository issues, looks up and revokes refresh tokens. Implementations
// key rows by Digest(token) and never store the raw token.
type Repository interface {
	// Create stores a new refresh token for userID with an expiry of now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find returns common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete is a no-op for unknown tokens.
	Delete(ctx context.Context, token string) error

	// DeleteByUser revokes every token of userID, e.g. after a password change.
	DeleteByUser(ctx context.Context, userID string) error

	// DeleteExpired prunes the tokens of userID that expired before now.
	DeleteExpired(ctx context.Context, userID string, now time.Time) error
}

// Digest is the hex SHA-256 of token, the lookup key for stored tokens.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
