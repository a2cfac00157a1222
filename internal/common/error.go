// Package common defines shared constants, helpers and sentinel errors used
// across the docdrive server. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
	ErrorConflict      = errors.New("conflict")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("incorrect email or password")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Role management.
	ErrSelfRoleChange = errors.New("cannot change your own role")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Throttling.
	ErrTooManyAttempts = errors.New("too many attempts")

	// Credential custody and remote drive errors.
	ErrCredentialIntegrity = errors.New("stored credentials cannot be decrypted")
	ErrDriveNotConfigured  = errors.New("drive credentials not configured")
	ErrFolderNotConfigured = errors.New("no folder ID configured")
	ErrRemoteProvider      = errors.New("remote storage provider error")
)

// ValidationError carries a human readable detail for a rejected input.
// It matches ErrorValidation with errors.Is.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string { return e.Detail }

func (e *ValidationError) Is(target error) bool { return target == ErrorValidation }

// NewValidationError builds a ValidationError with the given detail.
func NewValidationError(detail string) error {
	return &ValidationError{Detail: detail}
}
