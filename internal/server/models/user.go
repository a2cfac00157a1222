package models

import (
	"strings"
	"time"
)

// User is an authenticated principal.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName derives a profile name from the email local part with the first
// letter upper-cased, e.g. "maria.lopez@x.com" -> "Maria.lopez".
func (u *User) DisplayName() string {
	local, _, _ := strings.Cut(u.Email, "@")
	if local == "" {
		return ""
	}
	return strings.ToUpper(local[:1]) + strings.ToLower(local[1:])
}
