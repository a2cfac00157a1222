package models

import (
	"fmt"

	"github.com/dmitrijs2005/docdrive/internal/common"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// ParseRole converts a stored or user supplied string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", common.ErrorValidation, s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// Rank orders roles: user < admin < superadmin. Unknown roles rank below user.
func (r Role) Rank() int {
	switch r {
	case RoleUser:
		return 1
	case RoleAdmin:
		return 2
	case RoleSuperadmin:
		return 3
	}
	return 0
}

func (r Role) AtLeast(other Role) bool { return r.Rank() >= other.Rank() && r.Valid() }

// IsStaff reports whether the role is admin or superadmin.
func (r Role) IsStaff() bool { return r == RoleAdmin || r == RoleSuperadmin }

func (r Role) String() string { return string(r) }
