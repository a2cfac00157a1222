// Package access implements the authorization matrix. Every function is pure:
// callers load the caller, its admin associations and the target first, check
// existence themselves (not found wins over forbidden) and then ask here.
package access

import (
	"github.com/dmitrijs2005/docdrive/internal/common"
	"github.com/dmitrijs2005/docdrive/internal/server/models"
)

// CanReadFile covers reading metadata, downloading, and reading or creating
// comments and their history. Staff read everything; plain users only files
// owned by admins they are associated with.
func CanReadFile(caller *models.User, assoc models.AdminSet, file *models.File) bool {
	if caller == nil || file == nil {
		return false
	}
	return caller.Role.IsStaff() || assoc.Has(file.OwnerAdminID)
}

// CanDeleteFile allows the uploader and any staff member.
func CanDeleteFile(caller *models.User, file *models.File) bool {
	if caller == nil || file == nil {
		return false
	}
	return caller.Role.IsStaff() || file.UploadedByUserID == caller.ID
}

// CanUpdateComment allows the author only.
func CanUpdateComment(caller *models.User, comment *models.Comment) bool {
	if caller == nil || comment == nil {
		return false
	}
	return comment.UserID == caller.ID
}

// CanDeleteComment allows the author and any staff member.
func CanDeleteComment(caller *models.User, comment *models.Comment) bool {
	if caller == nil || comment == nil {
		return false
	}
	return caller.Role.IsStaff() || comment.UserID == caller.ID
}

func CanUploadTo(caller *models.User, assoc models.AdminSet, admin *models.AdminProfile) bool {
	if caller == nil || admin == nil {
		return false
	}
	return assoc.Has(admin.ID) || admin.UserID == caller.ID
}

// CanManageCredentials restricts credential and folder changes to the staff
// member owning the profile.
func CanManageCredentials(caller *models.User, admin *models.AdminProfile) bool {
	if caller == nil || admin == nil {
		return false
	}
	return caller.Role.IsStaff() && admin.UserID == caller.ID
}

// CanAssociate allows a superadmin to link users to any profile and an admin
// to link users to its own profile.
func CanAssociate(caller *models.User, admin *models.AdminProfile) bool {
	if caller == nil || admin == nil {
		return false
	}
	switch caller.Role {
	case models.RoleSuperadmin:
		return true
	case models.RoleAdmin:
		return admin.UserID == caller.ID
	}
	return false
}

// CanChangeRole returns nil when caller may set target's role.
// Changing one's own role is always rejected with common.ErrSelfRoleChange,
// whatever the requested value.
func CanChangeRole(caller, target *models.User) error {
	if caller == nil || target == nil || caller.Role != models.RoleSuperadmin {
		return common.ErrorForbidden
	}
	if caller.ID == target.ID {
		return common.ErrSelfRoleChange
	}
	return nil
}

// CanCreateWithRole reports whether caller may create an account with role.
func CanCreateWithRole(caller *models.User, role models.Role) bool {
	if caller == nil || !caller.Role.IsStaff() {
		return false
	}
	if role.IsStaff() {
		return caller.Role == models.RoleSuperadmin
	}
	return true
}

// CanDeleteUser allows a superadmin to delete anyone but itself and an admin
// to delete plain users.
func CanDeleteUser(caller, target *models.User) bool {
	if caller == nil || target == nil || caller.ID == target.ID {
		return false
	}
	switch caller.Role {
	case models.RoleSuperadmin:
		return true
	case models.RoleAdmin:
		return target.Role == models.RoleUser
	}
	return false
}

// CanUpdateUser allows staff to edit plain users and themselves. Only a
// superadmin edits other staff accounts.
func CanUpdateUser(caller, target *models.User) bool {
	if caller == nil || target == nil || !caller.Role.IsStaff() {
		return false
	}
	if caller.Role == models.RoleSuperadmin || caller.ID == target.ID {
		return true
	}
	return target.Role == models.RoleUser
}

// IsSuperadmin gates superadmin-only operations.
func IsSuperadmin(caller *models.User) bool {
	return caller != nil && caller.Role == models.RoleSuperadmin
}

// IsStaff gates admin-or-above operations.
func IsStaff(caller *models.User) bool {
	return caller != nil && caller.Role.IsStaff()
}

// FilterFiles drops the files caller may not read, keeping order.
func FilterFiles(caller *models.User, assoc models.AdminSet, files []*models.File) []*models.File {
	out := make([]*models.File, 0, len(files))
	for _, f := range files {
		if CanReadFile(caller, assoc, f) {
			out = append(out, f)
		}
	}
	return out
}
