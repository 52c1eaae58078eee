package services

import "github.com/dizmorall/srdhub/models"

// Actor is the identity performing an operation. The zero value is anonymous.
type Actor struct {
	ID       uint
	Username string
	Role     models.Role
}

// Anonymous reports whether the actor is not logged in.
func (a Actor) Anonymous() bool { return a.ID == 0 }

// IsStaff reports whether the actor moderates content.
func (a Actor) IsStaff() bool {
	return !a.Anonymous() && (a.Role == models.RoleModerator || a.Role == models.RoleAdmin)
}

// IsAdmin reports whether the actor is an administrator.
func (a Actor) IsAdmin() bool { return !a.Anonymous() && a.Role == models.RoleAdmin }

// Owned is implemented by records with a single author.
type Owned interface {
	AuthorID() uint
}

// CanDelete allows the author of a post or comment, or any moderator or admin.
func CanDelete(actor Actor, resource Owned) bool {
	if actor.Anonymous() {
		return false
	}
	return actor.ID == resource.AuthorID() || actor.IsStaff()
}

// CanEditPost allows only the author.
func CanEditPost(actor Actor, post *models.Post) bool {
	return !actor.Anonymous() && actor.ID == post.UserID
}

// CanDeleteUser allows admins to delete accounts other than their own.
func CanDeleteUser(actor Actor, targetID uint) bool {
	return actor.IsAdmin() && actor.ID != targetID
}

// CanChangeRole follows the same rule as CanDeleteUser so an admin cannot demote itself.
func CanChangeRole(actor Actor, targetID uint) bool {
	return CanDeleteUser(actor, targetID)
}

// CanManageUsers gates the user administration listing and creation.
func CanManageUsers(actor Actor) bool { return actor.IsAdmin() }
