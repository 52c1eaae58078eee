package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Role is the permission level of a user account.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User represents a forum user. Passwords are stored as bcrypt hashes only.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Username      string    `gorm:"size:64;not null" json:"username"`
	UsernameLower string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	PasswordHash  string    `gorm:"size:255" json:"-"`
	Role          Role      `gorm:"size:16;not null;default:'user'" json:"role"`
	AvatarURL     string    `gorm:"size:512" json:"avatar_url"`
	Signature     string    `gorm:"size:255" json:"signature"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Comments      []Comment `json:"-"`
	Posts         []Post    `json:"-"`
}

// BeforeCreate hook ensures timestamps, role and the case-folded username are set.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = RoleUser
	}
	u.UsernameLower = strings.ToLower(u.Username)
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	u.UsernameLower = strings.ToLower(u.Username)
	return nil
}
