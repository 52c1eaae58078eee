package testutils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dizmorall/srdhub/models"
)

// CreateTestUser creates a user with a unique name.
func CreateTestUser(db *gorm.DB, opts ...UserOption) *models.User {
	u := &models.User{
		Username: "user_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12],
		Role:     models.RoleUser,
	}
	for _, opt := range opts {
		opt(u)
	}
	if err := db.Create(u).Error; err != nil {
		panic(fmt.Sprintf("create test user: %v", err))
	}
	return u
}

// UserOption configures a test user.
type UserOption func(*models.User)

// WithUsername sets the username.
func WithUsername(name string) UserOption {
	return func(u *models.User) { u.Username = name }
}

// WithRole sets the role.
func WithRole(role models.Role) UserOption {
	return func(u *models.User) { u.Role = role }
}

// WithPasswordHash sets the stored bcrypt hash.
func WithPasswordHash(hash string) UserOption {
	return func(u *models.User) { u.PasswordHash = hash }
}

// CreateTestPost creates a post owned by authorID.
func CreateTestPost(db *gorm.DB, authorID uint, opts ...PostOption) *models.Post {
	p := &models.Post{
		UserID:   authorID,
		Title:    "Test post " + uuid.NewString()[:8],
		Content:  "Test post content",
		Category: models.CategoryGeneral,
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := db.Omit("User").Create(p).Error; err != nil {
		panic(fmt.Sprintf("create test post: %v", err))
	}
	return p
}

// PostOption configures a test post.
type PostOption func(*models.Post)

// WithTitle sets the post title.
func WithTitle(title string) PostOption {
	return func(p *models.Post) { p.Title = title }
}

// WithCategory sets the post category.
func WithCategory(category string) PostOption {
	return func(p *models.Post) { p.Category = category }
}

// WithPostCreatedAt sets the creation time.
func WithPostCreatedAt(at time.Time) PostOption {
	return func(p *models.Post) { p.CreatedAt = at }
}

// CreateTestComment inserts a comment directly, bypassing validation.
func CreateTestComment(db *gorm.DB, authorID uint, target models.Target, opts ...CommentOption) *models.Comment {
	c := &models.Comment{
		UserID:    authorID,
		Content:   "Test comment",
		CreatedAt: time.Now().UTC(),
	}
	c.SetTarget(target)
	for _, opt := range opts {
		opt(c)
	}
	if err := db.Omit("User").Create(c).Error; err != nil {
		panic(fmt.Sprintf("create test comment: %v", err))
	}
	return c
}

// CommentOption configures a test comment.
type CommentOption func(*models.Comment)

// WithParent makes the comment a reply.
func WithParent(id uint) CommentOption {
	return func(c *models.Comment) { c.ParentID = &id }
}

// WithContent sets the body.
func WithContent(content string) CommentOption {
	return func(c *models.Comment) { c.Content = content }
}

// WithCreatedAt sets the creation time.
func WithCreatedAt(at time.Time) CommentOption {
	return func(c *models.Comment) { c.CreatedAt = at }
}
