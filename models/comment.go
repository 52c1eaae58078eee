package models

import "time"

// Comment is attached to exactly one target: a post (PostID) or a reference
// page (PageKind + PageSlug). ParentID links a reply to its top-level comment.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	PostID    *uint     `gorm:"index;check:chk_comments_target,(post_id IS NULL) <> (page_kind IS NULL)" json:"post_id,omitempty"`
	PageKind  *string   `gorm:"size:32;index:idx_comments_page" json:"page_kind,omitempty"`
	PageSlug  *string   `gorm:"size:128;index:idx_comments_page" json:"page_slug,omitempty"`
	ParentID  *uint     `gorm:"index" json:"parent_id,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	User      User      `json:"author"`
}

// AuthorID returns the owning user id.
func (c *Comment) AuthorID() uint { return c.UserID }

// Target returns the attachment point stored on the row.
func (c *Comment) Target() Target {
	if c.PostID != nil {
		return PostTarget(*c.PostID)
	}
	var kind, slug string
	if c.PageKind != nil {
		kind = *c.PageKind
	}
	if c.PageSlug != nil {
		slug = *c.PageSlug
	}
	return PageTarget(TargetKind(kind), slug)
}

// SetTarget writes t onto the attachment columns, clearing the other variant.
func (c *Comment) SetTarget(t Target) {
	if t.Kind == KindPost {
		id := t.PostID
		c.PostID = &id
		c.PageKind, c.PageSlug = nil, nil
		return
	}
	kind, slug := string(t.Kind), t.Slug
	c.PostID = nil
	c.PageKind, c.PageSlug = &kind, &slug
}
