package models

import "time"

// Post categories accepted by the forum.
const (
	CategoryGeneral   = "general"
	CategoryRules     = "rules"
	CategoryHomebrew  = "homebrew"
	CategoryCampaigns = "campaigns"
	CategoryLFG       = "lfg"
	CategoryArt       = "art"
)

// Categories lists the valid post categories in display order.
var Categories = []string{CategoryGeneral, CategoryRules, CategoryHomebrew, CategoryCampaigns, CategoryLFG, CategoryArt}

// ValidCategory reports whether c is a known post category.
func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Post represents a forum post created by a user.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Category  string    `gorm:"size:32;default:'general'" json:"category"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `json:"author"`
	Comments  []Comment `json:"-"`
}

// AuthorID returns the owning user id.
func (p *Post) AuthorID() uint { return p.UserID }
