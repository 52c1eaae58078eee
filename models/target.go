package models

import (
	"strconv"

	"gorm.io/gorm"
)

// TargetKind names what a comment can be attached to.
type TargetKind string

const (
	KindPost    TargetKind = "post"
	KindClass   TargetKind = "class"
	KindSpecies TargetKind = "species"
	KindSpell   TargetKind = "spell"
	KindMonster TargetKind = "monster"
)

// PageKinds are the reference page kinds that accept comments.
var PageKinds = []TargetKind{KindClass, KindSpecies, KindSpell, KindMonster}

// IsPage reports whether k is a reference page kind.
func (k TargetKind) IsPage() bool {
	for _, p := range PageKinds {
		if p == k {
			return true
		}
	}
	return false
}

// Target is the attachment point of a comment: a post id, or a page kind and slug.
type Target struct {
	Kind   TargetKind `json:"kind"`
	PostID uint       `json:"post_id,omitempty"`
	Slug   string     `json:"slug,omitempty"`
}

// PostTarget builds the target of a forum post.
func PostTarget(id uint) Target { return Target{Kind: KindPost, PostID: id} }

// PageTarget builds the target of a reference page.
func PageTarget(kind TargetKind, slug string) Target { return Target{Kind: kind, Slug: slug} }

// Equal compares the full variant.
func (t Target) Equal(o Target) bool {
	if t.Kind != o.Kind {
		return false
	}
	if t.Kind == KindPost {
		return t.PostID == o.PostID
	}
	return t.Slug == o.Slug
}

// Key renders the target as "post:12" or "spell:fireball".
func (t Target) Key() string {
	if t.Kind == KindPost {
		return string(t.Kind) + ":" + strconv.FormatUint(uint64(t.PostID), 10)
	}
	return string(t.Kind) + ":" + t.Slug
}

func (t Target) String() string { return t.Key() }

// Scope restricts a comments query to rows attached to t.
func (t Target) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if t.Kind == KindPost {
			return db.Where("post_id = ?", t.PostID)
		}
		return db.Where("page_kind = ? AND page_slug = ?", string(t.Kind), t.Slug)
	}
}
