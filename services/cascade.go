package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/dizmorall/srdhub/models"
)

// Cascade removes records together with everything that depends on them.
// Each operation runs in one transaction and reports how many comment rows
// it removed. Storage failures roll back and surface as ErrDeletionFailed.
type Cascade struct {
	db *gorm.DB
}

// NewCascade creates a Cascade.
func NewCascade(db *gorm.DB) *Cascade {
	return &Cascade{db: db}
}

// DeletePost removes a post and every comment attached to it.
func (c *Cascade) DeletePost(ctx context.Context, postID uint) (int64, error) {
	return c.run(ctx, fmt.Sprintf("delete post %d", postID), func(tx *gorm.DB) (int64, error) {
		res := tx.Where("post_id = ?", postID).Delete(&models.Comment{})
		if res.Error != nil {
			return 0, res.Error
		}
		removed := res.RowsAffected
		res = tx.Delete(&models.Post{}, postID)
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 0 {
			return 0, ErrNotFound
		}
		return removed, nil
	})
}

// DeleteComment removes a comment and all of its replies.
func (c *Cascade) DeleteComment(ctx context.Context, commentID uint) (int64, error) {
	return c.run(ctx, fmt.Sprintf("delete comment %d", commentID), func(tx *gorm.DB) (int64, error) {
		replies, err := collectReplies(tx, []uint{commentID})
		if err != nil {
			return 0, err
		}
		res := tx.Delete(&models.Comment{}, commentID)
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 0 {
			return 0, ErrNotFound
		}
		n, err := deleteComments(tx, replies)
		if err != nil {
			return 0, err
		}
		return res.RowsAffected + n, nil
	})
}

// DeleteUser removes a user, their posts (with all comments on them) and
// every remaining comment they wrote, including replies to those comments.
// It also returns every target whose thread changed, the deleted posts included.
func (c *Cascade) DeleteUser(ctx context.Context, userID uint) (int64, []models.Target, error) {
	var touched []models.Target
	removed, err := c.run(ctx, fmt.Sprintf("delete user %d", userID), func(tx *gorm.DB) (int64, error) {
		var removed int64
		touched = touched[:0]
		seen := map[string]struct{}{}
		touch := func(t models.Target) {
			if _, ok := seen[t.Key()]; !ok {
				seen[t.Key()] = struct{}{}
				touched = append(touched, t)
			}
		}

		var postIDs []uint
		if err := tx.Model(&models.Post{}).Where("user_id = ?", userID).Order("id").Pluck("id", &postIDs).Error; err != nil {
			return 0, err
		}
		if len(postIDs) > 0 {
			res := tx.Where("post_id IN ?", postIDs).Delete(&models.Comment{})
			if res.Error != nil {
				return 0, res.Error
			}
			removed += res.RowsAffected
			if err := tx.Where("id IN ?", postIDs).Delete(&models.Post{}).Error; err != nil {
				return 0, err
			}
			for _, id := range postIDs {
				touch(models.PostTarget(id))
			}
		}

		// replies share the target of their parent
		var own []models.Comment
		if err := tx.Select("id", "post_id", "page_kind", "page_slug").
			Where("user_id = ?", userID).Order("id").Find(&own).Error; err != nil {
			return 0, err
		}
		ownIDs := make([]uint, 0, len(own))
		for i := range own {
			ownIDs = append(ownIDs, own[i].ID)
			touch(own[i].Target())
		}
		replies, err := collectReplies(tx, ownIDs)
		if err != nil {
			return 0, err
		}
		n, err := deleteComments(tx, append(ownIDs, replies...))
		if err != nil {
			return 0, err
		}
		removed += n

		res := tx.Delete(&models.User{}, userID)
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 0 {
			return 0, ErrNotFound
		}
		return removed, nil
	})
	if err != nil {
		return 0, nil, err
	}
	return removed, touched, nil
}

func (c *Cascade) run(ctx context.Context, op string, fn func(tx *gorm.DB) (int64, error)) (int64, error) {
	var removed int64
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := fn(tx)
		removed = n
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		return 0, fmt.Errorf("%s: %w: %w", op, ErrDeletionFailed, err)
	}
	return removed, nil
}

// collectReplies walks the reply tree one level per query and returns every
// descendant id of roots (roots excluded).
func collectReplies(tx *gorm.DB, roots []uint) ([]uint, error) {
	seen := make(map[uint]struct{}, len(roots))
	for _, id := range roots {
		seen[id] = struct{}{}
	}
	var out []uint
	frontier := roots
	for len(frontier) > 0 {
		var children []uint
		if err := tx.Model(&models.Comment{}).Where("parent_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
			return nil, err
		}
		frontier = frontier[:0:0]
		for _, id := range children {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
			frontier = append(frontier, id)
		}
	}
	return out, nil
}

func deleteComments(tx *gorm.DB, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := tx.Where("id IN ?", ids).Delete(&models.Comment{})
	return res.RowsAffected, res.Error
}
