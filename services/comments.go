package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dizmorall/srdhub/models"
	"github.com/dizmorall/srdhub/utils"
)

// MaxCommentLength is the longest accepted comment body, in characters.
const MaxCommentLength = 5000

// DeletionReport describes what a delete removed.
type DeletionReport struct {
	Target  models.Target `json:"target"`
	Removed int64         `json:"removed_comments"`
}

// CommentStore creates, lists and deletes comments.
type CommentStore struct {
	db      *gorm.DB
	cascade *Cascade
	now     func() time.Time
}

// NewCommentStore creates a CommentStore.
func NewCommentStore(db *gorm.DB, cascade *Cascade) *CommentStore {
	return &CommentStore{db: db, cascade: cascade, now: time.Now}
}

// CreateComment stores a comment on target. When parentID is set the parent
// must be a top-level comment on the same target; the check and the insert
// share one transaction.
func (s *CommentStore) CreateComment(ctx context.Context, author Actor, target models.Target, body string, parentID *uint) (*models.Comment, error) {
	if author.Anonymous() {
		return nil, fmt.Errorf("create comment: %w", ErrForbidden)
	}
	content, err := cleanBody(body, MaxCommentLength)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	comment := &models.Comment{
		UserID:    author.ID,
		Content:   content,
		ParentID:  parentID,
		CreatedAt: s.now(),
	}
	comment.SetTarget(target)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if target.Kind == models.KindPost {
			if err := checkPost(tx, target.PostID); err != nil {
				return err
			}
		}
		if parentID != nil {
			if err := checkParent(tx, *parentID, target); err != nil {
				return err
			}
		}
		return tx.Omit(clause.Associations).Create(comment).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create comment on %s: %w", target, err)
	}
	depth := "0"
	if parentID != nil {
		depth = "1"
	}
	utils.CommentsCreated.WithLabelValues(string(target.Kind), depth).Inc()

	if err := s.db.WithContext(ctx).First(&comment.User, author.ID).Error; err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("load comment author: %w", err)
	}
	return comment, nil
}

// GetComment loads a single comment with its author.
func (s *CommentStore) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).Preload("User").First(&c, id).Error; err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("comment %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load comment %d: %w", id, err)
	}
	return &c, nil
}

// DeleteComment removes a comment and its replies if actor may delete it.
func (s *CommentStore) DeleteComment(ctx context.Context, actor Actor, id uint) (DeletionReport, error) {
	var c models.Comment
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if isNotFound(err) {
			return DeletionReport{}, fmt.Errorf("comment %d: %w", id, ErrNotFound)
		}
		return DeletionReport{}, fmt.Errorf("load comment %d: %w", id, err)
	}
	if !CanDelete(actor, &c) {
		return DeletionReport{}, fmt.Errorf("delete comment %d: %w", id, ErrForbidden)
	}
	n, err := s.cascade.DeleteComment(ctx, id)
	if err != nil {
		return DeletionReport{}, err
	}
	utils.CommentsDeleted.WithLabelValues("comment").Add(float64(n))
	return DeletionReport{Target: c.Target(), Removed: n}, nil
}

// ListCommentsForTarget returns every comment on target, oldest first.
func (s *CommentStore) ListCommentsForTarget(ctx context.Context, target models.Target) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Scopes(target.Scope()).
		Preload("User").
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments on %s: %w", target, err)
	}
	return comments, nil
}

// CountForTarget returns the number of comments on target.
func (s *CommentStore) CountForTarget(ctx context.Context, target models.Target) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Comment{}).Scopes(target.Scope()).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count comments on %s: %w", target, err)
	}
	return n, nil
}

// shareLocked reads rows FOR SHARE on MySQL so a concurrent cascade cannot
// remove them before the insert commits. SQLite has a single writer.
func shareLocked(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "SHARE"})
	}
	return tx
}

func checkPost(tx *gorm.DB, postID uint) error {
	var n int64
	if err := shareLocked(tx).Model(&models.Post{}).Where("id = ?", postID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}
	return nil
}

func checkParent(tx *gorm.DB, parentID uint, target models.Target) error {
	q := shareLocked(tx)
	var parent models.Comment
	if err := q.First(&parent, parentID).Error; err != nil {
		if isNotFound(err) {
			return fmt.Errorf("parent %d does not exist: %w", parentID, ErrInvalidParent)
		}
		return err
	}
	if !parent.Target().Equal(target) {
		return fmt.Errorf("parent %d belongs to %s: %w", parentID, parent.Target(), ErrInvalidParent)
	}
	if parent.ParentID != nil {
		return fmt.Errorf("parent %d is already a reply: %w", parentID, ErrInvalidParent)
	}
	return nil
}

// cleanBody trims, length-checks and sanitizes user supplied text.
func cleanBody(body string, limit int) (string, error) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return "", fmt.Errorf("body is empty: %w", ErrValidationFailed)
	}
	if n := utf8.RuneCountInString(trimmed); n > limit {
		return "", fmt.Errorf("body has %d characters, limit is %d: %w", n, limit, ErrValidationFailed)
	}
	content := strings.TrimSpace(utils.Sanitize(trimmed))
	if content == "" {
		return "", fmt.Errorf("body is empty after sanitizing: %w", ErrValidationFailed)
	}
	// escaping can grow the text; the limit holds for what is stored
	if n := utf8.RuneCountInString(content); n > limit {
		return "", fmt.Errorf("body has %d characters once escaped, limit is %d: %w", n, limit, ErrValidationFailed)
	}
	return content, nil
}
