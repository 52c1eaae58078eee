package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/dizmorall/srdhub/models"
)

// ThreadNode is a top-level comment with its direct replies.
type ThreadNode struct {
	Comment models.Comment   `json:"comment"`
	Replies []models.Comment `json:"replies"`
}

// ThreadAssembler shapes the comments of a target into a two-level tree.
type ThreadAssembler struct {
	db *gorm.DB
}

// NewThreadAssembler creates a ThreadAssembler.
func NewThreadAssembler(db *gorm.DB) *ThreadAssembler {
	return &ThreadAssembler{db: db}
}

// AssembleThread loads the top-level comments of target and their replies,
// both oldest first, with one query per level.
func (a *ThreadAssembler) AssembleThread(ctx context.Context, target models.Target) ([]ThreadNode, error) {
	db := a.db.WithContext(ctx)

	var roots []models.Comment
	err := db.Scopes(target.Scope()).
		Where("parent_id IS NULL").
		Preload("User").
		Order("created_at ASC, id ASC").
		Find(&roots).Error
	if err != nil {
		return nil, fmt.Errorf("load comments on %s: %w", target, err)
	}
	nodes := make([]ThreadNode, 0, len(roots))
	if len(roots) == 0 {
		return nodes, nil
	}

	ids := make([]uint, len(roots))
	for i, c := range roots {
		ids[i] = c.ID
	}
	var replies []models.Comment
	err = db.Where("parent_id IN ?", ids).
		Preload("User").
		Order("created_at ASC, id ASC").
		Find(&replies).Error
	if err != nil {
		return nil, fmt.Errorf("load replies on %s: %w", target, err)
	}

	byParent := make(map[uint][]models.Comment, len(roots))
	for _, r := range replies {
		byParent[*r.ParentID] = append(byParent[*r.ParentID], r)
	}
	for _, c := range roots {
		rs := byParent[c.ID]
		if rs == nil {
			rs = []models.Comment{}
		}
		nodes = append(nodes, ThreadNode{Comment: c, Replies: rs})
	}
	return nodes, nil
}
