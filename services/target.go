package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/dizmorall/srdhub/models"
	"github.com/dizmorall/srdhub/srd"
)

// PageCatalog answers whether a reference page exists.
type PageCatalog interface {
	Has(kind models.TargetKind, slug string) bool
}

// TargetResolver validates target descriptors coming from requests.
type TargetResolver struct {
	db    *gorm.DB
	pages PageCatalog
}

// NewTargetResolver creates a TargetResolver.
func NewTargetResolver(db *gorm.DB, pages PageCatalog) *TargetResolver {
	return &TargetResolver{db: db, pages: pages}
}

// Resolve turns (kind, ref) into a canonical target. ref is a post id for
// kind "post" and a page slug otherwise.
func (r *TargetResolver) Resolve(ctx context.Context, kind, ref string) (models.Target, error) {
	k := models.TargetKind(strings.ToLower(strings.TrimSpace(kind)))
	switch {
	case k == models.KindPost:
		id, err := strconv.ParseUint(strings.TrimSpace(ref), 10, 64)
		if err != nil || id == 0 {
			return models.Target{}, fmt.Errorf("post %q: %w", ref, ErrNotFound)
		}
		return r.ResolvePost(ctx, uint(id))
	case k.IsPage():
		slug := srd.NormalizeSlug(ref)
		if slug == "" || !r.pages.Has(k, slug) {
			return models.Target{}, fmt.Errorf("%s %q: %w", k, ref, ErrNotFound)
		}
		return models.PageTarget(k, slug), nil
	default:
		return models.Target{}, fmt.Errorf("target kind %q: %w", kind, ErrNotFound)
	}
}

// ResolvePost checks that the post exists.
func (r *TargetResolver) ResolvePost(ctx context.Context, id uint) (models.Target, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return models.Target{}, fmt.Errorf("lookup post %d: %w", id, err)
	}
	if count == 0 {
		return models.Target{}, fmt.Errorf("post %d: %w", id, ErrNotFound)
	}
	return models.PostTarget(id), nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
