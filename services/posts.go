package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dizmorall/srdhub/models"
	"github.com/dizmorall/srdhub/utils"
)

const (
	maxTitleLength  = 255
	maxPostLength   = 20000
	defaultPageSize = 10
	maxPageSize     = 100
)

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title    string
	Content  string
	Category string
}

// PostQuery filters post listings. Zero values mean "any".
type PostQuery struct {
	Page     int
	PageSize int
	Category string
	Search   string
	UserID   uint
}

// PostService manages forum posts.
type PostService struct {
	db      *gorm.DB
	cascade *Cascade
}

// NewPostService creates a PostService.
func NewPostService(db *gorm.DB, cascade *Cascade) *PostService {
	return &PostService{db: db, cascade: cascade}
}

// Create stores a new post authored by actor.
func (s *PostService) Create(ctx context.Context, author Actor, in PostInput) (*models.Post, error) {
	if author.Anonymous() {
		return nil, fmt.Errorf("create post: %w", ErrForbidden)
	}
	post := &models.Post{UserID: author.ID}
	if err := applyPostInput(post, in); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	utils.PostsCreated.WithLabelValues(post.Category).Inc()
	return s.Get(ctx, post.ID)
}

// Get loads a post with its author.
func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Preload("User").First(&post, id).Error; err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("post %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("load post %d: %w", id, err)
	}
	return &post, nil
}

// List returns one page of posts, newest first, and the total match count.
func (s *PostService) List(ctx context.Context, q PostQuery) ([]models.Post, int64, error) {
	page, size := normalizePage(q.Page, q.PageSize)
	query := s.db.WithContext(ctx).Model(&models.Post{})
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if q.UserID != 0 {
		query = query.Where("user_id = ?", q.UserID)
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("title LIKE ? OR content LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}
	var posts []models.Post
	err := query.Preload("User").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&posts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	return posts, total, nil
}

// Update rewrites a post. Only the author may edit.
func (s *PostService) Update(ctx context.Context, actor Actor, id uint, in PostInput) (*models.Post, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanEditPost(actor, post) {
		return nil, fmt.Errorf("update post %d: %w", id, ErrForbidden)
	}
	if err := applyPostInput(post, in); err != nil {
		return nil, fmt.Errorf("update post %d: %w", id, err)
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(post).Error; err != nil {
		return nil, fmt.Errorf("update post %d: %w", id, err)
	}
	return post, nil
}

// Delete removes a post and its comments if actor may delete it.
func (s *PostService) Delete(ctx context.Context, actor Actor, id uint) (DeletionReport, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if isNotFound(err) {
			return DeletionReport{}, fmt.Errorf("post %d: %w", id, ErrNotFound)
		}
		return DeletionReport{}, fmt.Errorf("load post %d: %w", id, err)
	}
	if !CanDelete(actor, &post) {
		return DeletionReport{}, fmt.Errorf("delete post %d: %w", id, ErrForbidden)
	}
	n, err := s.cascade.DeletePost(ctx, id)
	if err != nil {
		return DeletionReport{}, err
	}
	utils.CommentsDeleted.WithLabelValues("post").Add(float64(n))
	return DeletionReport{Target: models.PostTarget(id), Removed: n}, nil
}

func applyPostInput(post *models.Post, in PostInput) error {
	title := strings.TrimSpace(utils.SanitizePlain(strings.TrimSpace(in.Title)))
	if title == "" {
		return fmt.Errorf("title is empty: %w", ErrValidationFailed)
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return fmt.Errorf("title longer than %d characters: %w", maxTitleLength, ErrValidationFailed)
	}
	content, err := cleanBody(in.Content, maxPostLength)
	if err != nil {
		return err
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = models.CategoryGeneral
	}
	if !models.ValidCategory(category) {
		return fmt.Errorf("category %q: %w", category, ErrValidationFailed)
	}
	post.Title = title
	post.Content = content
	post.Category = category
	return nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > maxPageSize {
		size = defaultPageSize
	}
	return page, size
}
