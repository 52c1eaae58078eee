package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dizmorall/srdhub/middleware"
	"github.com/dizmorall/srdhub/models"
	"github.com/dizmorall/srdhub/services"
	"github.com/dizmorall/srdhub/utils"
)

// PostController manages forum posts and the comment threads attached to them.
type PostController struct {
	posts    *services.PostService
	comments *services.CommentStore
	threads  *services.ThreadAssembler
	resolver *services.TargetResolver
}

// NewPostController creates a new PostController instance.
func NewPostController(posts *services.PostService, comments *services.CommentStore, threads *services.ThreadAssembler, resolver *services.TargetResolver) *PostController {
	return &PostController{posts: posts, comments: comments, threads: threads, resolver: resolver}
}

type postRequest struct {
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content" binding:"required"`
	Category string `json:"category"`
}

func (r postRequest) input() services.PostInput {
	return services.PostInput{Title: r.Title, Content: r.Content, Category: r.Category}
}

// CreatePost allows authenticated users to create new posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	post, err := p.posts.Create(ctx.Request.Context(), middleware.CurrentActor(ctx), req.input())
	if err != nil {
		writeServiceError(ctx, "create post", err)
		return
	}

	utils.InvalidateByPrefix(cachePostListPrefix)
	utils.InvalidateByPrefix(userPostsCachePrefix(post.UserID))
	utils.Success(ctx, gin.H{"post": post})
}

// ListPosts returns paginated posts, optionally filtered by category or search term.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	search := strings.TrimSpace(ctx.Query("search"))
	category := strings.TrimSpace(ctx.Query("category"))

	// search results are not cached to keep the key space bounded
	cacheKey := fmt.Sprintf("%scat=%s:page=%d:size=%d", cachePostListPrefix, category, page, pageSize)
	if search == "" && serveCached(ctx, cacheKey) {
		return
	}

	posts, total, err := p.posts.List(ctx.Request.Context(), services.PostQuery{
		Page:     page,
		PageSize: pageSize,
		Category: category,
		Search:   search,
	})
	if err != nil {
		writeServiceError(ctx, "list posts", err)
		return
	}

	payload := gin.H{"items": posts, "pagination": pagination(page, pageSize, total)}
	if search == "" {
		successCached(ctx, cacheKey, payload)
		return
	}
	utils.Success(ctx, payload)
}

// GetPost returns a post together with its assembled comment thread.
func (p *PostController) GetPost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	middleware.MarkViewed(ctx, models.PostTarget(id))
	key := postDetailCacheKey(id)
	if serveCached(ctx, key) {
		return
	}

	post, err := p.posts.Get(ctx.Request.Context(), id)
	if err != nil {
		writeServiceError(ctx, "get post", err)
		return
	}
	thread, err := p.threads.AssembleThread(ctx.Request.Context(), models.PostTarget(id))
	if err != nil {
		writeServiceError(ctx, "assemble post thread", err)
		return
	}
	successCached(ctx, key, gin.H{"post": post, "thread": thread})
}

// ListMyPosts returns posts created by the authenticated user.
func (p *PostController) ListMyPosts(ctx *gin.Context) {
	p.listByAuthor(ctx, middleware.CurrentActor(ctx).ID, false)
}

// ListUserPosts returns posts created by a specific user.
func (p *PostController) ListUserPosts(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	p.listByAuthor(ctx, id, true)
}

func (p *PostController) listByAuthor(ctx *gin.Context, userID uint, cache bool) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	cacheKey := fmt.Sprintf("%spage=%d:size=%d", userPostsCachePrefix(userID), page, pageSize)
	if cache && serveCached(ctx, cacheKey) {
		return
	}
	posts, total, err := p.posts.List(ctx.Request.Context(), services.PostQuery{Page: page, PageSize: pageSize, UserID: userID})
	if err != nil {
		writeServiceError(ctx, "list user posts", err)
		return
	}
	payload := gin.H{"items": posts, "pagination": pagination(page, pageSize, total)}
	if cache {
		successCached(ctx, cacheKey, payload)
		return
	}
	utils.Success(ctx, payload)
}

// UpdatePost allows the author to update their post.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	post, err := p.posts.Update(ctx.Request.Context(), middleware.CurrentActor(ctx), id, req.input())
	if err != nil {
		writeServiceError(ctx, "update post", err)
		return
	}

	utils.CacheDelete(postDetailCacheKey(id))
	utils.InvalidateByPrefix(cachePostListPrefix)
	utils.InvalidateByPrefix(userPostsCachePrefix(post.UserID))
	utils.Success(ctx, gin.H{"post": post})
}

// DeletePost removes a post with all of its comments. Authors, moderators
// and admins may delete.
func (p *PostController) DeletePost(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	post, err := p.posts.Get(ctx.Request.Context(), id)
	if err != nil {
		writeServiceError(ctx, "delete post", err)
		return
	}
	report, err := p.posts.Delete(ctx.Request.Context(), middleware.CurrentActor(ctx), id)
	if err != nil {
		writeServiceError(ctx, "delete post", err)
		return
	}

	invalidateTarget(report.Target)
	utils.InvalidateByPrefix(cachePostListPrefix)
	utils.InvalidateByPrefix(userPostsCachePrefix(post.UserID))
	utils.Success(ctx, gin.H{"message": "post deleted", "removed_comments": report.Removed})
}

// ListComments returns the thread of a post.
func (p *PostController) ListComments(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	target, err := p.resolver.ResolvePost(ctx.Request.Context(), id)
	if err != nil {
		writeServiceError(ctx, "resolve post", err)
		return
	}
	serveThread(ctx, p.threads, target)
}

// CreateComment adds a comment or reply to a post.
func (p *PostController) CreateComment(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	target, err := p.resolver.ResolvePost(ctx.Request.Context(), id)
	if err != nil {
		writeServiceError(ctx, "resolve post", err)
		return
	}
	createComment(ctx, p.comments, target)
}
