package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dizmorall/srdhub/middleware"
	"github.com/dizmorall/srdhub/models"
	"github.com/dizmorall/srdhub/services"
	"github.com/dizmorall/srdhub/utils"
)

// CommentController exposes comment threads for any target kind.
type CommentController struct {
	comments *services.CommentStore
	threads  *services.ThreadAssembler
	resolver *services.TargetResolver
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(comments *services.CommentStore, threads *services.ThreadAssembler, resolver *services.TargetResolver) *CommentController {
	return &CommentController{comments: comments, threads: threads, resolver: resolver}
}

type commentRequest struct {
	Content  string `json:"content" binding:"required"`
	ParentID *uint  `json:"parent_id"`
}

// ListTargetComments returns the thread of /targets/:kind/:ref.
func (c *CommentController) ListTargetComments(ctx *gin.Context) {
	target, err := c.resolver.Resolve(ctx.Request.Context(), ctx.Param("kind"), ctx.Param("ref"))
	if err != nil {
		writeServiceError(ctx, "resolve target", err)
		return
	}
	serveThread(ctx, c.threads, target)
}

// CreateTargetComment comments on /targets/:kind/:ref.
func (c *CommentController) CreateTargetComment(ctx *gin.Context) {
	target, err := c.resolver.Resolve(ctx.Request.Context(), ctx.Param("kind"), ctx.Param("ref"))
	if err != nil {
		writeServiceError(ctx, "resolve target", err)
		return
	}
	createComment(ctx, c.comments, target)
}

// DeleteComment removes a comment and its replies. Authors, moderators and
// admins may delete.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	id, ok := parseID(ctx, "commentId")
	if !ok {
		return
	}
	report, err := c.comments.DeleteComment(ctx.Request.Context(), middleware.CurrentActor(ctx), id)
	if err != nil {
		writeServiceError(ctx, "delete comment", err)
		return
	}
	invalidateTarget(report.Target)
	utils.Success(ctx, gin.H{"message": "comment deleted", "target": report.Target, "removed_comments": report.Removed})
}

func serveThread(ctx *gin.Context, threads *services.ThreadAssembler, target models.Target) {
	key := threadCacheKey(target)
	if serveCached(ctx, key) {
		return
	}
	thread, err := threads.AssembleThread(ctx.Request.Context(), target)
	if err != nil {
		writeServiceError(ctx, "assemble thread", err)
		return
	}
	successCached(ctx, key, gin.H{"target": target, "thread": thread})
}

func createComment(ctx *gin.Context, comments *services.CommentStore, target models.Target) {
	var req commentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "invalid request payload")
		return
	}
	comment, err := comments.CreateComment(ctx.Request.Context(), middleware.CurrentActor(ctx), target, req.Content, req.ParentID)
	if err != nil {
		writeServiceError(ctx, "create comment", err)
		return
	}
	invalidateTarget(target)
	utils.Success(ctx, gin.H{"comment": comment})
}
