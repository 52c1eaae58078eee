package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dizmorall/srdhub/models"
	"github.com/dizmorall/srdhub/services"
	"github.com/dizmorall/srdhub/utils"
)

// StatsController provides forum statistics such as counts and daily page views.
type StatsController struct {
	db       *gorm.DB
	comments *services.CommentStore
	resolver *services.TargetResolver
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB, comments *services.CommentStore, resolver *services.TargetResolver) *StatsController {
	return &StatsController{db: db, comments: comments, resolver: resolver}
}

// GetStats returns aggregate statistics for the forum.
func (s *StatsController) GetStats(ctx *gin.Context) {
	db := s.db.WithContext(ctx.Request.Context())
	count := func(model interface{}) int64 {
		var n int64
		if err := db.Model(model).Count(&n).Error; err != nil {
			// a broken counter should not fail the whole endpoint
			utils.Logger.Warn("stats count", zap.Error(err))
		}
		return n
	}

	var todayViews int64
	if err := db.Model(&models.PageView{}).
		Where("day = ?", models.ViewDay(time.Now())).
		Select("COALESCE(SUM(count),0)").
		Scan(&todayViews).Error; err != nil {
		utils.Logger.Warn("stats page views", zap.Error(err))
	}

	utils.Success(ctx, gin.H{
		"user_count":       count(&models.User{}),
		"post_count":       count(&models.Post{}),
		"comment_count":    count(&models.Comment{}),
		"today_page_views": todayViews,
	})
}

// GetTargetStats returns page views and comment count for /targets/:kind/:ref.
func (s *StatsController) GetTargetStats(ctx *gin.Context) {
	target, err := s.resolver.Resolve(ctx.Request.Context(), ctx.Param("kind"), ctx.Param("ref"))
	if err != nil {
		writeServiceError(ctx, "resolve target", err)
		return
	}
	s.writeTargetStats(ctx, target)
}

// GetPostStats returns page views and comment count for a post.
func (s *StatsController) GetPostStats(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	target, err := s.resolver.ResolvePost(ctx.Request.Context(), id)
	if err != nil {
		writeServiceError(ctx, "resolve post", err)
		return
	}
	s.writeTargetStats(ctx, target)
}

func (s *StatsController) writeTargetStats(ctx *gin.Context, target models.Target) {
	var views int64
	if err := s.db.WithContext(ctx.Request.Context()).Model(&models.PageView{}).
		Where("target_key = ?", target.Key()).
		Select("COALESCE(SUM(count),0)").
		Scan(&views).Error; err != nil {
		utils.Logger.Warn("target page views", zap.String("target", target.Key()), zap.Error(err))
	}

	comments, err := s.comments.CountForTarget(ctx.Request.Context(), target)
	if err != nil {
		writeServiceError(ctx, "count comments", err)
		return
	}
	utils.Success(ctx, gin.H{"target": target, "pv": views, "comments_count": comments})
}
