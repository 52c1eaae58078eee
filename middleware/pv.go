package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dizmorall/srdhub/models"
	"github.com/dizmorall/srdhub/utils"
)

// ContextViewedTargetKey holds the key of the target a handler served.
const ContextViewedTargetKey = "viewed_target"

// MarkViewed tags the request as a read of t. Only marked requests are counted.
func MarkViewed(ctx *gin.Context, t models.Target) {
	ctx.Set(ContextViewedTargetKey, t.Key())
}

// PageViewRecorder counts successful GETs of marked targets per day.
func PageViewRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodGet || c.Writer.Status() != http.StatusOK {
			return
		}
		key := c.GetString(ContextViewedTargetKey)
		if key == "" {
			return
		}

		now := time.Now()
		err := db.WithContext(c.Request.Context()).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "day"}, {Name: "target_key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1"), "updated_at": now}),
		}).Create(&models.PageView{Day: models.ViewDay(now), TargetKey: key, Count: 1}).Error
		if err != nil {
			utils.Logger.Warn("record page view", zap.String("target", key), zap.Error(err))
		}
	}
}
