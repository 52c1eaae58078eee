package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dizmorall/srdhub/models"
	"github.com/dizmorall/srdhub/services"
	"github.com/dizmorall/srdhub/utils"
)

const (
	cacheTTL = time.Hour

	cachePrefix         = "cache:"
	cachePostListPrefix = "cache:posts:list:"
)

// envelope mirrors utils.JSONResponse but always carries data, so cached
// bytes can be replayed verbatim.
type envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func threadCacheKey(t models.Target) string { return cachePrefix + "thread:" + t.Key() }

func postDetailCacheKey(id uint) string {
	return cachePrefix + "post:detail:" + strconv.FormatUint(uint64(id), 10)
}

func userPostsCachePrefix(id uint) string {
	return cachePrefix + "user:" + strconv.FormatUint(uint64(id), 10) + ":posts:"
}

// serveCached replays a cached envelope and reports whether it did.
func serveCached(ctx *gin.Context, key string) bool {
	b, ok := utils.CacheGetBytes(key)
	if !ok {
		return false
	}
	ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
	return true
}

// successCached responds with payload and stores the envelope under key.
func successCached(ctx *gin.Context, key string, payload interface{}) {
	utils.CacheSetJSON(key, envelope{Code: 0, Message: "success", Data: payload}, cacheTTL)
	utils.Success(ctx, payload)
}

// invalidateTarget drops cached views that embed the thread of t.
func invalidateTarget(t models.Target) {
	keys := []string{threadCacheKey(t)}
	if t.Kind == models.KindPost {
		keys = append(keys, postDetailCacheKey(t.PostID))
	}
	utils.CacheDelete(keys...)
}

// writeServiceError maps service errors to the HTTP status and business code.
// Unexpected errors are logged and hidden from the client.
func writeServiceError(ctx *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40400, err.Error())
	case errors.Is(err, services.ErrInvalidParent):
		utils.Error(ctx, http.StatusBadRequest, 40010, err.Error())
	case errors.Is(err, services.ErrValidationFailed):
		utils.Error(ctx, http.StatusBadRequest, 40011, err.Error())
	case errors.Is(err, services.ErrUnauthenticated):
		utils.Error(ctx, http.StatusUnauthorized, 40100, err.Error())
	case errors.Is(err, services.ErrForbidden):
		utils.Error(ctx, http.StatusForbidden, 40300, "permission denied")
	case errors.Is(err, services.ErrConflict):
		utils.Error(ctx, http.StatusConflict, 40900, err.Error())
	case errors.Is(err, services.ErrDeletionFailed):
		utils.ServiceErrors.Inc()
		utils.Logger.Error(op, zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50010, "deletion failed, nothing was removed")
	default:
		utils.ServiceErrors.Inc()
		utils.Logger.Error(op, zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50000, "internal error")
	}
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page := 1
	pageSize := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 && s <= 100 {
		pageSize = s
	}
	return page, pageSize
}

func pagination(page, pageSize int, total int64) gin.H {
	return gin.H{
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
}

// parseID reads a positive numeric path parameter.
func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(ctx.Param(name)), 10, 64)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
