package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/dizmorall/srdhub/config"
	"github.com/dizmorall/srdhub/models"
	"github.com/dizmorall/srdhub/utils"
)

// ConfigController serves configuration the web client needs.
type ConfigController struct{}

func NewConfigController() *ConfigController { return &ConfigController{} }

// GetNotice returns the announcement bar configured via config.
func (c *ConfigController) GetNotice(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"title": cfg.NoticeTitle,
		"html":  cfg.NoticeHTML,
	})
}

// GetCategories lists the post categories accepted by the forum.
func (c *ConfigController) GetCategories(ctx *gin.Context) {
	utils.Success(ctx, gin.H{"items": models.Categories})
}
