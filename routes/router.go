package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dizmorall/srdhub/config"
	"github.com/dizmorall/srdhub/controllers"
	"github.com/dizmorall/srdhub/middleware"
	"github.com/dizmorall/srdhub/services"
	"github.com/dizmorall/srdhub/srd"
	"github.com/dizmorall/srdhub/utils"
)

const apiBase = "/api/v1"

// SetupRouter wires services, middlewares and controllers.
func SetupRouter(db *gorm.DB, catalog *srd.Catalog) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// access log and panics go to their own rolling file
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg)
	if err == nil {
		r.Use(ginzap.Ginzap(gl, time.RFC3339, true))
		r.Use(ginzap.RecoveryWithZap(gl, true))
	} else {
		utils.Logger.Warn("gin access log disabled", zap.String("path", cfg.GinPath), zap.Error(err))
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.PageViewRecorder(db))
	utils.UseMetrics(r, cfg.MetricsPath)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	cascade := services.NewCascade(db)
	resolver := services.NewTargetResolver(db, catalog)
	commentStore := services.NewCommentStore(db, cascade)
	threads := services.NewThreadAssembler(db)
	postService := services.NewPostService(db, cascade)
	userService := services.NewUserService(db, cascade, cfg.AdminUsernames)

	authController := controllers.NewAuthController(userService)
	postController := controllers.NewPostController(postService, commentStore, threads, resolver)
	commentController := controllers.NewCommentController(commentStore, threads, resolver)
	srdController := controllers.NewSRDController(catalog, threads)
	statsController := controllers.NewStatsController(db, commentStore, resolver)
	configController := controllers.NewConfigController()

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	authRequired := middleware.AuthRequired(userService)

	api := r.Group(apiBase)

	authGroup := api.Group("/auth")
	authGroup.Use(limiter.Middleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", authRequired, authController.Logout)
	authGroup.GET("/me", authRequired, authController.Me)
	authGroup.PATCH("/profile", authRequired, authController.UpdateProfile)

	api.GET("/posts", postController.ListPosts)
	api.GET("/posts/:id", postController.GetPost)
	api.GET("/posts/:id/comments", postController.ListComments)
	api.GET("/posts/:id/stats", statsController.GetPostStats)

	api.GET("/srd", srdController.ListKinds)
	api.GET("/srd/:kind", srdController.ListPages)
	api.GET("/srd/:kind/:slug", srdController.GetPage)

	api.GET("/targets/:kind/:ref/comments", commentController.ListTargetComments)
	api.GET("/targets/:kind/:ref/stats", statsController.GetTargetStats)

	api.GET("/stats", statsController.GetStats)
	api.GET("/config/notice", configController.GetNotice)
	api.GET("/config/categories", configController.GetCategories)

	api.GET("/users/:id", authController.GetUserPublic)
	api.GET("/users/:id/posts", postController.ListUserPosts)
	api.GET("/user/by-username/:username", authController.GetUserPublicByUsername)

	protected := api.Group("")
	protected.Use(authRequired, limiter.Middleware())
	protected.POST("/posts", postController.CreatePost)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)
	protected.POST("/posts/:id/comments", postController.CreateComment)
	protected.POST("/targets/:kind/:ref/comments", commentController.CreateTargetComment)
	protected.DELETE("/comments/:commentId", commentController.DeleteComment)
	protected.GET("/users/me/posts", postController.ListMyPosts)

	// role checks happen in the user service
	protected.GET("/users", authController.ListUsers)
	protected.POST("/users", authController.CreateUser)
	protected.PUT("/users/:id/role", authController.ChangeRole)
	protected.DELETE("/users/:id", authController.DeleteUser)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
