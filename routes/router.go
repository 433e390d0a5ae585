package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/forumhq/posts-service/config"
	"github.com/forumhq/posts-service/controllers"
	"github.com/forumhq/posts-service/middleware"
	"github.com/forumhq/posts-service/services"
	"github.com/forumhq/posts-service/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(posts services.PostManager) *gin.Engine {
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
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
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
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.OK(ctx, "ok", gin.H{"status": "ok"})
	})

	postController := controllers.NewPostController(posts)

	api := r.Group("/api/v1")

	postsGroup := api.Group("/posts")
	postsGroup.GET("", postController.ListPosts)
	// reading a post counts as a view
	postsGroup.GET("/:id", middleware.ViewRecorder(posts), postController.GetPost)

	// Public user posts
	api.GET("/users/:userId/posts", postController.ListUserPosts)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())

	protected.POST("/posts", postController.CreatePost)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)
	protected.PATCH("/posts/:id/accessibility", postController.UpdateAccessibility)
	protected.PATCH("/posts/:id/metadata", postController.UpdateMetadata)
	protected.PATCH("/posts/:id/views", postController.IncrementViews)
	protected.POST("/posts/:id/like", postController.LikePost)
	protected.POST("/posts/:id/unlike", postController.UnlikePost)
	protected.POST("/posts/:id/replies", postController.AddReply)
	protected.PUT("/posts/:id/replies/:replyId", postController.UpdateReply)
	protected.DELETE("/posts/:id/replies/:replyId", postController.DeleteReply)
	protected.POST("/posts/:id/replies/:replyId/sub-replies", postController.AddSubReply)
	protected.PUT("/posts/:id/replies/:replyId/sub-replies/:subReplyId", postController.UpdateSubReply)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Fail(ctx, http.StatusNotFound, "route not found")
	})

	return r
}
