package app

import (
	"time"
	"vocab_backend/internal/config"
	"vocab_backend/internal/middleware"
	"vocab_backend/pkg/monitoring"
	"vocab_backend/pkg/security"

	"github.com/gin-gonic/gin"
)

// 单个用户提交作答的频率上限
const (
	submitMaxRequests = 120
	submitWindow      = time.Minute
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		a.registerPracticeRoutes(authGroup, c)
		a.registerProfileRoutes(authGroup, c)
	}
}

func (a *App) registerPracticeRoutes(rg *gin.RouterGroup, c *controllers) {
	practice := rg.Group("/practice/sessions")
	{
		practice.POST("", c.practice.StartSession)
		practice.GET("/:id", c.practice.GetSession)
		practice.POST("/:id/items",
			security.RateLimiterBy(submitMaxRequests, submitWindow, security.UserKey),
			c.practice.SubmitItem)
		practice.POST("/:id/complete", c.practice.CompleteSession)
	}

	rg.POST("/speaking/audio", c.speaking.UploadAudio)
}

func (a *App) registerProfileRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/users/me/progress", c.user.GetProgress)

	// 排行榜
	rg.GET("/leaderboard/rank", c.leaderboard.Rank)
	rg.GET("/leaderboard/top", c.leaderboard.Top)

	// 统计
	rg.GET("/stats", c.stats.Categories)
	rg.GET("/stats/:category", c.stats.GetStats)

	// 收藏
	rg.GET("/bookmarks", c.bookmark.List)
	rg.POST("/bookmarks", c.bookmark.Add)
	rg.DELETE("/bookmarks", c.bookmark.Remove)
}
