package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"liveResume/internal/api/middleware"
	"liveResume/internal/rewrite"
	"liveResume/internal/session"
)

// Dependencies 汇总路由所需的组件。可选组件为空时对应路由不注册或功能降级。
type Dependencies struct {
	Registry *session.Registry
	Renderer session.Renderer
	Logger   *slog.Logger

	// Model serves POST /v1/generate when set.
	Model rewrite.Generator

	// Redis enables the rewrite rate limit and export notifications on the websocket.
	Redis             *redis.Client
	RewriteMaxPerHour int

	// RateCounter overrides Redis for the rewrite rate limit.
	RateCounter redisRateCounter

	// DB, Queue and Storage together enable the async export routes.
	DB            *gorm.DB
	Queue         taskEnqueuer
	Storage       exportStorage
	ExportLinkTTL time.Duration
	ExportRetry   int

	// OnSessionEnd runs after a session is deleted through the API.
	OnSessionEnd   func(ctx context.Context, id string)
	AllowedOrigins []string
}

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	sessionHandler := NewSessionHandler(deps.Registry, deps.OnSessionEnd)
	documentHandler := NewDocumentHandler(deps.Renderer)
	wsHandler := NewWsHandler(deps.Registry, deps.Redis, deps.Logger, deps.AllowedOrigins)

	counter := deps.RateCounter
	if counter == nil && deps.Redis != nil {
		counter = deps.Redis
	}
	rewriteHandler := NewRewriteHandler(counter, deps.RewriteMaxPerHour)

	v1 := router.Group("/v1")
	{
		v1.POST("/session", sessionHandler.CreateSession)
		v1.GET("/session/ws", wsHandler.HandleConnection)

		if deps.Model != nil {
			v1.POST("/generate", NewGenerateHandler(deps.Model).Generate)
		}

		sessionGroup := v1.Group("/session")
		sessionGroup.Use(middleware.SessionMiddleware(deps.Registry))
		{
			sessionGroup.DELETE("", sessionHandler.EndSession)

			sessionGroup.GET("/document", documentHandler.GetDocument)
			sessionGroup.PATCH("/document", documentHandler.PatchDocument)
			sessionGroup.PUT("/document", documentHandler.ReplaceDocument)
			sessionGroup.POST("/document/:field/tags", documentHandler.AddTag)
			sessionGroup.DELETE("/document/:field/tags/:index", documentHandler.RemoveTag)
			sessionGroup.GET("/preview", documentHandler.Preview)

			sessionGroup.POST("/rewrite", rewriteHandler.Rewrite)
			sessionGroup.GET("/export/:format", ExportArtifact)

			if deps.DB != nil && deps.Queue != nil && deps.Storage != nil {
				jobs := NewExportJobHandler(deps.DB, deps.Queue, deps.Storage, deps.ExportLinkTTL, deps.ExportRetry)
				sessionGroup.POST("/exports", jobs.EnqueueExport)
				sessionGroup.GET("/exports/:id", jobs.GetExportJob)
				sessionGroup.GET("/exports/:id/link", jobs.GetExportLink)
				sessionGroup.GET("/exports/:id/download", jobs.DownloadExport)
			}
		}
	}
}
