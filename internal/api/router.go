// Package api exposes the scraper over HTTP with gin.
package api

import (
	"context"
	"time"

	"image-extract-scraper/internal/config"
	"image-extract-scraper/internal/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Service is the scraping surface the handlers depend on
type Service interface {
	Extract(ctx context.Context, target string, useRendered bool) (models.ExtractResult, error)
	Analyze(ctx context.Context, target string, useRendered bool) (models.AnalysisResult, error)
	ImageInfo(ctx context.Context, imageURL string) models.SizeInfo
	OptimizedURL(imageURL string) string
}

// NewRouter builds a gin engine with recovery, request ids, access logging, open CORS and every route
func NewRouter(svc Service, cfg config.ServerConfig) *gin.Engine {
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.CustomRecovery(HandlePanics()))
	engine.Use(RequestID())
	engine.Use(LoggingMiddleware())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Api-Key", RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))

	h := NewHandler(svc)
	engine.GET("/health", h.Health)

	api := engine.Group("/api")
	{
		api.GET("/extract-images", h.ExtractImages)
		api.GET("/image-info", h.ImageInfo)
		api.GET("/analyze", h.Analyze)
	}

	return engine
}
