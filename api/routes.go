package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/killallgit/wavepng/api/health"
	"github.com/killallgit/wavepng/api/middleware"
	"github.com/killallgit/wavepng/api/types"
	"github.com/killallgit/wavepng/api/version"
	"github.com/killallgit/wavepng/api/waveform"
	_ "github.com/killallgit/wavepng/docs/swagger"
	"github.com/killallgit/wavepng/internal/services/envelopes"
	"github.com/killallgit/wavepng/internal/services/render"
	"github.com/killallgit/wavepng/pkg/config"
	apperrors "github.com/killallgit/wavepng/pkg/errors"
)

// RegisterRoutes registers all API routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies, rateLimiters *sync.Map, cleanupStop chan struct{}, cleanupInitialized *sync.Once) error {
	if deps == nil {
		deps = &types.Dependencies{}
	}
	if deps.Config == nil {
		cfg, err := config.GetConfig()
		if err != nil {
			return err
		}
		deps.Config = cfg
	}

	// Register public routes (no rate limiting)
	health.RegisterRoutes(engine, deps)
	version.RegisterRoutes(engine, deps)

	// Register Swagger documentation route
	engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
	docsGroup := engine.Group("/docs")
	docsGroup.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Setup 404 handler
	engine.NoRoute(NotFoundHandler())

	// Initialize services if not already set
	if deps.Envelopes == nil && deps.DB != nil && deps.DB.DB != nil {
		deps.Envelopes = envelopes.NewService(envelopes.NewRepository(deps.DB.DB), slog.Default())
	}
	if deps.Renderer == nil {
		deps.Renderer = render.NewService(deps.Envelopes, slog.Default())
	}

	// API v1 routes
	v1 := engine.Group("/api/v1")

	// Rendering is CPU bound, so it is rate limited per client
	waveformGroup := v1.Group("/waveform")
	if limits := deps.Config.RateLimiting; limits.Enabled {
		waveformGroup.Use(PerClientRateLimit(rateLimiters, cleanupStop, cleanupInitialized, limits.RequestsPerMinute, limits.Burst))
	}
	if deps.Responses != nil {
		waveformGroup.Use(middleware.CacheMiddleware(middleware.CacheConfig{
			Cache:   deps.Responses,
			TTL:     deps.Config.ResponseCache.TTL,
			Enabled: true,
		}, waveform.HeaderStart, waveform.HeaderEnd, waveform.HeaderCache))
	}
	waveform.RegisterRoutes(waveformGroup, deps)

	return nil
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		types.SendError(c, apperrors.NotFound("endpoint", c.Request.URL.Path))
	}
}
