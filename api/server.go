package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/wavepng/api/types"
	"github.com/killallgit/wavepng/internal/services/cache"
	"github.com/killallgit/wavepng/pkg/config"
)

// Server represents the HTTP server
type Server struct {
	engine             *gin.Engine
	httpServer         *http.Server
	rateLimiters       *sync.Map
	cleanupInitialized sync.Once
	cleanupStop        chan struct{}
	stopOnce           sync.Once
	responseCache      *cache.MemoryCache

	// Dependencies for handlers
	dependencies *types.Dependencies
}

// NewServer creates a new HTTP server listening on address
func NewServer(address string, cfg config.ServerConfig) *Server {
	// Create Gin engine with recovery middleware only
	engine := gin.New()
	engine.Use(gin.Recovery())

	maxHeaderBytes := cfg.MaxHeaderBytes
	if maxHeaderBytes <= 0 {
		maxHeaderBytes = 1 << 20
	}

	return &Server{
		engine:       engine,
		rateLimiters: &sync.Map{},
		cleanupStop:  make(chan struct{}),
		httpServer: &http.Server{
			Addr:           address,
			Handler:        engine,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			IdleTimeout:    cfg.ReadTimeout,
			MaxHeaderBytes: maxHeaderBytes,
		},
	}
}

// SetDependencies sets all handler dependencies
func (s *Server) SetDependencies(deps *types.Dependencies) {
	s.dependencies = deps
}

// Engine returns the Gin engine for testing
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Initialize sets up middleware and routes
func (s *Server) Initialize() error {
	if s.dependencies == nil {
		s.dependencies = &types.Dependencies{}
	}
	if s.dependencies.Config == nil {
		cfg, err := config.GetConfig()
		if err != nil {
			return err
		}
		s.dependencies.Config = cfg
	}

	if cacheCfg := s.dependencies.Config.ResponseCache; cacheCfg.Enabled && s.dependencies.Responses == nil {
		s.responseCache = cache.NewMemoryCache(cacheCfg.MaxSizeMB)
		s.dependencies.Responses = s.responseCache
	}

	s.setupMiddleware()
	return s.setupRoutes()
}

// setupMiddleware configures global middleware
func (s *Server) setupMiddleware() {
	security := s.dependencies.Config.Security

	if security.EnableRequestID {
		s.engine.Use(RequestID())
	}

	// Logger middleware
	s.engine.Use(gin.Logger())

	if security.EnableCORS {
		s.engine.Use(CORS(security))
	}
}

// setupRoutes delegates to the main route registration
func (s *Server) setupRoutes() error {
	return RegisterRoutes(s.engine, s.dependencies, s.rateLimiters, s.cleanupStop, &s.cleanupInitialized)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Stop the rate limiter cleanup goroutine
	s.stopOnce.Do(func() { close(s.cleanupStop) })

	// Stop the response cache sweeper if this server created it
	if s.responseCache != nil {
		s.responseCache.Stop()
	}

	return s.httpServer.Shutdown(ctx)
}
