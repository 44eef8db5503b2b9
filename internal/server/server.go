package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/belegpilot/extraction-service/internal/config"
	"github.com/belegpilot/extraction-service/internal/handler"
	"github.com/belegpilot/extraction-service/internal/middleware"
	"github.com/belegpilot/extraction-service/internal/ratelimit"
	"github.com/belegpilot/extraction-service/internal/repository"
)

// Handlers bundles the HTTP handlers the server routes to
type Handlers struct {
	Extraction *handler.ExtractionHandler
	Cost       *handler.CostHandler
	Meta       *handler.MetaHandler
}

// Server represents the HTTP server for the extraction service
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     *config.Config
	logger     *slog.Logger
}

// NewServer creates and configures a new server instance. The /v1 API group
// is protected by API-key auth and per-key rate limiting; /health, /models
// and the Swagger UI stay open.
func NewServer(cfg *config.Config, handlers Handlers, keys repository.APIKeyRepository, limiter ratelimit.Limiter, logger *slog.Logger) *Server {
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger(logger))

	server := &Server{
		router: router,
		config: cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}

	router.GET("/health", handlers.Meta.GetHealth)
	router.GET("/models", handlers.Meta.GetModels)

	// Access the Swagger UI at /api-docs/index.html
	router.GET("/api-docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/api-docs", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/api-docs/index.html")
	})

	v1 := router.Group("/v1")
	v1.Use(middleware.APIKeyMiddleware(keys))
	if limiter != nil {
		v1.Use(middleware.RateLimitMiddleware(limiter, cfg.RateLimitRequests, cfg.RateLimitWindow))
	}
	{
		v1.POST("/extract", handlers.Extraction.Extract)
		v1.GET("/results", handlers.Extraction.ListResults)
		v1.GET("/results/:id", handlers.Extraction.GetResult)
		v1.GET("/costs", handlers.Cost.GetCosts)
	}

	return server
}

// GetRouter returns the gin router instance
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Start begins listening for requests and blocks until an interrupt signal
// triggers a graceful shutdown.
func (s *Server) Start() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		s.logger.Info("server listening", "port", s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.logger.Info("server exited gracefully")
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
