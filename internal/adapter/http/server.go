package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/groundwater-hmpi-service/internal/domain"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/pipeline"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/store"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Service is the HMPI pipeline as seen by the HTTP layer.
type Service interface {
	ReadinessChecker
	Normalize(ctx context.Context, rows []domain.RawRow) ([]domain.Sample, error)
	Ingest(ctx context.Context, name string, rows []domain.RawRow) (pipeline.IngestResult, error)
	Analyze(ctx context.Context) (pipeline.Analysis, error)
	AnalyzeBatch(ctx context.Context, batchID string) (pipeline.Analysis, error)
	AnalyzeRows(ctx context.Context, rows []domain.RawRow) (pipeline.Analysis, error)
	Report(ctx context.Context, batchID string) (string, error)
	Batches(ctx context.Context) ([]store.Batch, error)
	DeleteBatch(ctx context.Context, batchID string) error
}

// Server exposes the HMPI API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	svc        Service
	maxUpload  int64
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api/v1 routes. Request bodies are capped at maxUploadBytes.
func NewServer(addr string, svc Service, maxUploadBytes int64, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))
	engine.Use(corsMiddleware())

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      engine,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		engine:    engine,
		svc:       svc,
		maxUpload: maxUploadBytes,
		logger:    logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/readyz", s.handleReady)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/api/v1")
	{
		v1.POST("/upload", s.handleUpload)
		v1.POST("/normalize", s.handleNormalize)
		v1.POST("/analyze", s.handleAnalyzeRows)
		v1.GET("/analyze", s.handleAnalyze)
		v1.GET("/analyze/:batch", s.handleAnalyzeBatch)
		v1.GET("/report", s.handleReport)
		v1.GET("/batches", s.handleListBatches)
		v1.DELETE("/batches/:batch", s.handleDeleteBatch)
	}
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.svc.CheckReadiness(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
