package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/freshtally/freshtally/internal/metrics"
)

type Server struct {
	Engine *gin.Engine
	Addr   string
	checks []HealthCheck
}

// HealthChecker is an interface for components that can report their health status.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthCheck names one dependency probed by /health.
type HealthCheck struct {
	Name    string
	Checker HealthChecker
}

// PingFunc adapts a function to HealthChecker.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// New builds the gin engine with /health and, when m is non-nil, /metrics
// plus request instrumentation.
func New(addr string, mode string, m *metrics.Metrics, checks ...HealthCheck) *Server {
	// Set Gin mode based on configuration
	if mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	if m != nil {
		r.Use(m.Middleware())
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	s := &Server{
		Engine: r,
		Addr:   addr,
		checks: checks,
	}

	r.GET("/health", s.healthHandler)

	return s
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := make(map[string]string, len(s.checks))
	for _, check := range s.checks {
		if err := check.Checker.Ping(ctx); err != nil {
			slog.Error("[Server] Health check failed", "dependency", check.Name, "error", err)
			status[check.Name] = "unreachable"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":       "unhealthy",
				"error":        check.Name + " unreachable",
				"dependencies": status,
			})
			return
		}
		status[check.Name] = "connected"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"dependencies": status,
	})
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.Addr,
		Handler: s.Engine,
	}

	slog.Info("[Server] Starting HTTP server", "address", s.Addr)

	go func() {
		<-ctx.Done()
		slog.Info("[Server] Stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("[Server] HTTP server forced to shutdown", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
