// Package httpapi exposes health and metrics over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"NewsAlerter/pkg/logger"
)

// StatsProvider reports alert-cycle counters.
type StatsProvider interface {
	GetStats() map[string]interface{}
	Healthy() bool
}

// SchedulerStatus reports the active scheduling driver.
type SchedulerStatus interface {
	Mode() string
	State() string
}

// Deps are the read-only views the handlers render.
type Deps struct {
	Metrics     StatsProvider
	Scheduler   SchedulerStatus
	Subscribers interface{ Recipients() []int64 }
	Seen        interface{ Len() int }
	Logger      *slog.Logger
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status         string `json:"status"`
	Healthy        bool   `json:"healthy"`
	SchedulerMode  string `json:"scheduler_mode"`
	SchedulerState string `json:"scheduler_state"`
	Subscribers    int    `json:"subscribers"`
	SeenArticles   int    `json:"seen_articles"`
}

// Server serves the monitoring endpoints.
type Server struct {
	deps   Deps
	srv    *http.Server
	logger *slog.Logger
}

// NewServer builds the router. Addr "" yields a server whose Start is a no-op.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	s := &Server{deps: deps, logger: deps.Logger}
	if addr != "" {
		s.srv = &http.Server{
			Addr:              addr,
			Handler:           s.Router(),
			ReadHeaderTimeout: 5 * time.Second,
			ErrorLog:          logger.New(deps.Logger, "httpapi"),
		}
	}
	return s
}

// Router returns the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", s.getHealth)
	r.GET("/metrics", s.getMetrics)
	return r
}

func (s *Server) getHealth(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Healthy: true, SchedulerMode: "none", SchedulerState: "stopped"}
	if s.deps.Metrics != nil {
		resp.Healthy = s.deps.Metrics.Healthy()
	}
	if s.deps.Scheduler != nil {
		resp.SchedulerMode = s.deps.Scheduler.Mode()
		resp.SchedulerState = s.deps.Scheduler.State()
	}
	if s.deps.Subscribers != nil {
		resp.Subscribers = len(s.deps.Subscribers.Recipients())
	}
	if s.deps.Seen != nil {
		resp.SeenArticles = s.deps.Seen.Len()
	}

	status := http.StatusOK
	if !resp.Healthy {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

func (s *Server) getMetrics(c *gin.Context) {
	if s.deps.Metrics == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, s.deps.Metrics.GetStats())
}

// Start listens in the background. Listen errors other than a clean
// shutdown are logged.
func (s *Server) Start() {
	if s.srv == nil {
		return
	}
	go func() {
		s.logger.Info("health server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("health server stopped", "error", err)
		}
	}()
}

// Shutdown stops the listener, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown health server: %w", err)
	}
	return nil
}
