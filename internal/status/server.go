// Package status serves the progress of the current run over HTTP: a health
// probe, a JSON snapshot and Prometheus metrics.
package status

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"go-easyapply-automation/internal/campaign"
	"go-easyapply-automation/internal/models"
)

// Snapshot is the body of GET /status.
type Snapshot struct {
	RunID     string         `json:"run_id,omitempty"`
	Site      models.Site    `json:"site"`
	Running   bool           `json:"running"`
	Started   time.Time      `json:"started"`
	Finished  *time.Time     `json:"finished,omitempty"`
	Tally     campaign.Tally `json:"tally"`
	LastError string         `json:"last_error,omitempty"`
}

// Server is a campaign.Reporter that keeps the latest tally for the HTTP
// endpoints.
type Server struct {
	mu   sync.RWMutex
	snap Snapshot

	metrics *metrics
	engine  *gin.Engine
	srv     *http.Server
	log     *zap.Logger
}

var _ campaign.Reporter = (*Server)(nil)

// New builds the routes. reg receives the metrics; nil uses a private
// registry.
func New(site models.Site, reg *prometheus.Registry, log *zap.Logger) *Server {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		snap:    Snapshot{Site: site, Running: true, Started: time.Now().UTC()},
		metrics: newMetrics(reg),
		engine:  gin.New(),
		log:     log,
	}
	s.metrics.running.Set(1)

	s.engine.Use(gin.Recovery())
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	s.engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.Snapshot())
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

// Start listens on addr in the background until Shutdown.
func (s *Server) Start(addr string) {
	s.srv = &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		s.log.Info("📡 Status server listening", zap.String("addr", addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("status server stopped", zap.Error(err))
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Server) Posting(ctx context.Context, ev campaign.Event) {
	s.metrics.postings.WithLabelValues(string(ev.Site), ev.Outcome.String()).Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.RunID = ev.RunID
	s.snap.Tally.Add(ev.Outcome)
	if ev.Err != nil {
		s.snap.LastError = ev.Err.Error()
	}
}

func (s *Server) Page(ctx context.Context, runID string, t campaign.Tally) {
	s.metrics.pages.WithLabelValues(string(s.Snapshot().Site)).Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.RunID = runID
	s.snap.Tally = t
}

func (s *Server) Done(ctx context.Context, runID string, t campaign.Tally, err error) {
	result := "finished"
	if err != nil {
		result = "stopped"
	}
	s.metrics.runs.WithLabelValues(string(s.Snapshot().Site), result).Inc()
	s.metrics.running.Set(0)

	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.RunID = runID
	s.snap.Running = false
	s.snap.Finished = &now
	s.snap.Tally = t
	if err != nil {
		s.snap.LastError = err.Error()
	}
}
