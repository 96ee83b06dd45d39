package web

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/statuswatch/statuswatch/internal/analytics"
	"github.com/statuswatch/statuswatch/internal/metrics"
	"github.com/statuswatch/statuswatch/internal/statusapi"
	"github.com/statuswatch/statuswatch/internal/store"
)

// Package web serves the dashboard API: REST endpoints over the store and
// analytics engine, a Prometheus exporter, and a WebSocket feed that pushes
// a fresh status snapshot every refresh interval.

// Options configures the web server.
type Options struct {
	Port            int
	RefreshInterval time.Duration
	AllowedOrigins  []string
	ExporterEnabled bool
}

// Server is the statuswatch web server.
type Server struct {
	opts   Options
	client *statusapi.Client
	engine analytics.Engine
	store  store.Store
	logger *zap.Logger

	httpServer *http.Server
	hub        *wsHub

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// NewServer creates a web server over the given components.
func NewServer(opts Options, client *statusapi.Client, engine analytics.Engine, st store.Store, logger *zap.Logger) *Server {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		opts:   opts,
		client: client,
		engine: engine,
		store:  st,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	s.hub = newWSHub(s)
	return s
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/report", s.handleReport).Methods(http.MethodGet)
	api.HandleFunc("/anomalies", s.handleAnomalies).Methods(http.MethodGet)
	api.HandleFunc("/forecasts/{service}", s.handleForecasts).Methods(http.MethodGet)
	api.HandleFunc("/history/{service}", s.handleHistory).Methods(http.MethodGet)

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.hub.handleUpgrade)

	if s.opts.ExporterEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	return r
}

// Start begins serving and launches the refresh loop.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("web server is already running")
	}
	s.running = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.opts.Port),
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.logger.Info("web server listening", zap.Int("port", s.opts.Port))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("web server failed", zap.Error(err))
		}
	}()
	go func() {
		defer s.wg.Done()
		s.refreshLoop()
	}()
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("web server is not running")
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("web server shutdown", zap.Error(err))
		}
	}
	s.hub.closeAll()
	s.wg.Wait()
	return nil
}

// refreshLoop polls the status page and pushes snapshots to subscribers.
func (s *Server) refreshLoop() {
	ticker := time.NewTicker(s.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			snapshot, err := s.collect(s.ctx)
			if err != nil {
				metrics.ChecksTotal.WithLabelValues("error").Inc()
				s.logger.Warn("refresh failed", zap.Error(err))
				continue
			}
			s.hub.broadcast(snapshot)
		}
	}
}

// collect runs one full check pass: fetch, ingest, analyze.
func (s *Server) collect(ctx context.Context) (*StatusSnapshot, error) {
	summary, info, err := s.client.FetchSummary(ctx, true)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	health := statusapi.ExtractHealth(summary, now)
	if _, err := s.engine.Ingest(ctx, health, summary.Status.Indicator, info); err != nil {
		return nil, err
	}

	results, err := s.engine.AnalyzeAll(ctx)
	if err != nil {
		s.logger.Warn("analysis pass failed", zap.Error(err))
	}

	snapshot := newStatusSnapshot(summary, health, now)
	for _, r := range results {
		if r.Anomalous {
			snapshot.Anomalies = append(snapshot.Anomalies, r)
		}
	}
	return snapshot, nil
}
