package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/queuepulse/queuepulse/internal/cache"
	"github.com/queuepulse/queuepulse/internal/invalidate"
	"github.com/queuepulse/queuepulse/internal/stream"
	"github.com/queuepulse/queuepulse/internal/version"
)

// Snapshot aggregates component counters for the /stats endpoint.
type Snapshot struct {
	Instance string           `json:"instance"`
	Version  string           `json:"version"`
	Stream   stream.Stats     `json:"stream"`
	Cache    cache.Stats      `json:"cache"`
	Routing  invalidate.Stats `json:"routing"`
}

// SnapshotFunc produces the current stats snapshot.
type SnapshotFunc func() Snapshot

// ReadyFunc reports whether the monitor is serving fresh data.
type ReadyFunc func() bool

// Server is the operational HTTP server.
type Server struct {
	port        int
	metricsPath string
	logger      *slog.Logger
	snapshot    SnapshotFunc
	ready       ReadyFunc

	srv *http.Server
}

// NewServer creates the ops server on the given port, exposing the
// Prometheus registry at metricsPath (default /metrics).
func NewServer(port int, metricsPath string, snapshot SnapshotFunc, ready ReadyFunc, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	return &Server{
		port:        port,
		metricsPath: metricsPath,
		logger:      logger,
		snapshot:    snapshot,
		ready:       ready,
	}
}

// Handler builds the HTTP router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/stats", s.handleStats)
	r.Handle(s.metricsPath, promhttp.Handler())

	return r
}

// Start begins serving in the background.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.logger.Info("ops server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("ops server failed", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","version":"%s"}`, version.Version)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.ready != nil && !s.ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"not ready"}`))
		return
	}
	w.Write([]byte(`{"status":"ready"}`))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var snap Snapshot
	if s.snapshot != nil {
		snap = s.snapshot()
	}

	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.logger.Warn("failed to encode stats", "error", err)
	}
}
