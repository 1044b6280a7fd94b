// Package health provides the HTTP probe surface for the datasync daemon:
// liveness, readiness reflecting database and refresh-job state, and the
// Prometheus metrics endpoint.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// DatabasePinger checks database connectivity.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// syncState is the outcome of the most recent refresh pass.
type syncState struct {
	At      time.Time
	Summary string
	Err     error
}

// HealthResponse is the /health and /live payload.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Uptime    string `json:"uptime,omitempty"`
	LastSync  string `json:"last_sync,omitempty"`
	NextRun   string `json:"next_run,omitempty"`
}

// ReadyResponse is the /ready payload.
type ReadyResponse struct {
	Status   string            `json:"status"`
	Service  string            `json:"service"`
	Checks   map[string]string `json:"checks,omitempty"`
	Duration string            `json:"duration,omitempty"`
}

// Server exposes the daemon's probe endpoints. Database pinger and next-run
// callback are optional; without them readiness reflects only SetReady and
// the recorded sync outcomes.
type Server struct {
	serviceName string
	version     string
	port        string
	startedAt   time.Time
	server      *http.Server
	logger      *logrus.Logger
	db          DatabasePinger
	nextRun     func() time.Time

	mu       sync.RWMutex
	ready    bool
	lastSync *syncState
}

// Config holds the health server configuration.
type Config struct {
	ServiceName string
	Version     string
	Port        string
	Logger      *logrus.Logger
	DB          DatabasePinger
	NextRun     func() time.Time
}

// NewServer creates a health server.
func NewServer(cfg Config) *Server {
	port := cfg.Port
	if port == "" {
		port = os.Getenv("HEALTH_PORT")
	}
	if port == "" {
		port = "8090"
	}

	return &Server{
		serviceName: cfg.ServiceName,
		version:     cfg.Version,
		port:        port,
		startedAt:   time.Now(),
		logger:      cfg.Logger,
		db:          cfg.DB,
		nextRun:     cfg.NextRun,
	}
}

// SetReady marks the daemon as ready to be probed healthy.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// IsReady returns the readiness flag.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// RecordSyncResult stores the outcome of a refresh pass so the probes can
// report on it.
func (s *Server) RecordSyncResult(summary string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSync = &syncState{At: time.Now(), Summary: summary, Err: err}
}

// Start serves the probe endpoints in the background and shuts down when ctx
// is canceled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/live", s.handleLive)
	mux.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{
		Addr:         ":" + s.port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{
				"port":    s.port,
				"service": s.serviceName,
			}).Info("Health server starting")
		}

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.WithError(err).Error("Health server error")
			}
		}
	}()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	return nil
}

// Shutdown gracefully stops the probe server.
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}

	if s.logger != nil {
		s.logger.Info("Health server shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Service:   s.serviceName,
		Version:   s.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
	}

	s.mu.RLock()
	if s.lastSync != nil {
		resp.LastSync = s.lastSync.At.UTC().Format(time.RFC3339)
	}
	s.mu.RUnlock()

	if s.nextRun != nil {
		if next := s.nextRun(); !next.IsZero() {
			resp.NextRun = next.UTC().Format(time.RFC3339)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Service: s.serviceName})
}

// handleReady aggregates the daemon flag, the last refresh outcome and
// database connectivity into one readiness verdict.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	checks := make(map[string]string)
	healthy := true

	s.mu.RLock()
	ready := s.ready
	last := s.lastSync
	s.mu.RUnlock()

	if ready {
		checks["service"] = "ok"
	} else {
		healthy = false
		checks["service"] = "not_ready"
	}

	switch {
	case last == nil:
		checks["last_sync"] = "pending"
	case last.Err != nil:
		healthy = false
		checks["last_sync"] = fmt.Sprintf("error: %v", last.Err)
	default:
		checks["last_sync"] = last.Summary
	}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := s.db.Ping(ctx); err != nil {
			healthy = false
			checks["database"] = fmt.Sprintf("error: %v", err)
		} else {
			checks["database"] = "ok"
		}
	}

	resp := ReadyResponse{
		Service:  s.serviceName,
		Checks:   checks,
		Duration: time.Since(start).String(),
	}
	if healthy {
		resp.Status = "ok"
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Status = "not_ready"
	writeJSON(w, http.StatusServiceUnavailable, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
