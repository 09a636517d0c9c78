package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/soil-analysis-service/internal/adapter/isda"
	"github.com/couchcryptid/soil-analysis-service/internal/analysis"
	"github.com/couchcryptid/soil-analysis-service/internal/domain"
)

// Analyzer runs soil analyses and exposes provider layer metadata.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (domain.AnalysisReport, error)
	AvailableLayers(ctx context.Context) (json.RawMessage, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the analysis API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	analyzer   Analyzer
	logger     *slog.Logger
}

// NewServer creates an HTTP server with analysis and operational routes.
func NewServer(addr string, analyzer Analyzer, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: mux,
			// The analyze route waits on the provider's 45s fetch; keep the
			// write deadline above it.
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		analyzer: analyzer,
		logger:   logger,
	}

	mux.HandleFunc("POST /v1/analyses", s.handleAnalyze)
	mux.HandleFunc("GET /v1/layers", s.handleLayers)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
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

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analysis.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	report, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleLayers(w http.ResponseWriter, r *http.Request) {
	layers, err := s.analyzer.AvailableLayers(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(layers) //nolint:errcheck // best-effort proxy response
}

// writeError maps sentinel errors onto status codes: validation failures are
// the caller's fault, provider failures are service-unavailable.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, analysis.ErrInvalidRequest), errors.Is(err, isda.ErrInvalidCoordinates):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid or missing latitude/longitude"})
	case errors.Is(err, isda.ErrAuthFailed), errors.Is(err, isda.ErrNotAuthenticated):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "failed to authenticate with soil data service"})
	case errors.Is(err, isda.ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "failed to retrieve soil data from the service"})
	default:
		s.logger.Error("analysis request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error during soil analysis"})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
