// Package server exposes the sanitizer over HTTP for callers that batch
// tickets through a shared deployment instead of the CLI.
package server

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/opsforge-io/ticketwash/internal/audit"
	"github.com/opsforge-io/ticketwash/internal/otel"
	"github.com/opsforge-io/ticketwash/internal/sanitizer"
)

const requestTimeout = 2 * time.Minute

// Server holds the dependencies of the HTTP API.
type Server struct {
	router     *chi.Mux
	sanitizer  *sanitizer.Sanitizer
	auditStore *audit.Store
	detector   string // provider name, recorded on audit records
	limiter    *RateLimiter
}

// Option configures the Server.
type Option func(*Server)

// WithRateLimiter overrides the default rate limiter.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) { s.limiter = rl }
}

// NewServer builds a Server. The audit store is required: an HTTP
// deployment without a trail of what it redacted is not supportable.
func NewServer(san *sanitizer.Sanitizer, store *audit.Store, detector string, opts ...Option) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		sanitizer:  san,
		auditStore: store,
		detector:   detector,
		limiter:    NewRateLimiter(600, 120),
	}
	for _, opt := range opts {
		opt(s)
	}

	// chi requires all middleware before the first route, so the mux is
	// assembled exactly once here.
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(requestTimeout))
	s.router.Use(otel.Middleware())

	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/v1/sanitize", s.handleSanitize)
	s.router.Get("/v1/runs", s.handleRuns)

	return s
}

// Routes returns the configured handler.
func (s *Server) Routes() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "detector": s.detector})
}

// handleSanitize decodes a ticket document, sanitizes it, records the
// run, and returns the sanitized document.
func (s *Server) handleSanitize(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(callerKey(r)) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var doc sanitizer.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON document: "+err.Error())
		return
	}

	start := time.Now()
	out, stats, err := s.sanitizer.Sanitize(r.Context(), doc)
	if err != nil {
		if errors.Is(err, sanitizer.ErrMalformedDocument) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		log.Error().Err(err).Func(otel.LogTraceFields(r.Context())).Msg("sanitize failed")
		writeError(w, http.StatusInternalServerError, "sanitization failed")
		return
	}

	rec := audit.NewRecord("http", s.detector, stats, time.Since(start))
	if err := s.auditStore.Save(r.Context(), rec); err != nil {
		// The caller still gets their sanitized document; the gap in the
		// trail is logged instead.
		log.Error().Err(err).Str("run_id", rec.ID).Msg("saving audit record failed")
	}

	log.Info().
		Str("run_id", rec.ID).
		Int("fields", stats.Fields).
		Int("persons", stats.Persons).
		Func(otel.LogTraceFields(r.Context())).
		Msg("ticket sanitized")

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	records, err := s.auditStore.List(r.Context(), 50)
	if err != nil {
		log.Error().Err(err).Msg("listing audit records failed")
		writeError(w, http.StatusInternalServerError, "listing runs failed")
		return
	}
	if records == nil {
		records = []*audit.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": records})
}

// callerKey buckets rate limiting by remote host.
func callerKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
