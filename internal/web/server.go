// Package web provides the HTTP server that exposes validation reports and
// KPI aggregations. The server holds the preprocessed dataset in memory and
// computes results on demand; all endpoints are read-only, so concurrent
// requests need no locking.
package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sensorlab/mfgqc/internal/config"
	"github.com/sensorlab/mfgqc/internal/dataset"
	"github.com/sensorlab/mfgqc/internal/schema"
	"github.com/sensorlab/mfgqc/internal/store"
)

// Server is the report HTTP server.
type Server struct {
	table      *dataset.Table
	schema     *schema.Schema
	cfg        *config.Config
	sourceName string
	runs       *store.Store
	router     *chi.Mux
	server     *http.Server
}

// NewServer creates a report server over a preprocessed dataset. runs may
// be nil when no run-history database is configured; the runs endpoint
// then reports that history is unavailable.
func NewServer(t *dataset.Table, s *schema.Schema, cfg *config.Config, sourceName string, runs *store.Store) *Server {
	srv := &Server{
		table:      t,
		schema:     s,
		cfg:        cfg,
		sourceName: sourceName,
		runs:       runs,
		router:     chi.NewRouter(),
	}
	srv.setupMiddleware()
	srv.setupRoutes()
	return srv
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/kpi", func(r chi.Router) {
		r.Get("/overall", s.handleOverall)
		r.Get("/by-type", s.handleByType)
		r.Get("/modes", s.handleModes)
		r.Get("/temp-delta", s.handleTempDelta)
		r.Get("/quantiles/{column}", s.handleQuantiles)
	})

	s.router.Get("/api/runs", s.handleRuns)

	s.router.Route("/reports", func(r chi.Router) {
		r.Get("/validation", s.handleValidationReport)
		r.Get("/summary", s.handleSummaryReport)
	})

	// Rendered chart HTML files
	s.router.Handle("/figures/*", http.StripPrefix("/figures/",
		http.FileServer(http.Dir(s.cfg.Reports.FiguresDir))))
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
