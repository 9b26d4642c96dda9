package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.readOnlyMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "route not found")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Get("/stats", s.handleDeviceStats)
			r.Get("/{fullName}", s.handleGetDevice)
		})

		r.Get("/catalog/report", s.handleCatalogReport)
		r.Get("/audit", s.handleListAudit)
	})

	return r
}

// handleHealth returns the server health status. The catalogue is
// "unavailable" when its one-time load failed; the process still answers.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, catalog := "ok", "loaded"
	if _, err := s.catalog.GetStats(r.Context()); err != nil {
		status, catalog = "degraded", "unavailable"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  status,
		"catalog": catalog,
		"version": s.version,
	})
}
