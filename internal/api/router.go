package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Service endpoints (unversioned)
	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/applications", func(r chi.Router) {
			r.Get("/", s.handleListApplications)
			r.Post("/", s.handleCreateApplication)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetApplication)
				r.Put("/", s.handleUpdateApplication)
				r.Delete("/", s.handleDeleteApplication)
				r.Get("/config", s.handleGetConfiguration)
				r.Put("/config", s.handleUpdateConfiguration)
			})
		})

		// Lookup for consuming services that only know their own name
		r.Get("/config/{name}", s.handleGetConfigurationByName)
	})

	return r
}
