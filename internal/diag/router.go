package diag

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
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)

		r.Route("/interfaces", func(r chi.Router) {
			r.Get("/", s.handleListInterfaces)
			r.Get("/{name}", s.handleGetInterface)
		})

		r.Get("/loglevel", s.handleGetLogLevel)
		r.Put("/loglevel", s.handleSetLogLevel)
	})

	r.Handle("/metrics", s.metrics.Handler())

	return r
}
