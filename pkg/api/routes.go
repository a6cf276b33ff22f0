package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// buildRouter constructs the chi router with all routes and middleware.
func (s *server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(s.requestLogger)
	r.Use(s.corsMiddleware())

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints.
		r.Get("/health", s.handleHealth)

		// Trigger endpoint: manual run / backfill for a logical date.
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			if s.cfg.RateLimit.Enabled {
				r.Use(s.rateLimitMiddleware(
					s.cfg.RateLimit.RequestsPerMinute,
				))
			}

			r.Post("/runs", s.handleTriggerRun)
		})

		// Reporting endpoints.
		r.Get("/runs", s.handleListRuns)
		r.Get("/entries/latest", s.handleLatestEntry)
		r.Get("/entries/{date}", s.handleGetEntry)
	})

	return r
}

// corsMiddleware returns the CORS middleware based on configuration.
func (s *server) corsMiddleware() func(http.Handler) http.Handler {
	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
