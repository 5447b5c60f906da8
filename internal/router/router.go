package router

import (
	"net/http"

	"shopify-variant-reset/internal/handler"
	"shopify-variant-reset/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler         *handler.Handler
	RunHandler      *handler.RunHandler
	LocationHandler *handler.LocationHandler
	AuthMiddleware  func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-API-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	// AUTHENTICATED routes
	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		r.Route("/api/v1", func(r chi.Router) {
			if cfg.RunHandler != nil {
				r.Route("/runs", func(r chi.Router) {
					r.Post("/", cfg.RunHandler.StartRun)
					r.Get("/last", cfg.RunHandler.LastRun)
				})
			}

			if cfg.LocationHandler != nil {
				r.Get("/locations", cfg.LocationHandler.List)
			}
		})
	})

	return r
}
