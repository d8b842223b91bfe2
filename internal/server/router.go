package server

import (
	"net/http"
	"summoner-tracker/internal/config"
	"summoner-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

func NewRouter(cfg *config.Config, srv *ProfileServer, limiter middleware.Limiter, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID(logger))

	r.Get("/healthz", srv.Health)

	r.Route("/profile", func(r chi.Router) {
		r.Use(middleware.RateLimit(limiter, logger))
		r.Get("/", srv.GetProfile)
		r.With(middleware.RequireAPIKey(cfg.WriteAPIKeys)).Post("/", srv.PostProfile)
	})

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", "X-API-Key", "Authorization"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	})
	return c.Handler(r)
}
