// Package api provides HTTP routing and handlers for Heimdall's
// deconfliction service.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PossumXI/Asgard/Heimdall/internal/api/handlers"
	apimw "github.com/PossumXI/Asgard/Heimdall/internal/api/middleware"
)

// NewRouter builds Heimdall's HTTP surface: traffic registration, mission
// checks, report replay, health, stats, a Prometheus scrape endpoint, and
// the WebSocket alert feed.
func NewRouter(h *handlers.Handlers, jwtSecret string) http.Handler {
	r := chi.NewRouter()
	r.Use(apimw.Apply)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Health)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apimw.RequireAuth(jwtSecret))
		r.Post("/traffic", h.RegisterTraffic)
		r.Post("/check", h.Check)
		r.Get("/report", h.Report)
		r.Get("/stats", h.Stats)
	})

	r.Route("/ws", func(r chi.Router) {
		r.Get("/alerts", h.Alerts)
	})

	return r
}
