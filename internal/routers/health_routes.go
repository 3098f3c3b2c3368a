package routers

import (
	"github.com/go-chi/chi/v5"

	"intervai/internal/handlers"
	"intervai/internal/metrics"
)

func HealthRoutes(router *chi.Mux, health *handlers.HealthHandler) {
	router.Get("/healthz", health.HealthzHandler)
	router.Get("/readyz", health.ReadyzHandler)
	router.Handle("/metrics", metrics.Handler())
}
