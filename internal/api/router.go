package api

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"energy-mix-pipeline/internal/api/handler"
)

// RegisterRoutes mounts the run API and the swagger docs.
func RegisterRoutes(r chi.Router, h *handler.RunHandler) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/runs", h.CreateRun)
		r.Get("/runs", h.ListRuns)
		r.Get("/runs/{id}", h.GetRun)
		r.Get("/runs/{id}/report", h.GetReport)
		r.Get("/runs/{id}/trends", h.GetTrends)
		r.Get("/runs/{id}/warnings", h.GetWarnings)
	})
	r.Get("/swagger/*", httpSwagger.WrapHandler)
}
