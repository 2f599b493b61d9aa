package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"energy-mix-pipeline/internal/api/handler"
	"energy-mix-pipeline/internal/config"
	"energy-mix-pipeline/pkg/router"
)

// Serve blocks on the run API listening at the configured address.
func Serve(cfg *config.Config, logger zerolog.Logger) error {
	r := router.New(logger)
	RegisterRoutes(r, handler.NewRunHandler(cfg, logger))

	logger.Info().Str("addr", cfg.ListenAddr).Msg("starting API server")
	return http.ListenAndServe(cfg.ListenAddr, r)
}
