package main

import (
	"os"

	"github.com/rs/zerolog"

	"energy-mix-pipeline/internal/api"
	"energy-mix-pipeline/internal/config"
	"energy-mix-pipeline/internal/store"

	_ "energy-mix-pipeline/docs"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("ENERGY_PIPELINE_CONFIG"))
	if err != nil {
		logger.Fatal().Err(err).Msg("load configuration")
	}
	if err := store.InitDB(cfg.DBPath); err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer store.CloseDB()

	if err := api.Serve(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
