package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"energy-mix-pipeline/internal/api"
	"energy-mix-pipeline/internal/config"
	"energy-mix-pipeline/internal/model"
	"energy-mix-pipeline/internal/pipeline"
	"energy-mix-pipeline/internal/store"
	"energy-mix-pipeline/pkg/utils"

	_ "energy-mix-pipeline/docs"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var configPath string

	root := &cobra.Command{
		Use:           "pipeline",
		Short:         "EU27 vs USA energy-mix comparison pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML configuration file")

	loadAll := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if err := store.InitDB(cfg.DBPath); err != nil {
			return nil, fmt.Errorf("open database %s: %w", cfg.DBPath, err)
		}
		return cfg, nil
	}

	root.AddCommand(
		newFetchCmd(loadAll, logger),
		newRunCmd(loadAll, logger),
		newTrendsCmd(loadAll),
		newServeCmd(loadAll, logger),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newFetchCmd(load func() (*config.Config, error), logger zerolog.Logger) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download and snapshot the upstream datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			defer store.CloseDB()

			loader := pipeline.NewLoader(pipeline.StoreCache(), logger)
			loader.Force = force
			for _, src := range []config.Source{cfg.Energy, cfg.Emissions} {
				if _, err := loader.Load(cmd.Context(), src); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Re-download even when a snapshot exists")
	return cmd
}

func newRunCmd(load func() (*config.Config, error), logger zerolog.Logger) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the full pipeline batch and print the trend summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			defer store.CloseDB()

			runID := uuid.New().String()
			if err := store.SaveRun(runID); err != nil {
				return fmt.Errorf("register run: %w", err)
			}

			report, err := pipeline.Run(context.Background(), runID, cfg, force, logger)
			if err != nil {
				return err
			}

			fmt.Printf("Run %s completed: %d report rows, %d warnings\n", runID, len(report.Rows), len(report.Warnings))
			printTrends(os.Stdout, report.Trends)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Re-download sources instead of using snapshots")
	return cmd
}

func newTrendsCmd(load func() (*config.Config, error)) *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Print the trend table of a stored run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := load(); err != nil {
				return err
			}
			defer store.CloseDB()

			trends, err := store.GetTrends(runID)
			if err != nil {
				return fmt.Errorf("fetch trends for run %s: %w", runID, err)
			}
			if len(trends) == 0 {
				return fmt.Errorf("no trends stored for run %s", runID)
			}
			printTrends(os.Stdout, trends)
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Run ID to print trends for")
	_ = cmd.MarkFlagRequired("run")
	return cmd
}

func newServeCmd(load func() (*config.Config, error), logger zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the run API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			defer store.CloseDB()
			return api.Serve(cfg, logger)
		},
	}
}

func printTrends(out *os.File, trends []model.TrendResult) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tMETRIC\tPERIOD\tSTART\tEND\tDELTA\tDIRECTION")
	for _, t := range trends {
		fmt.Fprintf(w, "%s\t%s\t%d-%d\t%s\t%s\t%+.1f\t%s\n",
			t.Group, t.Metric, t.StartYear, t.EndYear,
			utils.FormatPct(t.StartValue), utils.FormatPct(t.EndValue),
			t.Delta, t.Direction)
	}
	w.Flush()
}
