package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"energy-mix-pipeline/internal/config"
	"energy-mix-pipeline/internal/model"
	"energy-mix-pipeline/internal/store"
)

// storeSnapshotCache adapts the store's snapshot table to the loader.
type storeSnapshotCache struct{}

func (storeSnapshotCache) GetSnapshot(sourceID string) ([]byte, bool, error) {
	return store.GetSnapshot(sourceID)
}

func (storeSnapshotCache) SaveSnapshot(sourceID string, body []byte) error {
	return store.SaveSnapshot(sourceID, body)
}

// StoreCache returns the sqlite-backed snapshot cache.
func StoreCache() SnapshotCache { return storeSnapshotCache{} }

// Run executes the whole batch for one run id: load, resolve, derive, trend,
// assemble. Load-time and schema errors abort the run; coverage and
// undefined-metric findings ride along as annotations; a trend cell with
// insufficient data is skipped without failing the rest.
func Run(ctx context.Context, runID string, cfg *config.Config, force bool, log zerolog.Logger) (result *model.Report, err error) {
	start := time.Now()
	log.Info().Str("run", runID).Msg("starting pipeline run")

	setStatus(log, runID, "running")
	defer func() {
		if err != nil {
			setStatus(log, runID, "failed")
			if saveErr := store.SaveRunError(runID, err); saveErr != nil {
				log.Warn().Err(saveErr).Str("run", runID).Msg("record run error")
			}
		}
	}()

	membership, err := cfg.Membership()
	if err != nil {
		return nil, fmt.Errorf("invalid group membership: %w", err)
	}

	// --- LOAD ---
	setStatus(log, runID, "loading")
	loader := NewLoader(StoreCache(), log)
	loader.Force = force

	energy, err := loader.Load(ctx, cfg.Energy)
	if err != nil {
		return nil, err
	}
	// The CO2 context table is validated and snapshotted for the report
	// layer; no share metric derives from it.
	if _, err := loader.Load(ctx, cfg.Emissions); err != nil {
		return nil, err
	}

	// --- RESOLVE ---
	setStatus(log, runID, "resolving")
	euRecords := Resolve(energy, model.GroupEU27, membership, log)
	usaRecords := Resolve(energy, model.GroupUSA, membership, log)

	// --- DERIVE ---
	setStatus(log, runID, "deriving")
	eu, euWarnings := Derive(euRecords, cfg.CoverageThreshold, log)
	usa, usaWarnings := Derive(usaRecords, cfg.CoverageThreshold, log)
	warnings := append(euWarnings, usaWarnings...)

	// --- TREND ---
	setStatus(log, runID, "analyzing")
	trends, breaks := analyze(cfg, log, eu, usa)

	// --- ASSEMBLE ---
	setStatus(log, runID, "assembling")
	report := &model.Report{
		Rows:     Assemble(eu, usa, warnings),
		Trends:   trends,
		Breaks:   breaks,
		Warnings: warnings,
	}

	if err := store.SaveReport(runID, report); err != nil {
		return nil, fmt.Errorf("persist report: %w", err)
	}
	if cfg.OutputDir != "" {
		if err := ExportRun(runID, cfg, eu, usa, report); err != nil {
			return nil, fmt.Errorf("export run outputs: %w", err)
		}
	}

	setStatus(log, runID, "completed")
	log.Info().Str("run", runID).
		Int("rows", len(report.Rows)).
		Int("trends", len(report.Trends)).
		Int("warnings", len(report.Warnings)).
		Dur("took", time.Since(start)).
		Msg("pipeline run completed")
	return report, nil
}

// analyze computes the trend and structural-break tables for every (group,
// metric) pair. A pair without defined endpoint or window data is dropped,
// not fatal; the remaining pairs still complete.
func analyze(cfg *config.Config, log zerolog.Logger, groups ...*model.GroupSeries) ([]model.TrendResult, []model.StructuralBreakResult) {
	var trends []model.TrendResult
	var breaks []model.StructuralBreakResult

	for _, g := range groups {
		for _, metric := range model.Metrics {
			series := g.SeriesFor(metric)

			t, err := Trend(series, cfg.Trend.StartYear, cfg.Trend.EndYear)
			switch {
			case errors.Is(err, model.ErrInsufficientData):
				log.Warn().Err(err).Msg("trend skipped")
			case err != nil:
				log.Error().Err(err).Msg("trend failed")
			default:
				trends = append(trends, t)
			}

			b, err := BreakCompare(modernOnly(series, cfg.Break.ModernFloor), cfg.Break.PivotYear, cfg.Break.WindowYears)
			switch {
			case errors.Is(err, model.ErrInsufficientData):
				log.Warn().Err(err).Msg("structural-break comparison skipped")
			case err != nil:
				log.Error().Err(err).Msg("structural-break comparison failed")
			default:
				breaks = append(breaks, b)
			}
		}
	}
	return trends, breaks
}

// setStatus advances the run registry. A registry failure must not abort the
// batch, but it must not disappear either.
func setStatus(log zerolog.Logger, runID, status string) {
	if err := store.UpdateRunStatus(runID, status); err != nil {
		log.Warn().Err(err).Str("run", runID).Str("status", status).Msg("update run status")
	}
}

// modernOnly drops series points before the configured floor so the
// structural-break windows only ever see the modern period.
func modernOnly(series model.Series, floor int) model.Series {
	if floor <= 0 {
		return series
	}
	points := make(map[int]model.Share, len(series.Points))
	for year, share := range series.Points {
		if year >= floor {
			points[year] = share
		}
	}
	return model.Series{Group: series.Group, Metric: series.Metric, Points: points}
}
