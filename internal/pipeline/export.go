package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"energy-mix-pipeline/internal/config"
	"energy-mix-pipeline/internal/model"
)

// ExportRun writes the run's artifacts into a run-scoped output directory:
// the combined per-group series, the assembled comparison and trend tables,
// a full JSON report, and a metadata sidecar naming the sources.
func ExportRun(runID string, cfg *config.Config, eu, usa *model.GroupSeries, report *model.Report) error {
	dir := filepath.Join(cfg.OutputDir, runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if err := writeSeriesCSV(filepath.Join(dir, "eu_us_energy.csv"), eu, usa); err != nil {
		return err
	}
	if err := writeReportCSV(filepath.Join(dir, "report.csv"), report.Rows); err != nil {
		return err
	}
	if err := writeTrendsCSV(filepath.Join(dir, "trends.csv"), report.Trends); err != nil {
		return err
	}
	if err := writeBreaksCSV(filepath.Join(dir, "breaks.csv"), report.Breaks); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "report.json"), report); err != nil {
		return err
	}
	return writeMetadata(filepath.Join(dir, "metadata.json"), runID, cfg)
}

// writeSeriesCSV emits the tidy per-group series consumed by the plotting
// collaborators. Values stay at full precision; the display-rounded numbers
// live in report.csv.
func writeSeriesCSV(path string, groups ...*model.GroupSeries) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := append([]string{"region", "year"}, model.Metrics...)
	header = append(header, "total_primary", "members_present", "members_expected")
	if err := w.Write(header); err != nil {
		return err
	}

	for _, g := range groups {
		for _, year := range g.Years() {
			agg := g.Aggregates[year]
			set := g.Shares[year]
			row := []string{string(g.Group), strconv.Itoa(year)}
			for _, metric := range model.Metrics {
				row = append(row, formatShare(set.Metric(metric)))
			}
			row = append(row,
				formatFloat(agg.TotalPrimary),
				strconv.Itoa(agg.MembersPresent),
				strconv.Itoa(agg.MembersExpected),
			)
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeReportCSV(path string, rows []model.ReportRow) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"year", "metric", "eu27_value", "usa_value", "difference", "status"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.Year), r.Metric,
			formatOptional(r.EU27Value), formatOptional(r.USAValue), formatOptional(r.Difference),
			r.Status,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeTrendsCSV(path string, trends []model.TrendResult) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"group", "metric", "start_year", "end_year", "start_value", "end_value", "delta", "direction"}); err != nil {
		return err
	}
	for _, t := range trends {
		record := []string{
			string(t.Group), t.Metric,
			strconv.Itoa(t.StartYear), strconv.Itoa(t.EndYear),
			formatFloat(t.StartValue), formatFloat(t.EndValue), formatFloat(t.Delta),
			t.Direction,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeBreaksCSV(path string, breaks []model.StructuralBreakResult) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"group", "metric", "pivot_year", "window_years", "pre_period_mean", "post_period_mean", "delta", "pre_years", "post_years"}); err != nil {
		return err
	}
	for _, b := range breaks {
		record := []string{
			string(b.Group), b.Metric,
			strconv.Itoa(b.PivotYear), strconv.Itoa(b.WindowYears),
			formatFloat(b.PrePeriodMean), formatFloat(b.PostPeriodMean), formatFloat(b.Delta),
			strconv.Itoa(b.PreYearCount), strconv.Itoa(b.PostYearCount),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeMetadata(path, runID string, cfg *config.Config) error {
	meta := map[string]interface{}{
		"run_id":       runID,
		"generated_at": time.Now().UTC().Format(time.RFC3339),
		"sources": map[string]string{
			cfg.Energy.ID:    cfg.Energy.URL,
			cfg.Emissions.ID: cfg.Emissions.URL,
		},
		"notes": "Shares are derived from summed member-country consumption quantities; the union aggregate is recomputed from the membership list, not taken from a pre-aggregated entity.",
	}
	return writeJSON(path, meta)
}

func formatShare(s model.Share) string {
	if !s.Defined {
		return ""
	}
	return formatFloat(s.Value)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
