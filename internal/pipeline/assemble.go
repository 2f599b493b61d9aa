package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"energy-mix-pipeline/internal/model"
	"energy-mix-pipeline/pkg/utils"
)

// Assemble joins the two groups' share series into the wide comparison
// table: one row per (year, metric) with a column per group, a difference
// column (EU27 minus USA), and a status column surfacing the annotations
// affecting either cell. This is the only place values are rounded; every
// upstream number keeps full precision.
func Assemble(eu, usa *model.GroupSeries, warnings []model.Annotation) []model.ReportRow {
	years := unionYears(eu, usa)
	status := statusIndex(warnings)

	rows := make([]model.ReportRow, 0, len(years)*len(model.Metrics))
	for _, year := range years {
		for _, metric := range model.Metrics {
			row := model.ReportRow{Year: year, Metric: metric}

			if share, ok := shareAt(eu, year, metric); ok {
				row.EU27Value = roundedPtr(share)
			}
			if share, ok := shareAt(usa, year, metric); ok {
				row.USAValue = roundedPtr(share)
			}
			if row.EU27Value != nil && row.USAValue != nil {
				// Subtracting two one-decimal values reintroduces float
				// residue; the difference is a display column too.
				diff := utils.Round1(*row.EU27Value - *row.USAValue)
				row.Difference = &diff
			}
			row.Status = status.forYear(year)
			rows = append(rows, row)
		}
	}
	return rows
}

func shareAt(g *model.GroupSeries, year int, metric string) (model.Share, bool) {
	set, ok := g.Shares[year]
	if !ok {
		return model.Share{}, false
	}
	share := set.Metric(metric)
	return share, share.Defined
}

func roundedPtr(share model.Share) *float64 {
	v := utils.Round1(share.Value)
	return &v
}

func unionYears(eu, usa *model.GroupSeries) []int {
	seen := make(map[int]bool)
	for y := range eu.Shares {
		seen[y] = true
	}
	for y := range usa.Shares {
		seen[y] = true
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// statusEntries maps a year to the deduplicated "GROUP:kind" markers raised
// while deriving either group's aggregate for that year.
type statusEntries map[int][]string

func statusIndex(warnings []model.Annotation) statusEntries {
	idx := make(statusEntries)
	seen := make(map[string]bool)
	for _, w := range warnings {
		entry := fmt.Sprintf("%s:%s", w.Group, w.Kind)
		key := fmt.Sprintf("%d/%s", w.Year, entry)
		if seen[key] {
			continue
		}
		seen[key] = true
		idx[w.Year] = append(idx[w.Year], entry)
	}
	for year := range idx {
		sort.Strings(idx[year])
	}
	return idx
}

func (s statusEntries) forYear(year int) string {
	return strings.Join(s[year], ",")
}
