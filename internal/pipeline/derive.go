package pipeline

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"energy-mix-pipeline/internal/model"
)

// shareSumTolerance is the allowed deviation, in percentage points, of
// nuclear+renewable+fossil from 100 before a year is flagged as having an
// unmapped source category.
const shareSumTolerance = 1.0

// Derive reduces a resolved group to per-year aggregates and share metrics.
// Returned shares are full precision; rounding belongs to the assembler.
// Non-fatal data-quality findings come back as annotations attached to the
// (group, year) they concern.
func Derive(g *ResolvedGroup, coverageThreshold float64, log zerolog.Logger) (*model.GroupSeries, []model.Annotation) {
	series := &model.GroupSeries{
		Group:      g.Group,
		Aggregates: make(map[int]model.GroupYearAggregate),
		Shares:     make(map[int]model.ShareSet),
	}
	var warnings []model.Annotation

	for _, year := range g.SortedYears() {
		agg, shares, anns := DeriveGroupYear(g, year, coverageThreshold)
		series.Aggregates[year] = agg
		series.Shares[year] = shares
		warnings = append(warnings, anns...)
	}

	log.Info().Str("group", string(g.Group)).
		Int("years", len(series.Aggregates)).
		Int("warnings", len(warnings)).
		Msg("metrics derived")
	return series, warnings
}

// DeriveGroupYear sums the quantity fields of every member row present for
// the year and computes the share metrics. A year with zero total primary
// energy gets undefined shares, never a division fault and never a silent
// zero.
func DeriveGroupYear(g *ResolvedGroup, year int, coverageThreshold float64) (model.GroupYearAggregate, model.ShareSet, []model.Annotation) {
	records := g.Years[year]
	agg := model.GroupYearAggregate{
		Group:           g.Group,
		Year:            year,
		Quantities:      make(map[string]float64, len(model.EnergyQuantityFields)),
		MembersExpected: len(g.Expected),
		MembersPresent:  len(records),
		MissingMembers:  g.MissingMembers(year),
	}
	for _, rec := range records {
		for _, field := range model.EnergyQuantityFields {
			agg.Quantities[field] += rec.Quantity(field)
		}
	}

	agg.FossilTotal = agg.Quantities[model.QtyCoal] + agg.Quantities[model.QtyOil] + agg.Quantities[model.QtyGas]
	agg.RenewableTotal = agg.Quantities[model.QtyWind] + agg.Quantities[model.QtySolar] +
		agg.Quantities[model.QtyHydro] + agg.Quantities[model.QtyOtherRenewables]
	agg.TotalPrimary = agg.FossilTotal + agg.Quantities[model.QtyNuclear] + agg.RenewableTotal

	var warnings []model.Annotation
	if ratio := coverageRatio(agg); ratio < coverageThreshold {
		warnings = append(warnings, model.Annotation{
			Group: g.Group,
			Year:  year,
			Kind:  model.WarnCoverageGap,
			Message: fmt.Sprintf("aggregate covers %d of %d members (missing: %s)",
				agg.MembersPresent, agg.MembersExpected, summarizeNames(agg.MissingMembers)),
		})
	}

	if agg.TotalPrimary == 0 {
		warnings = append(warnings, model.Annotation{
			Group:   g.Group,
			Year:    year,
			Kind:    model.WarnUndefinedMetric,
			Message: "total primary energy is zero; share metrics are undefined",
		})
		return agg, model.ShareSet{}, warnings
	}

	nuclear := 100 * agg.Quantities[model.QtyNuclear] / agg.TotalPrimary
	renewable := 100 * agg.RenewableTotal / agg.TotalPrimary
	fossil := 100 * agg.FossilTotal / agg.TotalPrimary
	gas := 100 * agg.Quantities[model.QtyGas] / agg.TotalPrimary

	shares := model.ShareSet{
		Nuclear:   model.DefinedShare(nuclear),
		Renewable: model.DefinedShare(renewable),
		Fossil:    model.DefinedShare(fossil),
		// Low carbon is nuclear plus renewable by construction, not an
		// independently measured quantity.
		LowCarbon: model.DefinedShare(nuclear + renewable),
		Gas:       model.DefinedShare(gas),
	}

	if gap, exceeded := shareSumGap(nuclear, renewable, fossil); exceeded {
		warnings = append(warnings, model.Annotation{
			Group: g.Group,
			Year:  year,
			Kind:  model.WarnShareSumGap,
			Message: fmt.Sprintf("nuclear+renewable+fossil deviates from 100%% by %.2f points; a source category may be missing or unmapped",
				gap),
		})
	}
	return agg, shares, warnings
}

// shareSumGap measures how far the three component shares land from 100.
// TotalPrimary is built from the same fossil, nuclear and renewable sums
// that feed the numerators, so the gap stays at float noise; it can only
// exceed the tolerance if the total's composition ever diverges from the
// share numerators.
func shareSumGap(nuclear, renewable, fossil float64) (float64, bool) {
	gap := math.Abs(nuclear + renewable + fossil - 100)
	return gap, gap > shareSumTolerance
}

func coverageRatio(agg model.GroupYearAggregate) float64 {
	if agg.MembersExpected == 0 {
		return 1
	}
	return float64(agg.MembersPresent) / float64(agg.MembersExpected)
}

func summarizeNames(names []string) string {
	const max = 5
	if len(names) <= max {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(names[:max], ", "), len(names)-max)
}
