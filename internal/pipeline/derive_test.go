package pipeline

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy-mix-pipeline/internal/model"
)

func rec(entity string, year int, coal, oil, gas, nuclear, wind, solar, hydro, other float64) model.RawRecord {
	return model.RawRecord{
		Entity: entity,
		Year:   year,
		Quantities: map[string]float64{
			model.QtyCoal: coal, model.QtyOil: oil, model.QtyGas: gas,
			model.QtyNuclear: nuclear, model.QtyWind: wind, model.QtySolar: solar,
			model.QtyHydro: hydro, model.QtyOtherRenewables: other,
		},
	}
}

func resolvedFrom(group model.Group, members []string, records ...model.RawRecord) *ResolvedGroup {
	table := &model.RawTable{SourceID: "test", Records: records}
	membership, err := model.NewMembership(map[model.Group][]string{group: members})
	if err != nil {
		panic(err)
	}
	return Resolve(table, group, membership, zerolog.Nop())
}

func TestDeriveGroupYear_SumsAcrossMembers(t *testing.T) {
	g := resolvedFrom(model.GroupEU27, []string{"France", "Germany"},
		rec("France", 2020, 10, 10, 20, 30, 5, 5, 5, 15),
		rec("Germany", 2020, 5, 5, 10, 10, 10, 5, 0, 5),
	)

	agg, shares, warnings := DeriveGroupYear(g, 2020, 1.0)
	require.Empty(t, warnings)

	assert.Equal(t, 60.0, agg.FossilTotal)
	assert.Equal(t, 50.0, agg.RenewableTotal)
	assert.Equal(t, 150.0, agg.TotalPrimary)
	assert.Equal(t, 2, agg.MembersPresent)
	assert.Equal(t, 2, agg.MembersExpected)

	require.True(t, shares.Nuclear.Defined)
	assert.InDelta(t, 100*40.0/150.0, shares.Nuclear.Value, 1e-9)
	assert.InDelta(t, 100*50.0/150.0, shares.Renewable.Value, 1e-9)
	assert.InDelta(t, 100*60.0/150.0, shares.Fossil.Value, 1e-9)
	assert.InDelta(t, 20.0, shares.Gas.Value, 1e-9)
}

func TestDeriveGroupYear_LowCarbonIsNuclearPlusRenewable(t *testing.T) {
	g := resolvedFrom(model.GroupEU27, []string{"France"},
		rec("France", 2020, 7, 11, 13, 17, 3, 2, 5, 1),
	)

	_, shares, _ := DeriveGroupYear(g, 2020, 1.0)
	require.True(t, shares.LowCarbon.Defined)
	// Exact by construction, not within a tolerance.
	assert.Equal(t, shares.Nuclear.Value+shares.Renewable.Value, shares.LowCarbon.Value)
}

func TestDeriveGroupYear_ShareSumNear100(t *testing.T) {
	g := resolvedFrom(model.GroupUSA, []string{"United States"},
		rec("United States", 2020, 100.3, 200.7, 300.1, 150.9, 40.2, 30.8, 60.4, 20.6),
	)

	_, shares, warnings := DeriveGroupYear(g, 2020, 1.0)
	assert.Empty(t, warnings)
	sum := shares.Nuclear.Value + shares.Renewable.Value + shares.Fossil.Value
	assert.InDelta(t, 100.0, sum, 1.0)
}

func TestDeriveGroupYear_ZeroTotalIsUndefinedNotZero(t *testing.T) {
	g := resolvedFrom(model.GroupEU27, []string{"Malta"},
		model.RawRecord{Entity: "Malta", Year: 2020, Quantities: map[string]float64{}},
	)

	agg, shares, warnings := DeriveGroupYear(g, 2020, 1.0)
	assert.Equal(t, 0.0, agg.TotalPrimary)
	assert.False(t, shares.Nuclear.Defined)
	assert.False(t, shares.Renewable.Defined)
	assert.False(t, shares.Fossil.Defined)
	assert.False(t, shares.LowCarbon.Defined)
	assert.False(t, shares.Gas.Defined)

	require.Len(t, warnings, 1)
	assert.Equal(t, model.WarnUndefinedMetric, warnings[0].Kind)
}

func TestDeriveGroupYear_MissingMemberIsGapNotZero(t *testing.T) {
	g := resolvedFrom(model.GroupEU27, []string{"France", "Germany", "Italy"},
		rec("France", 2020, 0, 0, 0, 50, 0, 0, 0, 0),
		rec("Germany", 2020, 0, 0, 0, 50, 0, 0, 0, 0),
	)

	agg, shares, warnings := DeriveGroupYear(g, 2020, 1.0)

	// The aggregate is built from the two present members, not from three
	// members with a zero standing in for Italy.
	assert.Equal(t, 100.0, agg.TotalPrimary)
	assert.Equal(t, 2, agg.MembersPresent)
	assert.Equal(t, 3, agg.MembersExpected)
	assert.Equal(t, []string{"Italy"}, agg.MissingMembers)
	assert.True(t, agg.CoverageGap())
	assert.True(t, shares.Nuclear.Defined)

	require.Len(t, warnings, 1)
	assert.Equal(t, model.WarnCoverageGap, warnings[0].Kind)
	assert.Contains(t, warnings[0].Message, "2 of 3")
	assert.Contains(t, warnings[0].Message, "Italy")
}

func TestDeriveGroupYear_CoverageThresholdRelaxesFlag(t *testing.T) {
	g := resolvedFrom(model.GroupEU27, []string{"France", "Germany", "Italy"},
		rec("France", 2020, 1, 1, 1, 1, 1, 1, 1, 1),
		rec("Germany", 2020, 1, 1, 1, 1, 1, 1, 1, 1),
	)

	_, _, warnings := DeriveGroupYear(g, 2020, 0.5)
	assert.Empty(t, warnings)
}

func TestShareSumGap(t *testing.T) {
	// Shares summing to 90 mean a tenth of the total has no mapped category.
	gap, exceeded := shareSumGap(40, 30, 20)
	assert.True(t, exceeded)
	assert.InDelta(t, 10.0, gap, 1e-9)

	_, exceeded = shareSumGap(40, 30, 29.5)
	assert.False(t, exceeded)
}

func TestDerive_Deterministic(t *testing.T) {
	g := resolvedFrom(model.GroupEU27, []string{"France", "Germany"},
		rec("France", 2019, 10, 10, 20, 30, 5, 5, 5, 15),
		rec("Germany", 2019, 5, 5, 10, 10, 10, 5, 0, 5),
		rec("France", 2020, 11, 9, 21, 29, 6, 4, 6, 14),
	)

	a, warnA := Derive(g, 1.0, zerolog.Nop())
	b, warnB := Derive(g, 1.0, zerolog.Nop())
	assert.Equal(t, a, b)
	assert.Equal(t, warnA, warnB)
}
