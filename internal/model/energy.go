package model

import "sort"

// Canonical quantity field names for the energy-consumption source. All
// quantities are terawatt-hours.
const (
	QtyCoal            = "coal"
	QtyOil             = "oil"
	QtyGas             = "gas"
	QtyNuclear         = "nuclear"
	QtyWind            = "wind"
	QtySolar           = "solar"
	QtyHydro           = "hydro"
	QtyOtherRenewables = "other_renewables"
)

// EnergyQuantityFields lists the quantity columns the energy source must carry.
var EnergyQuantityFields = []string{
	QtyCoal, QtyOil, QtyGas, QtyNuclear,
	QtyWind, QtySolar, QtyHydro, QtyOtherRenewables,
}

// EmissionsQuantityFields lists the quantity columns of the CO2 context source.
var EmissionsQuantityFields = []string{"co2", "co2_per_capita"}

// RawRecord is one (entity, year) row of an upstream table. Quantities holds
// the named numeric columns; a column whose cell was empty is absent from the
// map, which is not the same thing as a zero reading.
type RawRecord struct {
	Entity     string             `json:"entity"`
	Year       int                `json:"year"`
	Quantities map[string]float64 `json:"quantities"`
}

// Quantity returns the named quantity, treating an absent cell as zero
// contribution to a sum.
func (r RawRecord) Quantity(name string) float64 {
	return r.Quantities[name]
}

// RawTable is an immutable in-memory copy of one upstream dataset.
type RawTable struct {
	SourceID string
	Records  []RawRecord
}

// GroupYearAggregate is the sum of quantity fields across all member
// entities present for one (group, year), together with the coverage of
// that sum.
type GroupYearAggregate struct {
	Group           Group              `json:"group"`
	Year            int                `json:"year"`
	Quantities      map[string]float64 `json:"quantities"`
	FossilTotal     float64            `json:"fossil_total"`
	RenewableTotal  float64            `json:"renewable_total"`
	TotalPrimary    float64            `json:"total_primary"`
	MembersExpected int                `json:"members_expected"`
	MembersPresent  int                `json:"members_present"`
	MissingMembers  []string           `json:"missing_members,omitempty"`
}

// CoverageGap reports whether the aggregate was built from fewer member
// entities than the group expects.
func (a GroupYearAggregate) CoverageGap() bool {
	return a.MembersPresent < a.MembersExpected
}

// Share is a percentage of total primary energy. Defined is false when the
// group-year had zero total primary energy; consumers must check it before
// using Value.
type Share struct {
	Value   float64 `json:"value"`
	Defined bool    `json:"defined"`
}

// DefinedShare builds a defined Share.
func DefinedShare(v float64) Share { return Share{Value: v, Defined: true} }

// UndefinedShare marks a metric that cannot be computed for a group-year.
func UndefinedShare() Share { return Share{} }

// Metric names derived per group per year.
const (
	MetricNuclearShare   = "nuclear_share"
	MetricRenewableShare = "renewable_share"
	MetricFossilShare    = "fossil_share"
	MetricLowCarbonShare = "low_carbon_share"
	MetricGasShare       = "gas_share"
)

// Metrics lists every derived share metric in report order.
var Metrics = []string{
	MetricNuclearShare,
	MetricRenewableShare,
	MetricFossilShare,
	MetricLowCarbonShare,
	MetricGasShare,
}

// ShareSet holds the five derived metrics for one group-year.
type ShareSet struct {
	Nuclear   Share `json:"nuclear_share"`
	Renewable Share `json:"renewable_share"`
	Fossil    Share `json:"fossil_share"`
	LowCarbon Share `json:"low_carbon_share"`
	Gas       Share `json:"gas_share"`
}

// Metric returns the named share from the set.
func (s ShareSet) Metric(name string) Share {
	switch name {
	case MetricNuclearShare:
		return s.Nuclear
	case MetricRenewableShare:
		return s.Renewable
	case MetricFossilShare:
		return s.Fossil
	case MetricLowCarbonShare:
		return s.LowCarbon
	case MetricGasShare:
		return s.Gas
	}
	return UndefinedShare()
}

// Series is the year-indexed run of one metric for one group. Years with no
// aggregate at all simply have no point; years with a zero-energy aggregate
// carry an undefined Share.
type Series struct {
	Group  Group         `json:"group"`
	Metric string        `json:"metric"`
	Points map[int]Share `json:"points"`
}

// At returns the share for a year and whether the year has any point.
func (s Series) At(year int) (Share, bool) {
	sh, ok := s.Points[year]
	return sh, ok
}

// DefinedAt reports whether the series has a defined value for the year.
func (s Series) DefinedAt(year int) bool {
	sh, ok := s.Points[year]
	return ok && sh.Defined
}

// GroupSeries bundles everything derived for one group: the per-year
// aggregates and one Series per metric.
type GroupSeries struct {
	Group      Group                      `json:"group"`
	Aggregates map[int]GroupYearAggregate `json:"aggregates"`
	Shares     map[int]ShareSet           `json:"shares"`
}

// SeriesFor projects one metric out of the group's share sets.
func (g GroupSeries) SeriesFor(metric string) Series {
	points := make(map[int]Share, len(g.Shares))
	for year, set := range g.Shares {
		points[year] = set.Metric(metric)
	}
	return Series{Group: g.Group, Metric: metric, Points: points}
}

// Years returns the sorted years the group has aggregates for.
func (g GroupSeries) Years() []int {
	years := make([]int, 0, len(g.Aggregates))
	for y := range g.Aggregates {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
