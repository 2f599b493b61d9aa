package pipeline

import (
	"sort"

	"github.com/rs/zerolog"

	"energy-mix-pipeline/internal/model"
)

// ResolvedGroup is one group's slice of the raw table: for the union group
// one row per member country per year, not yet summed. Reduction happens in
// the deriver.
type ResolvedGroup struct {
	Group    model.Group
	Expected []string
	Years    map[int][]model.RawRecord
}

// Resolve restricts a raw table to the members of one group. Entities absent
// from every group's membership are excluded without comment; they belong to
// neither side of the comparison. Membership is passed in explicitly so two
// concurrent group definitions can never interfere.
func Resolve(table *model.RawTable, group model.Group, membership model.Membership, log zerolog.Logger) *ResolvedGroup {
	expected := membership.Members(group)
	isMember := make(map[string]bool, len(expected))
	for _, name := range expected {
		isMember[name] = true
	}

	resolved := &ResolvedGroup{
		Group:    group,
		Expected: expected,
		Years:    make(map[int][]model.RawRecord),
	}
	matched := 0
	for _, rec := range table.Records {
		if !isMember[rec.Entity] {
			continue
		}
		resolved.Years[rec.Year] = append(resolved.Years[rec.Year], rec)
		matched++
	}

	log.Debug().Str("group", string(group)).
		Str("source", table.SourceID).
		Int("members", len(expected)).
		Int("records", matched).
		Int("years", len(resolved.Years)).
		Msg("group resolved")
	return resolved
}

// MissingMembers lists the member entities the group expects but has no raw
// row for in the given year. A missing member contributes nothing to the
// year's aggregate; it is a coverage gap, not a zero.
func (g *ResolvedGroup) MissingMembers(year int) []string {
	present := make(map[string]bool, len(g.Years[year]))
	for _, rec := range g.Years[year] {
		present[rec.Entity] = true
	}
	var missing []string
	for _, name := range g.Expected {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// SortedYears returns the years the group has at least one member row for.
func (g *ResolvedGroup) SortedYears() []int {
	years := make([]int, 0, len(g.Years))
	for y := range g.Years {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
