package model

import "fmt"

// Group identifies one of the compared jurisdictions.
type Group string

const (
	GroupEU27 Group = "EU27"
	GroupUSA  Group = "USA"
)

// Membership maps a group to the raw-table entity names that belong to it.
// It is built once per run and passed explicitly into the resolver; nothing
// reads membership from package-level state.
type Membership struct {
	members map[Group][]string
}

// NewMembership validates and freezes a group → entities mapping. The groups
// must be disjoint and every group must have at least one member.
func NewMembership(members map[Group][]string) (Membership, error) {
	seen := make(map[string]Group)
	for group, names := range members {
		if len(names) == 0 {
			return Membership{}, fmt.Errorf("group %s has no members", group)
		}
		for _, name := range names {
			if name == "" {
				return Membership{}, fmt.Errorf("group %s has an empty member name", group)
			}
			if other, ok := seen[name]; ok && other != group {
				return Membership{}, fmt.Errorf("entity %q belongs to both %s and %s", name, other, group)
			}
			seen[name] = group
		}
	}
	frozen := make(map[Group][]string, len(members))
	for group, names := range members {
		frozen[group] = append([]string(nil), names...)
	}
	return Membership{members: frozen}, nil
}

// Members returns a copy of the entity names for a group.
func (m Membership) Members(group Group) []string {
	return append([]string(nil), m.members[group]...)
}

// Groups returns the configured group identifiers.
func (m Membership) Groups() []Group {
	groups := make([]Group, 0, len(m.members))
	for g := range m.members {
		groups = append(groups, g)
	}
	return groups
}

// EU27Members are the entity names of the 27 union countries as they appear
// in the upstream tables.
var EU27Members = []string{
	"Austria", "Belgium", "Bulgaria", "Croatia", "Cyprus", "Czechia",
	"Denmark", "Estonia", "Finland", "France", "Germany", "Greece",
	"Hungary", "Ireland", "Italy", "Latvia", "Lithuania", "Luxembourg",
	"Malta", "Netherlands", "Poland", "Portugal", "Romania", "Slovakia",
	"Slovenia", "Spain", "Sweden",
}

// USAMembers is the single entity of the country group.
var USAMembers = []string{"United States"}

// DefaultMembership builds the EU27 vs USA comparison groups.
func DefaultMembership() Membership {
	m, err := NewMembership(map[Group][]string{
		GroupEU27: EU27Members,
		GroupUSA:  USAMembers,
	})
	if err != nil {
		// Static lists; a failure here is a programming error.
		panic(err)
	}
	return m
}
