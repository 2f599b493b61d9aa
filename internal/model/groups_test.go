package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMembership(t *testing.T) {
	m := DefaultMembership()

	assert.Len(t, m.Members(GroupEU27), 27)
	assert.Equal(t, []string{"United States"}, m.Members(GroupUSA))
	assert.ElementsMatch(t, []Group{GroupEU27, GroupUSA}, m.Groups())

	// Post-Brexit roster: no UK, Czechia under its current name.
	assert.NotContains(t, m.Members(GroupEU27), "United Kingdom")
	assert.Contains(t, m.Members(GroupEU27), "Czechia")
}

func TestNewMembership_RejectsOverlap(t *testing.T) {
	_, err := NewMembership(map[Group][]string{
		GroupEU27: {"France", "Germany"},
		GroupUSA:  {"France"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "France")
}

func TestNewMembership_RejectsEmptyGroup(t *testing.T) {
	_, err := NewMembership(map[Group][]string{
		GroupEU27: {"France"},
		GroupUSA:  {},
	})
	assert.Error(t, err)
}

func TestMembership_MembersReturnsCopy(t *testing.T) {
	m, err := NewMembership(map[Group][]string{GroupEU27: {"France", "Germany"}})
	require.NoError(t, err)

	got := m.Members(GroupEU27)
	got[0] = "mutated"
	assert.Equal(t, []string{"France", "Germany"}, m.Members(GroupEU27))
}
