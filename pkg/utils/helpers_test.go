package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCell(t *testing.T) {
	v, ok := ParseCell(" 42.5 ")
	assert.True(t, ok)
	assert.Equal(t, 42.5, v)

	_, ok = ParseCell("")
	assert.False(t, ok)

	_, ok = ParseCell("n/a")
	assert.False(t, ok)
}

func TestParseYear(t *testing.T) {
	y, ok := ParseYear("2020")
	assert.True(t, ok)
	assert.Equal(t, 2020, y)

	_, ok = ParseYear("2020.5")
	assert.False(t, ok)
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 11.8, Round1(11.84213))
	assert.Equal(t, 11.9, Round1(11.86))
	assert.Equal(t, -1.7, Round1(-1.7499))
	assert.Equal(t, 0.0, Round1(0.04))
}
