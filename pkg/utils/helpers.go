package utils

import (
	"math"
	"strconv"
	"strings"
)

// ParseCell parses a CSV cell as a number. The second return is false for an
// empty or non-numeric cell, which callers must keep distinct from zero.
func ParseCell(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseYear parses a CSV cell as an integer year.
func ParseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return y, true
}

// Round1 rounds a value to one decimal place. Display use only; derived
// series keep full precision.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// FormatPct renders a display percentage with one decimal.
func FormatPct(v float64) string {
	return strconv.FormatFloat(Round1(v), 'f', 1, 64)
}
