package model

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable means a raw dataset could not be obtained. Fatal to
// the run; retrying is the caller's business, not the pipeline's.
var ErrSourceUnavailable = errors.New("source unavailable")

// ErrInsufficientData means a trend or structural-break request spans years
// with no defined value. Fatal to that computation only.
var ErrInsufficientData = errors.New("insufficient data")

// SchemaMismatchError reports a required column missing from a source table.
type SchemaMismatchError struct {
	SourceID string
	Column   string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("source %s: required column %q missing", e.SourceID, e.Column)
}

// Annotation kinds attached to derived values. These are warnings carried
// alongside results, never run-aborting errors.
const (
	WarnCoverageGap     = "coverage_gap"
	WarnUndefinedMetric = "undefined_metric"
	WarnShareSumGap     = "share_sum_gap"
)

// Annotation flags one (group, year) derivation so downstream consumers can
// decide how much to trust the numbers built from it.
type Annotation struct {
	Group   Group  `json:"group"`
	Year    int    `json:"year"`
	Metric  string `json:"metric,omitempty"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (a Annotation) String() string {
	if a.Metric != "" {
		return fmt.Sprintf("%s %d %s: %s (%s)", a.Group, a.Year, a.Metric, a.Message, a.Kind)
	}
	return fmt.Sprintf("%s %d: %s (%s)", a.Group, a.Year, a.Message, a.Kind)
}
