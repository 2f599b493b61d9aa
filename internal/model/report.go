package model

// Trend directions.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
	DirectionFlat = "flat"
)

// TrendResult is an endpoint-to-endpoint delta for one (group, metric) over
// a requested period. Values are unrounded.
type TrendResult struct {
	Group      Group   `json:"group"`
	Metric     string  `json:"metric"`
	StartYear  int     `json:"start_year"`
	EndYear    int     `json:"end_year"`
	StartValue float64 `json:"start_value"`
	EndValue   float64 `json:"end_value"`
	Delta      float64 `json:"delta"`
	Direction  string  `json:"direction"`
}

// StructuralBreakResult compares the mean of a metric over the window before
// a pivot year with the window from the pivot year on.
type StructuralBreakResult struct {
	Group          Group   `json:"group"`
	Metric         string  `json:"metric"`
	PivotYear      int     `json:"pivot_year"`
	WindowYears    int     `json:"window_years"`
	PrePeriodMean  float64 `json:"pre_period_mean"`
	PostPeriodMean float64 `json:"post_period_mean"`
	Delta          float64 `json:"delta"`
	PreYearCount   int     `json:"pre_year_count"`
	PostYearCount  int     `json:"post_year_count"`
}

// ReportRow is one (year, metric) of the assembled comparison table. Values
// are display-rounded percentages; nil means the metric is undefined for
// that group-year or the year is missing entirely. Status carries the
// annotation kinds affecting the row, empty when both cells are fully
// trustworthy.
type ReportRow struct {
	Year       int      `json:"year"`
	Metric     string   `json:"metric"`
	EU27Value  *float64 `json:"eu27_value"`
	USAValue   *float64 `json:"usa_value"`
	Difference *float64 `json:"difference"`
	Status     string   `json:"status,omitempty"`
}

// Report bundles the outputs of one pipeline run for the rendering and
// report collaborators.
type Report struct {
	Rows     []ReportRow             `json:"rows"`
	Trends   []TrendResult           `json:"trends"`
	Breaks   []StructuralBreakResult `json:"breaks"`
	Warnings []Annotation            `json:"warnings"`
}
