package pipeline

import (
	"fmt"
	"math"

	"energy-mix-pipeline/internal/model"
)

// directionEpsilon is the band, in percentage points, inside which a delta
// is reported as flat rather than as a trend.
const directionEpsilon = 0.05

// Trend computes the endpoint-to-endpoint delta of a series over a period.
// Both endpoints must have defined values; nearby years are never
// substituted. Interior years do not influence the result.
func Trend(series model.Series, startYear, endYear int) (model.TrendResult, error) {
	if startYear >= endYear {
		return model.TrendResult{}, fmt.Errorf("trend period %d-%d is not a valid range", startYear, endYear)
	}
	start, err := definedAt(series, startYear)
	if err != nil {
		return model.TrendResult{}, err
	}
	end, err := definedAt(series, endYear)
	if err != nil {
		return model.TrendResult{}, err
	}

	delta := end - start
	return model.TrendResult{
		Group:      series.Group,
		Metric:     series.Metric,
		StartYear:  startYear,
		EndYear:    endYear,
		StartValue: start,
		EndValue:   end,
		Delta:      delta,
		Direction:  direction(delta),
	}, nil
}

// BreakCompare averages a metric over the window immediately before a pivot
// year and the window from the pivot year on (pivot inclusive on the post
// side), using only years with defined values.
func BreakCompare(series model.Series, pivotYear, windowYears int) (model.StructuralBreakResult, error) {
	if windowYears < 1 {
		return model.StructuralBreakResult{}, fmt.Errorf("break window must be at least 1 year, got %d", windowYears)
	}

	preMean, preCount := windowMean(series, pivotYear-windowYears, pivotYear-1)
	if preCount == 0 {
		return model.StructuralBreakResult{}, fmt.Errorf(
			"%w: %s %s has no defined value in pre-pivot window %d-%d",
			model.ErrInsufficientData, series.Group, series.Metric, pivotYear-windowYears, pivotYear-1)
	}
	postMean, postCount := windowMean(series, pivotYear, pivotYear+windowYears-1)
	if postCount == 0 {
		return model.StructuralBreakResult{}, fmt.Errorf(
			"%w: %s %s has no defined value in post-pivot window %d-%d",
			model.ErrInsufficientData, series.Group, series.Metric, pivotYear, pivotYear+windowYears-1)
	}

	return model.StructuralBreakResult{
		Group:          series.Group,
		Metric:         series.Metric,
		PivotYear:      pivotYear,
		WindowYears:    windowYears,
		PrePeriodMean:  preMean,
		PostPeriodMean: postMean,
		Delta:          postMean - preMean,
		PreYearCount:   preCount,
		PostYearCount:  postCount,
	}, nil
}

func definedAt(series model.Series, year int) (float64, error) {
	share, ok := series.At(year)
	if !ok || !share.Defined {
		return 0, fmt.Errorf("%w: %s %s has no defined value for year %d",
			model.ErrInsufficientData, series.Group, series.Metric, year)
	}
	return share.Value, nil
}

func windowMean(series model.Series, fromYear, toYear int) (float64, int) {
	var sum float64
	count := 0
	for year := fromYear; year <= toYear; year++ {
		if share, ok := series.At(year); ok && share.Defined {
			sum += share.Value
			count++
		}
	}
	if count == 0 {
		return 0, 0
	}
	return sum / float64(count), count
}

func direction(delta float64) string {
	switch {
	case math.Abs(delta) < directionEpsilon:
		return model.DirectionFlat
	case delta > 0:
		return model.DirectionUp
	default:
		return model.DirectionDown
	}
}
