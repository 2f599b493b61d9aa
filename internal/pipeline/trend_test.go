package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy-mix-pipeline/internal/model"
)

func seriesOf(group model.Group, metric string, points map[int]float64) model.Series {
	s := model.Series{Group: group, Metric: metric, Points: make(map[int]model.Share)}
	for year, v := range points {
		s.Points[year] = model.DefinedShare(v)
	}
	return s
}

func TestTrend_EUNuclearDecline(t *testing.T) {
	s := seriesOf(model.GroupEU27, model.MetricNuclearShare, map[int]float64{
		2015: 11.8,
		2020: 10.9,
		2024: 10.1,
	})

	res, err := Trend(s, 2015, 2024)
	require.NoError(t, err)
	assert.Equal(t, model.GroupEU27, res.Group)
	assert.Equal(t, 11.8, res.StartValue)
	assert.Equal(t, 10.1, res.EndValue)
	assert.InDelta(t, -1.7, res.Delta, 1e-9)
	assert.Equal(t, model.DirectionDown, res.Direction)
}

func TestTrend_USRenewableGrowth(t *testing.T) {
	s := seriesOf(model.GroupUSA, model.MetricRenewableShare, map[int]float64{
		2015: 7.2,
		2024: 12.1,
	})

	res, err := Trend(s, 2015, 2024)
	require.NoError(t, err)
	assert.InDelta(t, 4.9, res.Delta, 1e-9)
	assert.Equal(t, model.DirectionUp, res.Direction)
}

func TestTrend_FlatWithinEpsilon(t *testing.T) {
	s := seriesOf(model.GroupUSA, model.MetricGasShare, map[int]float64{
		2015: 30.00,
		2024: 30.04,
	})

	res, err := Trend(s, 2015, 2024)
	require.NoError(t, err)
	assert.Equal(t, model.DirectionFlat, res.Direction)
}

func TestTrend_EndpointOnly(t *testing.T) {
	base := map[int]float64{2015: 10, 2018: 50, 2024: 20}
	perturbed := map[int]float64{2015: 10, 2018: 3, 2024: 20}

	a, err := Trend(seriesOf(model.GroupEU27, model.MetricFossilShare, base), 2015, 2024)
	require.NoError(t, err)
	b, err := Trend(seriesOf(model.GroupEU27, model.MetricFossilShare, perturbed), 2015, 2024)
	require.NoError(t, err)

	assert.Equal(t, a.Delta, b.Delta)
}

func TestTrend_MissingStartYearFails(t *testing.T) {
	s := seriesOf(model.GroupEU27, model.MetricNuclearShare, map[int]float64{
		2016: 11.5,
		2024: 10.1,
	})

	_, err := Trend(s, 2015, 2024)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInsufficientData)
}

func TestTrend_UndefinedEndpointFails(t *testing.T) {
	s := seriesOf(model.GroupEU27, model.MetricNuclearShare, map[int]float64{2015: 11.8})
	s.Points[2024] = model.UndefinedShare()

	_, err := Trend(s, 2015, 2024)
	assert.ErrorIs(t, err, model.ErrInsufficientData)
}

func TestTrend_InvalidRange(t *testing.T) {
	s := seriesOf(model.GroupEU27, model.MetricNuclearShare, map[int]float64{2015: 11.8})

	_, err := Trend(s, 2024, 2015)
	assert.Error(t, err)
}

func TestBreakCompare_Windows(t *testing.T) {
	// Pivot 2008, window 5: pre averages 2003-2007, post averages 2008-2012.
	s := seriesOf(model.GroupUSA, model.MetricGasShare, map[int]float64{
		2002: 99, // outside both windows, must not influence the means
		2003: 20, 2004: 21, 2005: 22, 2006: 23, 2007: 24,
		2008: 30, 2009: 31, 2010: 32, 2011: 33, 2012: 34,
		2013: 99,
	})

	res, err := BreakCompare(s, 2008, 5)
	require.NoError(t, err)
	assert.InDelta(t, 22.0, res.PrePeriodMean, 1e-9)
	assert.InDelta(t, 32.0, res.PostPeriodMean, 1e-9)
	assert.InDelta(t, 10.0, res.Delta, 1e-9)
	assert.Equal(t, 5, res.PreYearCount)
	assert.Equal(t, 5, res.PostYearCount)
}

func TestBreakCompare_SparseWindowsUseDefinedYearsOnly(t *testing.T) {
	s := seriesOf(model.GroupEU27, model.MetricGasShare, map[int]float64{
		2005: 10,
		2008: 20, 2010: 40,
	})

	res, err := BreakCompare(s, 2008, 5)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, res.PrePeriodMean, 1e-9)
	assert.InDelta(t, 30.0, res.PostPeriodMean, 1e-9)
	assert.Equal(t, 1, res.PreYearCount)
	assert.Equal(t, 2, res.PostYearCount)
}

func TestBreakCompare_EmptyWindowFails(t *testing.T) {
	s := seriesOf(model.GroupEU27, model.MetricGasShare, map[int]float64{
		2008: 20, 2009: 21,
	})

	_, err := BreakCompare(s, 2008, 5)
	assert.ErrorIs(t, err, model.ErrInsufficientData)
}
