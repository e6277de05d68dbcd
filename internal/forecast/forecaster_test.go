package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
)

const tolerance = 0.01

func monthly(values ...float64) []core.SeriesPoint {
	out := make([]core.SeriesPoint, len(values))
	for i, v := range values {
		out[i] = core.SeriesPoint{
			PeriodStart: time.Date(2024, time.Month(1+i), 1, 0, 0, 0, 0, time.UTC),
			Value:       decimal.NewFromFloat(v),
			Observed:    true,
		}
	}
	return out
}

func daily(values ...float64) []core.SeriesPoint {
	out := make([]core.SeriesPoint, len(values))
	for i, v := range values {
		out[i] = core.SeriesPoint{
			PeriodStart: time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
			Value:       decimal.NewFromFloat(v),
			Observed:    true,
		}
	}
	return out
}

func mustForecaster(t *testing.T, m Model, p Policy) *Forecaster {
	t.Helper()
	f, err := New(m, p)
	require.NoError(t, err)
	return f
}

func TestForecast_SinglePeriodIsInsufficient(t *testing.T) {
	for _, p := range []Policy{DailyPolicy(), MonthlyPolicy()} {
		res := mustForecaster(t, nil, p).Forecast(daily(120)[:1])
		assert.Equal(t, core.InsufficientData, res.Status)
		assert.Nil(t, res.PointEstimate)
		assert.Equal(t, 1, res.Observed)
	}
}

func TestForecast_EmptySeries(t *testing.T) {
	res := mustForecaster(t, nil, DailyPolicy()).Forecast(nil)
	assert.Equal(t, core.InsufficientData, res.Status)
	assert.True(t, res.TargetPeriod.IsZero())
}

func TestForecast_MonthlyFloor(t *testing.T) {
	f := mustForecaster(t, nil, MonthlyPolicy())

	two := f.Forecast(monthly(600, -200))
	assert.Equal(t, core.InsufficientData, two.Status)
	assert.Nil(t, two.PointEstimate)

	three := f.Forecast(monthly(600, -200, 100))
	require.Equal(t, core.Fitted, three.Status, three.Reason)
	require.NotNil(t, three.PointEstimate)
	assert.True(t, three.TargetPeriod.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))
}

func TestForecast_DailyTwoPointsFit(t *testing.T) {
	res := mustForecaster(t, nil, DailyPolicy()).Forecast(daily(10, 20))
	require.Equal(t, core.Fitted, res.Status, res.Reason)
	// y = 10 + 10t, target t = 1 + 30.
	assert.InDelta(t, 320.0, res.PointEstimate.InexactFloat64(), tolerance)
	assert.Nil(t, res.LowerBound, "no residual degrees of freedom, no interval")
	assert.True(t, res.TargetPeriod.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestForecast_LinearTrend(t *testing.T) {
	res := mustForecaster(t, nil, MonthlyPolicy()).Forecast(monthly(100, 150, 200, 250, 300, 350))
	require.Equal(t, core.Fitted, res.Status, res.Reason)
	assert.InDelta(t, 400.0, res.PointEstimate.InexactFloat64(), tolerance)
	require.NotNil(t, res.LowerBound)
	require.NotNil(t, res.UpperBound)
	assert.InDelta(t, 400.0, res.LowerBound.InexactFloat64(), tolerance)
	assert.InDelta(t, 400.0, res.UpperBound.InexactFloat64(), tolerance)
}

func TestForecast_IntervalBracketsEstimate(t *testing.T) {
	res := mustForecaster(t, nil, MonthlyPolicy()).Forecast(monthly(120, 80, 200, 90, 260, 150, 310))
	require.Equal(t, core.Fitted, res.Status, res.Reason)
	require.NotNil(t, res.LowerBound)
	assert.True(t, res.LowerBound.LessThan(*res.PointEstimate))
	assert.True(t, res.UpperBound.GreaterThan(*res.PointEstimate))
}

func TestForecast_WeeklySeasonality(t *testing.T) {
	pattern := []float64{50, -20, -20, -10, 0, 300, 400}
	values := make([]float64, 28)
	for i := range values {
		values[i] = pattern[i%7]
	}
	res := mustForecaster(t, nil, DailyPolicy()).Forecast(daily(values...))
	require.Equal(t, core.Fitted, res.Status, res.Reason)
	// Last index 27, horizon 30: index 57 falls on phase 1.
	assert.InDelta(t, pattern[57%7], res.PointEstimate.InexactFloat64(), tolerance)
}

func TestForecast_StableAcrossCalls(t *testing.T) {
	f := mustForecaster(t, nil, MonthlyPolicy())
	series := monthly(120, 80, 200, 90, 260, 150, 310, 220)
	first := f.Forecast(series)
	for i := 0; i < 5; i++ {
		again := f.Forecast(series)
		require.Equal(t, core.Fitted, again.Status)
		assert.InDelta(t, first.PointEstimate.InexactFloat64(), again.PointEstimate.InexactFloat64(), tolerance)
	}
}

func TestForecast_IgnoresUnobservedPeriods(t *testing.T) {
	series := monthly(600, 0, -200, 0)
	series[1].Observed = false
	series[3].Observed = false

	res := mustForecaster(t, nil, MonthlyPolicy()).Forecast(series)
	assert.Equal(t, core.InsufficientData, res.Status)
	assert.Equal(t, 2, res.Observed)
	assert.True(t, res.TargetPeriod.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)))
}

type stubModel struct {
	p     Projection
	err   error
	panic bool
}

func (s stubModel) Name() string { return "stub" }

func (s stubModel) FitAndProject([]core.SeriesPoint, core.Granularity, int) (Projection, error) {
	if s.panic {
		panic("boom")
	}
	return s.p, s.err
}

func TestForecast_FitFailures(t *testing.T) {
	cases := []struct {
		name  string
		model stubModel
	}{
		{"error", stubModel{err: ErrDegenerate}},
		{"panic", stubModel{panic: true}},
		{"nan", stubModel{p: Projection{Estimate: math.NaN()}}},
		{"inf bound", stubModel{p: Projection{Estimate: 1, Lower: math.Inf(-1), Upper: 2, HasInterval: true}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := mustForecaster(t, tc.model, DailyPolicy()).Forecast(daily(1, 2, 3))
			assert.Equal(t, core.FitFailed, res.Status)
			assert.Nil(t, res.PointEstimate)
			assert.Nil(t, res.LowerBound)
			assert.NotEmpty(t, res.Reason)
			assert.Equal(t, "stub", res.Model)
		})
	}
}

func TestAdditiveModel_SparseDailyFallsBackToTrend(t *testing.T) {
	// Seven points over fourteen days cover every weekday but cannot pay for
	// eight seasonal parameters.
	var series []core.SeriesPoint
	for _, day := range []int{0, 1, 2, 3, 4, 5, 13} {
		series = append(series, core.SeriesPoint{
			PeriodStart: time.Date(2024, 1, 1+day, 0, 0, 0, 0, time.UTC),
			Value:       decimal.NewFromInt(int64(10 + 2*day)),
			Observed:    true,
		})
	}

	p, err := NewAdditiveModel().FitAndProject(series, core.Day, 1)
	require.NoError(t, err)
	assert.InDelta(t, 38, p.Estimate, tolerance)
}

func TestAdditiveModel_Degenerate(t *testing.T) {
	_, err := NewAdditiveModel().FitAndProject(daily(5), core.Day, 1)
	assert.True(t, errors.Is(err, ErrDegenerate))
}

func TestPolicyValidate(t *testing.T) {
	assert.NoError(t, DailyPolicy().Validate())
	assert.NoError(t, MonthlyPolicy().Validate())
	assert.Error(t, Policy{Granularity: core.Month, MinPeriods: 1, Horizon: 1}.Validate())
	assert.Error(t, Policy{Granularity: core.Month, MinPeriods: 3, Horizon: 0}.Validate())
	assert.Error(t, Policy{Granularity: "week", MinPeriods: 3, Horizon: 1}.Validate())

	_, err := New(nil, Policy{})
	assert.Error(t, err)
	assert.Equal(t, core.Day, PolicyFor(core.Day).Granularity)
	assert.Equal(t, 3, PolicyFor(core.Month).MinPeriods)
}

func TestPolicyWithOverrides(t *testing.T) {
	p := MonthlyPolicy().WithOverrides(0, 0)
	assert.Equal(t, MonthlyPolicy(), p)

	p = DailyPolicy().WithOverrides(5, 7)
	assert.Equal(t, 5, p.MinPeriods)
	assert.Equal(t, 7, p.Horizon)
	assert.Equal(t, core.Day, p.Granularity)
}
