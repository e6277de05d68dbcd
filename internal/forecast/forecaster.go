// Package forecast projects a bucketed profit series forward.
//
// The Forecaster owns the policy decisions (how much history is enough, how
// far ahead to look, how failures are reported) and delegates the fit itself
// to a Model, so the model family can change without touching callers.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

// ErrDegenerate is returned by models when the series cannot support a fit.
var ErrDegenerate = errors.New("degenerate series")

// Projection is a model's raw output for the target period.
type Projection struct {
	Estimate    float64
	Lower       float64
	Upper       float64
	HasInterval bool
}

// Model fits a series and projects it horizon buckets past its last point.
type Model interface {
	Name() string
	FitAndProject(series []core.SeriesPoint, g core.Granularity, horizon int) (Projection, error)
}

type Forecaster struct {
	model  Model
	policy Policy
}

// New builds a Forecaster. A nil model selects the additive trend model.
func New(model Model, policy Policy) (*Forecaster, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if model == nil {
		model = NewAdditiveModel()
	}
	return &Forecaster{model: model, policy: policy}, nil
}

func (f *Forecaster) Policy() Policy {
	return f.policy
}

// Forecast never returns an error: short histories and fitting failures are
// reported through the result status.
func (f *Forecaster) Forecast(series []core.SeriesPoint) (res core.ForecastResult) {
	g := f.policy.Granularity
	points := make([]core.SeriesPoint, len(series))
	copy(points, series)
	sort.SliceStable(points, func(i, j int) bool { return points[i].PeriodStart.Before(points[j].PeriodStart) })

	observed := map[time.Time]struct{}{}
	var last time.Time
	for i := range points {
		points[i].PeriodStart = g.Truncate(points[i].PeriodStart)
		if points[i].Observed {
			observed[points[i].PeriodStart] = struct{}{}
			last = points[i].PeriodStart
		}
	}

	res = core.ForecastResult{Model: f.model.Name(), Observed: len(observed)}
	if !last.IsZero() {
		res.TargetPeriod = g.Next(last, f.policy.Horizon)
	}
	if len(observed) < f.policy.MinPeriods {
		res.Status = core.InsufficientData
		res.Reason = fmt.Sprintf("need %d observed periods, have %d", f.policy.MinPeriods, len(observed))
		return res
	}

	// Only the history up to the last observation is fitted; trailing
	// zero-filled periods would read as real zero profit.
	fit := points
	for len(fit) > 0 && !fit[len(fit)-1].Observed {
		fit = fit[:len(fit)-1]
	}

	defer func() {
		if r := recover(); r != nil {
			res = failed(res, fmt.Errorf("model panic: %v", r))
		}
	}()

	p, err := f.model.FitAndProject(fit, g, f.policy.Horizon)
	if err != nil {
		return failed(res, err)
	}
	if !finite(p.Estimate) || (p.HasInterval && (!finite(p.Lower) || !finite(p.Upper))) {
		return failed(res, fmt.Errorf("%w: non-finite projection", ErrDegenerate))
	}

	res.Status = core.Fitted
	res.PointEstimate = money(p.Estimate)
	if p.HasInterval {
		res.LowerBound = money(p.Lower)
		res.UpperBound = money(p.Upper)
	}
	return res
}

func failed(res core.ForecastResult, err error) core.ForecastResult {
	res.Status = core.FitFailed
	res.PointEstimate, res.LowerBound, res.UpperBound = nil, nil, nil
	res.Reason = err.Error()
	return res
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func money(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v).Round(2)
	return &d
}
