package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"budget/internal/core"
)

// AdditiveModel fits y = intercept + slope*t + season[t mod s] by least
// squares, where t is the bucket index from the first point. The seasonal
// terms are dropped when the series is shorter than MinSeasons full seasons,
// leaves a phase unobserved, or has fewer points than the seasonal fit needs.
type AdditiveModel struct {
	DaySeason   int
	MonthSeason int
	MinSeasons  int
	// Confidence is the two-sided coverage of the prediction interval.
	Confidence float64
}

// NewAdditiveModel returns a model with weekly seasonality for daily series,
// yearly for monthly ones, and a 95% interval.
func NewAdditiveModel() *AdditiveModel {
	return &AdditiveModel{DaySeason: 7, MonthSeason: 12, MinSeasons: 2, Confidence: 0.95}
}

func (m *AdditiveModel) Name() string {
	return "additive-trend"
}

func (m *AdditiveModel) FitAndProject(series []core.SeriesPoint, g core.Granularity, horizon int) (Projection, error) {
	n := len(series)
	if n < 2 {
		return Projection{}, fmt.Errorf("%w: %d points", ErrDegenerate, n)
	}

	origin := g.Truncate(series[0].PeriodStart)
	xs := make([]int, n)
	ys := make([]float64, n)
	for i, p := range series {
		xs[i] = g.Steps(origin, g.Truncate(p.PeriodStart))
		ys[i] = p.Value.InexactFloat64()
	}

	season := m.seasonLength(g, xs)
	cols := 2
	if season > 1 {
		cols += season - 1
	}
	if n < cols {
		return Projection{}, fmt.Errorf("%w: %d points for %d parameters", ErrDegenerate, n, cols)
	}

	X := mat.NewDense(n, cols, nil)
	for i, x := range xs {
		fillRow(X.RawRowView(i), x, season)
	}
	y := mat.NewVecDense(n, ys)

	var qr mat.QR
	qr.Factorize(X)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, y); err != nil {
		return Projection{}, fmt.Errorf("%w: %v", ErrDegenerate, err)
	}

	row := make([]float64, cols)
	fillRow(row, xs[n-1]+horizon, season)
	target := mat.NewVecDense(cols, row)
	p := Projection{Estimate: mat.Dot(target, &beta)}

	dof := n - cols
	if dof <= 0 {
		return p, nil
	}

	var fitted, resid mat.VecDense
	fitted.MulVec(X, &beta)
	resid.SubVec(y, &fitted)
	sigma2 := mat.Dot(&resid, &resid) / float64(dof)

	// Leverage of the target row: row' (X'X)^-1 row.
	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	var v mat.VecDense
	if err := v.SolveVec(&xtx, target); err != nil {
		return p, nil
	}
	leverage := mat.Dot(target, &v)

	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(dof)}.Quantile(0.5 + m.Confidence/2)
	half := t * math.Sqrt(sigma2*(1+leverage))
	p.Lower, p.Upper, p.HasInterval = p.Estimate-half, p.Estimate+half, true
	return p, nil
}

func (m *AdditiveModel) seasonLength(g core.Granularity, xs []int) int {
	s := m.MonthSeason
	if g == core.Day {
		s = m.DaySeason
	}
	// Intercept, slope and s-1 phase columns.
	if s < 2 || len(xs) < s+1 || xs[len(xs)-1]-xs[0]+1 < m.MinSeasons*s {
		return 0
	}
	seen := make([]bool, s)
	for _, x := range xs {
		seen[x%s] = true
	}
	for _, ok := range seen {
		if !ok {
			return 0
		}
	}
	return s
}

// fillRow writes the design row for bucket index x. Phase 0 is the baseline
// season, so only phases 1..s-1 get a column.
func fillRow(row []float64, x, season int) {
	row[0] = 1
	row[1] = float64(x)
	if season > 1 {
		if phase := x % season; phase > 0 {
			row[1+phase] = 1
		}
	}
}
