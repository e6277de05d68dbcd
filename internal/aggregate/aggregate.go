// Package aggregate groups a normalized ledger into time buckets and derives
// the profit and margin figures shown on every chart.
package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

// Mode selects whether empty periods are emitted.
type Mode int

const (
	// Sparse emits only periods that contain at least one entry.
	Sparse Mode = iota
	// Regular emits every period between the first and last entry, zero-filled.
	Regular
)

// Aggregate buckets entries by granularity. Output is chronological and
// depends only on its inputs.
func Aggregate(entries []core.NormalizedEntry, g core.Granularity, mode Mode) []core.Bucket {
	if len(entries) == 0 {
		return []core.Bucket{}
	}

	byPeriod := make(map[time.Time]*core.Bucket)
	for _, e := range entries {
		start := g.Truncate(e.Date.Time)
		b, ok := byPeriod[start]
		if !ok {
			b = &core.Bucket{PeriodStart: start, Revenue: decimal.Zero, Expense: decimal.Zero}
			byPeriod[start] = b
		}
		switch e.Kind {
		case core.Income:
			b.Revenue = b.Revenue.Add(e.Amount)
		case core.Expense:
			b.Expense = b.Expense.Add(e.Amount)
		}
		b.Count++
	}

	starts := make([]time.Time, 0, len(byPeriod))
	for s := range byPeriod {
		starts = append(starts, s)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	if mode == Regular {
		first, last := starts[0], starts[len(starts)-1]
		starts = starts[:0]
		for s := first; !s.After(last); s = g.Next(s, 1) {
			starts = append(starts, s)
		}
	}

	out := make([]core.Bucket, 0, len(starts))
	for _, s := range starts {
		b, ok := byPeriod[s]
		if !ok {
			b = &core.Bucket{PeriodStart: s, Revenue: decimal.Zero, Expense: decimal.Zero}
		}
		b.Profit = b.Revenue.Sub(b.Expense)
		b.Margin = core.MarginPercent(b.Profit, b.Revenue)
		out = append(out, *b)
	}
	return out
}

// ProfitSeries projects buckets onto the profit series the forecaster reads.
func ProfitSeries(buckets []core.Bucket) []core.SeriesPoint {
	series := make([]core.SeriesPoint, len(buckets))
	for i, b := range buckets {
		series[i] = core.SeriesPoint{
			PeriodStart: b.PeriodStart,
			Value:       b.Profit,
			Observed:    b.Count > 0,
		}
	}
	return series
}
