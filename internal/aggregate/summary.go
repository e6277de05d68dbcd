package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"budget/internal/core"
)

// Summarize computes ledger totals. AverageMargin is the mean margin of the
// buckets that hold entries, so zero-filled grid periods do not dilute it.
func Summarize(entries []core.NormalizedEntry, buckets []core.Bucket) core.Summary {
	s := core.Summary{
		Revenue:       decimal.Zero,
		Expense:       decimal.Zero,
		AverageMargin: decimal.Zero,
		Entries:       len(entries),
	}
	for _, e := range entries {
		switch e.Kind {
		case core.Income:
			s.Revenue = s.Revenue.Add(e.Amount)
		case core.Expense:
			s.Expense = s.Expense.Add(e.Amount)
		}
	}
	s.Profit = s.Revenue.Sub(s.Expense)
	s.Margin = core.MarginPercent(s.Profit, s.Revenue)

	var sum decimal.Decimal
	var n int64
	for _, b := range buckets {
		if b.Count == 0 {
			continue
		}
		sum = sum.Add(b.Margin)
		n++
	}
	if n > 0 {
		s.AverageMargin = sum.Div(decimal.NewFromInt(n)).Round(2)
	}
	return s
}

// ByCategory totals amounts per kind and category. Income comes first, then
// expense; within a kind the largest amounts lead.
func ByCategory(entries []core.NormalizedEntry) []core.CategoryTotal {
	type key struct {
		kind core.Kind
		name string
	}
	totals := make(map[key]*core.CategoryTotal)
	for _, e := range entries {
		name := e.Category
		if name == "" {
			name = "uncategorized"
		}
		k := key{e.Kind, name}
		t, ok := totals[k]
		if !ok {
			t = &core.CategoryTotal{Kind: e.Kind, Name: name, Amount: decimal.Zero}
			totals[k] = t
		}
		t.Amount = t.Amount.Add(e.Amount)
		t.Count++
	}

	out := make([]core.CategoryTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind == core.Income
		}
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}
