// Package alert decides whether the latest transaction is an expense that deserves a warning.
package alert

import (
	"github.com/shopspring/decimal"

	"budget/internal/core"
)

// DefaultThreshold is the amount above which an expense is flagged.
var DefaultThreshold = decimal.NewFromInt(10000)

// Evaluate flags amounts strictly greater than threshold.
func Evaluate(latest, threshold decimal.Decimal) core.AlertDecision {
	d := core.AlertDecision{Level: core.AlertNone, Amount: latest, Threshold: threshold}
	if latest.GreaterThan(threshold) {
		d.Level = core.AlertHighExpense
	}
	return d
}

// EvaluateLatest checks the most recent entry of a normalized ledger. Entries
// are in ledger order, so the last inserted wins date ties. When that entry is
// income there is nothing to flag and the decision carries a zero amount.
func EvaluateLatest(entries []core.NormalizedEntry, threshold decimal.Decimal) core.AlertDecision {
	if len(entries) == 0 {
		return core.AlertDecision{Level: core.AlertNone, Amount: decimal.Zero, Threshold: threshold}
	}
	e := entries[len(entries)-1]
	if e.Kind != core.Expense {
		return core.AlertDecision{Level: core.AlertNone, Amount: decimal.Zero, Threshold: threshold}
	}
	d := Evaluate(e.Amount, threshold)
	d.Category = e.Category
	d.Date = e.Date
	return d
}
