package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bucket is one aggregation period.
type Bucket struct {
	PeriodStart time.Time       `json:"period_start"`
	Revenue     decimal.Decimal `json:"revenue"`
	Expense     decimal.Decimal `json:"expense"`
	Profit      decimal.Decimal `json:"profit"`
	Margin      decimal.Decimal `json:"margin_percent"`
	Count       int             `json:"count"`
}

// SeriesPoint is one value of a bucketed series. Observed is false for
// periods that were zero-filled to keep the grid regular.
type SeriesPoint struct {
	PeriodStart time.Time       `json:"period_start"`
	Value       decimal.Decimal `json:"value"`
	Observed    bool            `json:"observed"`
}

// CategoryTotal represents an amount aggregated by category name.
type CategoryTotal struct {
	Kind   Kind            `json:"kind"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// Summary holds the headline figures of a ledger.
type Summary struct {
	Revenue       decimal.Decimal `json:"revenue"`
	Expense       decimal.Decimal `json:"expense"`
	Profit        decimal.Decimal `json:"profit"`
	Margin        decimal.Decimal `json:"margin_percent"`
	AverageMargin decimal.Decimal `json:"average_margin_percent"`
	Entries       int             `json:"entries"`
}

const (
	Fitted           ForecastStatus = "fitted"
	InsufficientData ForecastStatus = "insufficient_data"
	FitFailed        ForecastStatus = "fit_failed"
)

type ForecastStatus string

// ForecastResult is the projection for a single future period. Estimates are
// only set when Status is Fitted; bounds may still be nil if the model could
// not size an interval.
type ForecastResult struct {
	TargetPeriod  time.Time        `json:"target_period"`
	PointEstimate *decimal.Decimal `json:"point_estimate,omitempty"`
	LowerBound    *decimal.Decimal `json:"lower_bound,omitempty"`
	UpperBound    *decimal.Decimal `json:"upper_bound,omitempty"`
	Status        ForecastStatus   `json:"status"`
	Model         string           `json:"model,omitempty"`
	Observed      int              `json:"observed_periods"`
	Reason        string           `json:"reason,omitempty"`
}

const (
	AlertNone        AlertLevel = "none"
	AlertHighExpense AlertLevel = "high_expense"
)

type AlertLevel string

// AlertDecision is the outcome of checking the latest entry against a threshold.
type AlertDecision struct {
	Level     AlertLevel      `json:"level"`
	Amount    decimal.Decimal `json:"amount"`
	Threshold decimal.Decimal `json:"threshold"`
	Category  string          `json:"category,omitempty"`
	Date      Date            `json:"date,omitempty"`
}

// Triggered reports whether the decision is a high-expense alert.
func (a AlertDecision) Triggered() bool {
	return a.Level == AlertHighExpense
}
