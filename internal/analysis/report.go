package analysis

import (
	"time"

	"budget/internal/core"
)

// Options selects how a report is bucketed for display.
type Options struct {
	Granularity core.Granularity
}

// Report is everything the presentation layer needs for one ledger.
type Report struct {
	Ledger      core.LedgerID          `json:"ledger"`
	Granularity core.Granularity       `json:"granularity"`
	Entries     []core.NormalizedEntry `json:"entries"`
	Buckets     []core.Bucket          `json:"buckets"`
	Categories  []core.CategoryTotal   `json:"categories"`
	Summary     core.Summary           `json:"summary"`
	Forecast    core.ForecastResult    `json:"forecast"`
	Alert       core.AlertDecision     `json:"alert"`
	GeneratedAt time.Time              `json:"generated_at"`
}
