package forecast

import (
	"fmt"

	"budget/internal/core"
)

// Policy fixes the grid a forecast runs on and how much history it needs.
type Policy struct {
	Granularity core.Granularity
	// MinPeriods is the number of distinct observed periods required before a fit is attempted.
	MinPeriods int
	// Horizon is how many buckets past the last observation the target lies.
	Horizon int
}

// DailyPolicy projects 30 days ahead from at least two observed days.
func DailyPolicy() Policy {
	return Policy{Granularity: core.Day, MinPeriods: 2, Horizon: 30}
}

// MonthlyPolicy projects the next month and needs three observed months.
func MonthlyPolicy() Policy {
	return Policy{Granularity: core.Month, MinPeriods: 3, Horizon: 1}
}

// PolicyFor returns the default policy of a granularity.
func PolicyFor(g core.Granularity) Policy {
	if g == core.Day {
		return DailyPolicy()
	}
	return MonthlyPolicy()
}

func (p Policy) Validate() error {
	if p.Granularity != core.Day && p.Granularity != core.Month {
		return fmt.Errorf("invalid forecast granularity %q", p.Granularity)
	}
	if p.MinPeriods < 2 {
		return fmt.Errorf("invalid forecast min periods %d: must be at least 2", p.MinPeriods)
	}
	if p.Horizon < 1 {
		return fmt.Errorf("invalid forecast horizon %d: must be at least 1", p.Horizon)
	}
	return nil
}

// WithOverrides replaces MinPeriods and Horizon when the given values are positive.
func (p Policy) WithOverrides(minPeriods, horizon int) Policy {
	if minPeriods > 0 {
		p.MinPeriods = minPeriods
	}
	if horizon > 0 {
		p.Horizon = horizon
	}
	return p
}
