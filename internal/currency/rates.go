package currency

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrRateNotFound = errors.New("exchange rate not found")

// RateProvider returns how many units of the base currency one unit of from is worth.
type RateProvider interface {
	Rate(ctx context.Context, from, base string) (decimal.Decimal, error)
}

// StaticRates is a fixed rate table, all quoted against a single base currency.
type StaticRates struct {
	base  string
	rates map[string]decimal.Decimal
}

// ParseStaticRates reads a table such as "USD=0.92,GBP=1.17".
func ParseStaticRates(base, spec string) (*StaticRates, error) {
	s := &StaticRates{
		base:  strings.ToUpper(base),
		rates: make(map[string]decimal.Decimal),
	}
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		code, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("parse rate %q: expected CODE=RATE", pair)
		}
		code = strings.ToUpper(strings.TrimSpace(code))
		if len(code) != 3 {
			return nil, fmt.Errorf("parse rate %q: currency code must have 3 letters", pair)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("parse rate %q: %w", pair, err)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("parse rate %q: rate must be positive", pair)
		}
		s.rates[code] = rate
	}
	return s, nil
}

func (s *StaticRates) Rate(_ context.Context, from, base string) (decimal.Decimal, error) {
	from, base = strings.ToUpper(from), strings.ToUpper(base)
	if from == base {
		return decimal.NewFromInt(1), nil
	}
	if base != s.base {
		return decimal.Zero, fmt.Errorf("%w: table is quoted in %s, not %s", ErrRateNotFound, s.base, base)
	}
	rate, ok := s.rates[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s to %s", ErrRateNotFound, from, base)
	}
	return rate, nil
}

// Len returns the number of quoted currencies.
func (s *StaticRates) Len() int {
	return len(s.rates)
}
