// Package currency brings foreign-currency transactions into the ledger's
// base currency before they reach the normalizer.
package currency

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/log"
)

const rateCacheSize = 64

type Converter struct {
	base     string
	provider RateProvider
	rates    *cache.LRUCache[decimal.Decimal]
	logger   *log.Logger
}

// NewConverter builds a converter; rates fetched from provider are memoized for ttl.
func NewConverter(base string, provider RateProvider, ttl time.Duration, logger *log.Logger) *Converter {
	if base == "" {
		base = core.DefaultBaseCurrency
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Converter{
		base:     strings.ToUpper(base),
		provider: provider,
		rates:    cache.NewLRUCache[decimal.Decimal](rateCacheSize, ttl),
		logger:   logger.WithComponent(log.ComponentCurrency),
	}
}

func (c *Converter) Base() string {
	return c.base
}

// Cache exposes the rate cache so a cache.Manager can sweep it.
func (c *Converter) Cache() *cache.LRUCache[decimal.Decimal] {
	return c.rates
}

// Convert returns a copy of records with every foreign amount expressed in the
// base currency, rounded to cents. Records whose rate is unknown are kept
// as they are; malformed amounts are left for the normalizer to coerce.
func (c *Converter) Convert(ctx context.Context, records []core.RawTransaction) []core.RawTransaction {
	out := make([]core.RawTransaction, len(records))
	copy(out, records)

	for i := range out {
		r := &out[i]
		code := strings.ToUpper(strings.TrimSpace(r.Currency))
		if code == "" || code == c.base {
			continue
		}
		amount, ok := core.ParseAmount(r.Amount)
		if !ok {
			continue
		}
		rate, err := c.rate(ctx, code)
		if err != nil {
			c.logger.WarnContext(ctx, "Leaving amount unconverted",
				log.FieldRef, r.Ref,
				log.FieldCurrency, code,
				log.FieldError, err)
			continue
		}
		r.Amount = amount.Mul(rate).Round(2).StringFixed(2)
		r.Currency = c.base
	}
	return out
}

func (c *Converter) rate(ctx context.Context, code string) (decimal.Decimal, error) {
	key := code + "/" + c.base
	if rate, ok := c.rates.Get(key); ok {
		return rate, nil
	}
	rate, err := c.provider.Rate(ctx, code, c.base)
	if err != nil {
		return decimal.Zero, err
	}
	c.rates.Set(key, rate)
	return rate, nil
}
