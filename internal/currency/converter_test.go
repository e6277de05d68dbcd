package currency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
)

type countingProvider struct {
	inner RateProvider
	calls int
}

func (p *countingProvider) Rate(ctx context.Context, from, base string) (decimal.Decimal, error) {
	p.calls++
	return p.inner.Rate(ctx, from, base)
}

func TestParseStaticRates(t *testing.T) {
	rates, err := ParseStaticRates("eur", " usd=0.92, GBP = 1.17 ,")
	require.NoError(t, err)
	assert.Equal(t, 2, rates.Len())

	r, err := rates.Rate(context.Background(), "USD", "EUR")
	require.NoError(t, err)
	assert.True(t, r.Equal(decimal.RequireFromString("0.92")))

	r, err = rates.Rate(context.Background(), "eur", "EUR")
	require.NoError(t, err)
	assert.True(t, r.Equal(decimal.NewFromInt(1)))

	_, err = rates.Rate(context.Background(), "JPY", "EUR")
	assert.ErrorIs(t, err, ErrRateNotFound)

	_, err = rates.Rate(context.Background(), "USD", "GBP")
	assert.ErrorIs(t, err, ErrRateNotFound)
}

func TestParseStaticRates_Invalid(t *testing.T) {
	for _, spec := range []string{"USD", "US=1", "USD=abc", "USD=0", "USD=-1"} {
		_, err := ParseStaticRates("EUR", spec)
		assert.Error(t, err, spec)
	}

	empty, err := ParseStaticRates("EUR", "")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestConverter_Convert(t *testing.T) {
	rates, err := ParseStaticRates("EUR", "USD=0.92")
	require.NoError(t, err)
	provider := &countingProvider{inner: rates}
	conv := NewConverter("eur", provider, time.Hour, nil)

	in := []core.RawTransaction{
		{Ref: "a", Date: "2024-01-01", Kind: "expense", Amount: "100", Currency: "usd"},
		{Ref: "b", Date: "2024-01-02", Kind: "expense", Amount: "10,01", Currency: "USD"},
		{Ref: "c", Date: "2024-01-03", Kind: "income", Amount: "50", Currency: "EUR"},
		{Ref: "d", Date: "2024-01-04", Kind: "income", Amount: "50"},
		{Ref: "e", Date: "2024-01-05", Kind: "income", Amount: "70", Currency: "JPY"},
		{Ref: "f", Date: "2024-01-06", Kind: "income", Amount: "abc", Currency: "USD"},
	}
	out := conv.Convert(context.Background(), in)
	require.Len(t, out, len(in))

	assert.Equal(t, "92.00", out[0].Amount)
	assert.Equal(t, "EUR", out[0].Currency)
	assert.Equal(t, "9.21", out[1].Amount)
	assert.Equal(t, "50", out[2].Amount)
	assert.Equal(t, "50", out[3].Amount)
	assert.Equal(t, "", out[3].Currency)
	assert.Equal(t, "70", out[4].Amount, "missing rate leaves the amount alone")
	assert.Equal(t, "JPY", out[4].Currency)
	assert.Equal(t, "abc", out[5].Amount)

	assert.Equal(t, "usd", in[0].Currency, "input must not be mutated")
	assert.Equal(t, 1, provider.calls, "USD rate should be served from cache after first lookup")
}

type failingProvider struct{}

func (failingProvider) Rate(context.Context, string, string) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("offline")
}

func TestConverter_ProviderFailure(t *testing.T) {
	conv := NewConverter("", failingProvider{}, time.Minute, nil)
	assert.Equal(t, core.DefaultBaseCurrency, conv.Base())

	out := conv.Convert(context.Background(), []core.RawTransaction{{Amount: "5", Currency: "USD"}})
	assert.Equal(t, "5", out[0].Amount)
	assert.Equal(t, 0, conv.Cache().Size())
}
