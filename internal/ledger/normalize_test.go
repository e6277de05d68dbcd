package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
)

func raw(date, kind, amount string) core.RawTransaction {
	return core.RawTransaction{Date: date, Kind: kind, Amount: amount, Category: "misc"}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNormalize_Empty(t *testing.T) {
	entries, err := Normalize(nil)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestNormalize_SignsAndProfit(t *testing.T) {
	entries, err := Normalize([]core.RawTransaction{
		raw("2024-01-05", "Income", "1000"),
		raw("2024-01-10", "Expense", "400.50"),
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.True(t, entries[0].SignedAmount.Equal(dec("1000")))
	assert.True(t, entries[1].SignedAmount.Equal(dec("-400.50")))
	for _, e := range entries {
		assert.True(t, e.ProfitContribution.Equal(e.SignedAmount))
		assert.False(t, e.Amount.IsNegative())
		assert.Equal(t, core.DefaultBaseCurrency, e.Currency)
	}
}

func TestNormalize_MalformedAmountIsZero(t *testing.T) {
	for _, amount := range []string{"abc", "", "-12", "1.2.3"} {
		entries, err := Normalize([]core.RawTransaction{raw("2024-01-05", "Expense", amount)})
		require.NoError(t, err, amount)
		assert.True(t, entries[0].SignedAmount.IsZero(), amount)
		assert.True(t, entries[0].Amount.IsZero(), amount)
	}
}

func TestNormalize_OutOfRangeExponentIsZero(t *testing.T) {
	entries, err := Normalize([]core.RawTransaction{
		raw("2024-01-05", "Expense", "1e-40000000"),
		raw("2024-01-06", "Income", "1e40000000"),
		raw("2024-01-07", "Income", "1"),
	})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].Amount.IsZero())
	assert.True(t, entries[1].Amount.IsZero())
	assert.True(t, entries[2].Amount.Equal(dec("1")))
}

func TestNormalize_CommaDecimal(t *testing.T) {
	entries, err := Normalize([]core.RawTransaction{raw("2024-01-05", "Dépense", "12,50")})
	require.NoError(t, err)
	assert.True(t, entries[0].SignedAmount.Equal(dec("-12.5")))
}

func TestNormalize_InvalidDateRejectsBatch(t *testing.T) {
	records := []core.RawTransaction{
		raw("2024-01-05", "Income", "10"),
		{Ref: "r-2", Date: "yesterday", Kind: "Income", Amount: "10"},
	}
	entries, err := Normalize(records)
	assert.Nil(t, entries)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInvalidRecord))
	assert.True(t, errors.Is(err, core.ErrInvalidDate))

	var re *core.RecordError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 1, re.Index)
	assert.Equal(t, "r-2", re.Ref)
}

func TestNormalize_UnknownKindRejectsBatch(t *testing.T) {
	_, err := Normalize([]core.RawTransaction{raw("2024-01-05", "transfer", "10")})
	assert.True(t, errors.Is(err, core.ErrInvalidRecord))
	assert.True(t, errors.Is(err, core.ErrUnknownKind))
}

func TestNormalize_StableChronologicalOrder(t *testing.T) {
	records := []core.RawTransaction{
		{Ref: "c", Date: "2024-03-01", Kind: "Income", Amount: "1"},
		{Ref: "a1", Date: "2024-01-01", Kind: "Income", Amount: "1"},
		{Ref: "b", Date: "2024-02-01", Kind: "Expense", Amount: "1"},
		{Ref: "a2", Date: "2024-01-01", Kind: "Expense", Amount: "1"},
		{Ref: "a3", Date: "2024-01-01T10:00:00Z", Kind: "Income", Amount: "1"},
	}
	entries, err := Normalize(records)
	require.NoError(t, err)

	var refs []string
	for _, e := range entries {
		refs = append(refs, e.Ref)
	}
	assert.Equal(t, []string{"a1", "a2", "a3", "b", "c"}, refs)
	assert.Equal(t, 1, entries[0].Seq)
}

func TestNormalizeWithBase_Currency(t *testing.T) {
	records := []core.RawTransaction{
		raw("2024-01-05", "Income", "10"),
		{Date: "2024-01-06", Kind: "Income", Amount: "10", Currency: " usd "},
	}
	entries, err := NormalizeWithBase(records, "GBP")
	require.NoError(t, err)
	assert.Equal(t, "GBP", entries[0].Currency)
	assert.Equal(t, "USD", entries[1].Currency)
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	records := []core.RawTransaction{
		raw("2024-02-01", "Income", " 5 "),
		raw("2024-01-01", "Income", "6"),
	}
	before := append([]core.RawTransaction(nil), records...)
	_, err := Normalize(records)
	require.NoError(t, err)
	assert.Equal(t, before, records)
}
