// Package ledger turns raw transactions into the ordered, typed ledger every
// other analysis step reads from.
package ledger

import (
	"sort"
	"strings"

	"budget/internal/core"
)

// Normalize is NormalizeWithBase using the default base currency.
func Normalize(records []core.RawTransaction) ([]core.NormalizedEntry, error) {
	return NormalizeWithBase(records, core.DefaultBaseCurrency)
}

// NormalizeWithBase validates and orders records.
//
// Amounts that cannot be read as a non-negative number become zero. A record
// with an unreadable date or kind rejects the whole batch with a
// *core.RecordError, since ordering and sign drive every later step.
// Records without a currency are assumed to be in base.
func NormalizeWithBase(records []core.RawTransaction, base string) ([]core.NormalizedEntry, error) {
	entries := make([]core.NormalizedEntry, 0, len(records))
	for i, r := range records {
		e, err := normalizeOne(i, r, base)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date.Time)
	})
	return entries, nil
}

func normalizeOne(i int, r core.RawTransaction, base string) (core.NormalizedEntry, error) {
	date, err := core.ParseDate(r.Date)
	if err != nil {
		return core.NormalizedEntry{}, &core.RecordError{Index: i, Ref: r.Ref, Err: err}
	}
	kind, err := core.ParseKind(r.Kind)
	if err != nil {
		return core.NormalizedEntry{}, &core.RecordError{Index: i, Ref: r.Ref, Err: err}
	}

	amount := core.CoerceAmount(r.Amount)
	signed := amount
	if kind == core.Expense {
		signed = amount.Neg()
	}

	currency := strings.ToUpper(strings.TrimSpace(r.Currency))
	if currency == "" {
		currency = base
	}

	return core.NormalizedEntry{
		Seq:                i,
		Ref:                r.Ref,
		Date:               date,
		Kind:               kind,
		Amount:             amount,
		SignedAmount:       signed,
		ProfitContribution: signed,
		Category:           strings.TrimSpace(r.Category),
		Note:               r.Note,
		Currency:           currency,
		AttachmentText:     r.AttachmentText,
	}, nil
}
