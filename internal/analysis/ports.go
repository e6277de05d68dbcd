// Package analysis runs the ledger pipeline (normalize, aggregate, forecast,
// alert) for one ledger at a time on top of a transaction source.
package analysis

import (
	"context"

	"budget/internal/core"
)

// TransactionSource lists the raw transactions of a ledger in insertion order.
// An unknown ledger yields an empty slice unless the source can tell it does
// not exist, in which case it returns core.ErrLedgerNotFound.
type TransactionSource interface {
	ListTransactions(ctx context.Context, ledger core.LedgerID) ([]core.RawTransaction, error)
}

// TransactionWriter appends a transaction and returns the reference the store assigned.
type TransactionWriter interface {
	AppendTransaction(ctx context.Context, ledger core.LedgerID, tx core.RawTransaction) (string, error)
}

// LedgerLister enumerates the ledgers a store knows about.
type LedgerLister interface {
	ListLedgers(ctx context.Context) ([]core.LedgerID, error)
}

// Converter rewrites foreign-currency records into the base currency.
type Converter interface {
	Convert(ctx context.Context, records []core.RawTransaction) []core.RawTransaction
}
