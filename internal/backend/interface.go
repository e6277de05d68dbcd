package backend

import (
	"context"
	"errors"

	"budget/internal/analysis"
	"budget/internal/core"
)

// ErrReadOnly is returned when writing to a backend that only supports reads.
var ErrReadOnly = errors.New("backend is read-only")

// Backend is what every transaction store offers the analysis layer.
type Backend interface {
	analysis.TransactionSource
	analysis.LedgerLister
}

// Pinger is implemented by backends with a connection worth health-checking.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Counter is implemented by backends that can count a ledger without reading it.
type Counter interface {
	CountTransactions(ctx context.Context, ledger core.LedgerID) (int, error)
}

// CountTransactions counts the records in a ledger, reading the whole ledger
// when the backend cannot count on its own.
func CountTransactions(ctx context.Context, b Backend, ledger core.LedgerID) (int, error) {
	if c, ok := b.(Counter); ok {
		return c.CountTransactions(ctx, ledger)
	}
	txs, err := b.ListTransactions(ctx, ledger)
	if err != nil {
		return 0, err
	}
	return len(txs), nil
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function.
// Writer is nil for read-only backends.
type BackendResult struct {
	Backend Backend
	Writer  analysis.TransactionWriter
	Cleanup CleanupFunc
}

// Close runs the cleanup function if there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Writable returns the backend writer, or ErrReadOnly.
func (r *BackendResult) Writable() (analysis.TransactionWriter, error) {
	if r.Writer == nil {
		return nil, ErrReadOnly
	}
	return r.Writer, nil
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}
