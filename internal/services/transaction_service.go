package services

import (
	"context"
	"fmt"

	"budget/internal/analysis"
	"budget/internal/core"
	"budget/internal/ledger"
	"budget/internal/log"
)

// RefreshPublisher announces that a ledger changed.
type RefreshPublisher interface {
	PublishRefresh(ctx context.Context, ledger core.LedgerID) error
}

// RecordResult is what a caller learns about a stored transaction.
type RecordResult struct {
	Ledger           core.LedgerID `json:"ledger"`
	Ref              string        `json:"ref"`
	RefreshPublished bool          `json:"refresh_published"`
}

// TransactionService stores transactions and asks the workers to re-analyse
// the ledger they landed in.
type TransactionService struct {
	writer    analysis.TransactionWriter
	publisher RefreshPublisher
	logger    *log.Logger
}

// NewTransactionService wires a writer and an optional publisher.
func NewTransactionService(writer analysis.TransactionWriter, publisher RefreshPublisher, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.Discard()
	}
	return &TransactionService{
		writer:    writer,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentStorage),
	}
}

// Record validates tx, saves it, then publishes a refresh request.
// The record goes through the normalizer first so a line that would make the
// whole ledger unreadable is never stored. A failed publish is logged and
// not returned: the transaction is saved and the periodic sweep catches up.
func (s *TransactionService) Record(ctx context.Context, id core.LedgerID, tx core.RawTransaction) (RecordResult, error) {
	if err := id.Validate(); err != nil {
		return RecordResult{}, err
	}
	if _, err := ledger.Normalize([]core.RawTransaction{tx}); err != nil {
		return RecordResult{}, err
	}

	ref, err := s.writer.AppendTransaction(ctx, id, tx)
	if err != nil {
		return RecordResult{}, fmt.Errorf("save transaction: %w", err)
	}
	result := RecordResult{Ledger: id, Ref: ref}

	logger := s.logger.WithLedger(string(id))
	logger.InfoContext(ctx, "Transaction recorded", log.FieldRef, ref, log.FieldAmount, tx.Amount)

	if s.publisher == nil {
		return result, nil
	}
	if err := s.publisher.PublishRefresh(ctx, id); err != nil {
		logger.WarnContext(ctx, "Failed to publish ledger refresh", log.FieldError, err)
		return result, nil
	}
	result.RefreshPublished = true
	return result, nil
}
