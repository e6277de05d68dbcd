package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"budget/internal/core"
	"budget/internal/log"
)

// SQLiteRepository persists raw transactions. Insertion order is the row id,
// which is what the normalizer uses to break same-day ties.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	logger  *log.Logger
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, err
	}

	logger = logger.WithComponent(log.ComponentStorage)
	logger.Debug("SQLite repository ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		logger:  logger,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable; used by readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) AppendTransaction(ctx context.Context, ledger core.LedgerID, tx core.RawTransaction) (string, error) {
	if err := ledger.Validate(); err != nil {
		return "", err
	}
	if tx.Ref == "" {
		tx.Ref = uuid.NewString()
	}
	id, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		Ref:            tx.Ref,
		LedgerID:       string(ledger),
		Date:           tx.Date,
		Kind:           tx.Kind,
		Amount:         tx.Amount,
		Category:       tx.Category,
		Note:           tx.Note,
		Currency:       tx.Currency,
		AttachmentText: tx.AttachmentText,
	})
	if err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}

	r.logger.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		log.FieldLedger, string(ledger),
		log.FieldRef, tx.Ref,
		log.FieldAmount, tx.Amount)

	return tx.Ref, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, ledger core.LedgerID) ([]core.RawTransaction, error) {
	rows, err := r.queries.ListTransactionsByLedger(ctx, string(ledger))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.RawTransaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.RawTransaction{
			Ref:            row.Ref,
			Date:           row.Date,
			Kind:           row.Kind,
			Amount:         row.Amount,
			Category:       row.Category,
			Note:           row.Note,
			Currency:       row.Currency,
			AttachmentText: row.AttachmentText,
		})
	}
	return out, nil
}

// CountTransactions returns the number of stored records in a ledger without
// loading them.
func (r *SQLiteRepository) CountTransactions(ctx context.Context, ledger core.LedgerID) (int, error) {
	n, err := r.queries.CountTransactions(ctx, string(ledger))
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return int(n), nil
}

func (r *SQLiteRepository) ListLedgers(ctx context.Context) ([]core.LedgerID, error) {
	ids, err := r.queries.ListLedgers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ledgers: %w", err)
	}
	out := make([]core.LedgerID, 0, len(ids))
	for _, id := range ids {
		out = append(out, core.LedgerID(id))
	}
	return out, nil
}
