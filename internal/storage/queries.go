package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Transaction is a row of the transactions table.
type Transaction struct {
	ID             int64
	Ref            string
	LedgerID       string
	Date           string
	Kind           string
	Amount         string
	Category       string
	Note           string
	Currency       string
	AttachmentText string
}

type CreateTransactionParams struct {
	Ref            string
	LedgerID       string
	Date           string
	Kind           string
	Amount         string
	Category       string
	Note           string
	Currency       string
	AttachmentText string
}

const createTransaction = `
INSERT INTO transactions (ref, ledger_id, date, kind, amount, category, note, currency, attachment_text)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createTransaction,
		arg.Ref,
		arg.LedgerID,
		arg.Date,
		arg.Kind,
		arg.Amount,
		arg.Category,
		arg.Note,
		arg.Currency,
		arg.AttachmentText,
	).Scan(&id)
	return id, err
}

const listTransactionsByLedger = `
SELECT id, ref, ledger_id, date, kind, amount, category, note, currency, attachment_text
FROM transactions
WHERE ledger_id = ?
ORDER BY id`

func (q *Queries) ListTransactionsByLedger(ctx context.Context, ledgerID string) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByLedger, ledgerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Transaction{}
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(
			&i.ID,
			&i.Ref,
			&i.LedgerID,
			&i.Date,
			&i.Kind,
			&i.Amount,
			&i.Category,
			&i.Note,
			&i.Currency,
			&i.AttachmentText,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listLedgers = `SELECT DISTINCT ledger_id FROM transactions ORDER BY ledger_id`

func (q *Queries) ListLedgers(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listLedgers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	return items, rows.Err()
}

const countTransactions = `SELECT COUNT(*) FROM transactions WHERE ledger_id = ?`

func (q *Queries) CountTransactions(ctx context.Context, ledgerID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countTransactions, ledgerID).Scan(&n)
	return n, err
}
