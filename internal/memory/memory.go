// Package memory is a process-local transaction store, optionally seeded
// from a CSV file. It backs development runs and tests.
package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"budget/internal/core"
)

// Seed file columns. ledger, date, kind and amount are required.
var seedColumns = []string{"ledger", "date", "kind", "amount", "category", "note", "currency", "attachment"}

type Store struct {
	mu      sync.RWMutex
	ledgers map[core.LedgerID][]core.RawTransaction
}

func New() *Store {
	return &Store{ledgers: make(map[core.LedgerID][]core.RawTransaction)}
}

// NewFromFile loads a seed CSV from path.
func NewFromFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return NewFromCSV(f)
}

// NewFromCSV reads a header row followed by one transaction per row.
// Values are stored verbatim; validation happens when the ledger is analyzed.
func NewFromCSV(r io.Reader) (*Store, error) {
	s := New()

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return s, nil
		}
		return nil, fmt.Errorf("read seed header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range seedColumns[:4] {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("seed header missing column %q", col)
		}
	}

	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read seed line %d: %w", line, err)
		}
		field := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		tx := core.RawTransaction{
			Date:           field("date"),
			Kind:           field("kind"),
			Amount:         field("amount"),
			Category:       field("category"),
			Note:           field("note"),
			Currency:       field("currency"),
			AttachmentText: field("attachment"),
		}
		if _, err := s.AppendTransaction(context.Background(), core.LedgerID(field("ledger")), tx); err != nil {
			return nil, fmt.Errorf("seed line %d: %w", line, err)
		}
	}
	return s, nil
}

// AppendTransaction stores tx at the end of the ledger. A missing Ref is
// replaced with a generated one.
func (s *Store) AppendTransaction(_ context.Context, ledger core.LedgerID, tx core.RawTransaction) (string, error) {
	if err := ledger.Validate(); err != nil {
		return "", err
	}
	if tx.Ref == "" {
		tx.Ref = "mem:" + uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledgers[ledger] = append(s.ledgers[ledger], tx)
	return tx.Ref, nil
}

// ListTransactions returns a copy of the ledger in insertion order. Unknown
// ledgers are empty.
func (s *Store) ListTransactions(_ context.Context, ledger core.LedgerID) ([]core.RawTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.RawTransaction{}, s.ledgers[ledger]...), nil
}

func (s *Store) CountTransactions(_ context.Context, ledger core.LedgerID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ledgers[ledger]), nil
}

func (s *Store) ListLedgers(_ context.Context) ([]core.LedgerID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.LedgerID, 0, len(s.ledgers))
	for id := range s.ledgers {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
