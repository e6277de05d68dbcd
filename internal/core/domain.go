package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	Day   Granularity = "day"
	Month Granularity = "month"
)

// DefaultBaseCurrency is the ledger currency used when none is configured.
const DefaultBaseCurrency = "EUR"

const dateLayout = "2006-01-02"

type (
	Kind        string
	Granularity string
	LedgerID    string

	Date struct {
		time.Time
	}

	// RawTransaction is a transaction as received from a store or a form.
	// Amount and Date are kept as text; the ledger package decides how to read them.
	RawTransaction struct {
		Ref            string `json:"ref,omitempty"`
		Date           string `json:"date"`
		Kind           string `json:"kind"`
		Amount         string `json:"amount"`
		Category       string `json:"category"`
		Note           string `json:"note,omitempty"`
		Currency       string `json:"currency,omitempty"`
		AttachmentText string `json:"attachment_text,omitempty"`
	}

	// NormalizedEntry is one validated ledger line in the base currency.
	NormalizedEntry struct {
		Seq                int             `json:"seq"`
		Ref                string          `json:"ref,omitempty"`
		Date               Date            `json:"date"`
		Kind               Kind            `json:"kind"`
		Amount             decimal.Decimal `json:"amount"`
		SignedAmount       decimal.Decimal `json:"signed_amount"`
		ProfitContribution decimal.Decimal `json:"profit_contribution"`
		Category           string          `json:"category"`
		Note               string          `json:"note,omitempty"`
		Currency           string          `json:"currency"`
		AttachmentText     string          `json:"attachment_text,omitempty"`
	}
)

var (
	ErrInvalidRecord  = errors.New("invalid record")
	ErrInvalidDate    = errors.New("invalid date")
	ErrUnknownKind    = errors.New("unknown transaction kind")
	ErrLedgerNotFound = errors.New("ledger not found")
	ErrInvalidLedger  = errors.New("invalid ledger id")
)

// RecordError reports the raw record that stopped a normalization pass.
type RecordError struct {
	Index int
	Ref   string
	Err   error
}

func (e *RecordError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("record %d (%s): %v", e.Index, e.Ref, e.Err)
	}
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *RecordError) Unwrap() []error {
	return []error{ErrInvalidRecord, e.Err}
}

// ParseKind accepts the English labels and the French ones older ledgers were written with.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "revenue", "revenu":
		return Income, nil
	case "expense", "depense", "dépense":
		return Expense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) String() string {
	return string(k)
}

// ParseGranularity parses "day" or "month"; an empty string means Month.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case Day:
		return Day, nil
	case Month, "":
		return Month, nil
	}
	return "", fmt.Errorf("unknown granularity %q: must be one of day, month", s)
}

// Truncate returns the start of the bucket containing t.
func (g Granularity) Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	if g == Day {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

const secondsPerDay = 24 * 60 * 60

// Next advances a bucket start by n buckets.
func (g Granularity) Next(t time.Time, n int) time.Time {
	if g == Day {
		return t.AddDate(0, 0, n)
	}
	return t.AddDate(0, n, 0)
}

// Steps returns the number of buckets between two bucket starts.
func (g Granularity) Steps(from, to time.Time) int {
	if g == Day {
		// Unix seconds, since time.Duration saturates after about 292 years.
		return int((to.Unix() - from.Unix()) / secondsPerDay)
	}
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

func (g Granularity) String() string {
	return string(g)
}

// Validate rejects empty ledger identities and ones that cannot be used as a storage key.
func (l LedgerID) Validate() error {
	s := strings.TrimSpace(string(l))
	if s == "" {
		return fmt.Errorf("%w: empty", ErrInvalidLedger)
	}
	if len(s) > 128 || strings.ContainsAny(s, "/\\!'\"") {
		return fmt.Errorf("%w: %q", ErrInvalidLedger, s)
	}
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate reads a calendar date. Full RFC 3339 timestamps are accepted and
// truncated to their date in the timestamp's own offset.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NewDate(t.Year(), int(t.Month()), t.Day()), nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
