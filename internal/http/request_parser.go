// Package http serves the ledger reports as a JSON API.
//
// This file implements parsing and validation of path, query and body input.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"budget/internal/core"
)

// maxBodyBytes bounds a transaction payload.
const maxBodyBytes = 64 << 10

// ParseLedger reads and validates the {ledger} path segment.
func ParseLedger(r *http.Request) (core.LedgerID, error) {
	id := core.LedgerID(strings.TrimSpace(r.PathValue("ledger")))
	if err := id.Validate(); err != nil {
		return "", err
	}
	return id, nil
}

// ParseGranularity reads the granularity query parameter; empty means month.
func ParseGranularity(query url.Values) (core.Granularity, error) {
	return core.ParseGranularity(query.Get("granularity"))
}

// TransactionRequest is the body accepted by the append endpoint.
type TransactionRequest struct {
	Date           string     `json:"date"`
	Kind           string     `json:"kind"`
	Amount         flexAmount `json:"amount"`
	Category       string     `json:"category"`
	Note           string     `json:"note"`
	Currency       string     `json:"currency"`
	AttachmentText string     `json:"attachment_text"`
}

// flexAmount accepts a JSON number or a string such as "12,50".
type flexAmount string

func (a *flexAmount) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = flexAmount(s)
		return nil
	}
	if string(b) == "null" {
		*a = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a number or a string: %w", err)
	}
	*a = flexAmount(n.String())
	return nil
}

// ParseTransaction decodes a transaction body. Unknown fields and trailing
// data are rejected.
func ParseTransaction(w http.ResponseWriter, r *http.Request) (core.RawTransaction, error) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	var req TransactionRequest
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return core.RawTransaction{}, errors.New("request body is empty")
		}
		return core.RawTransaction{}, fmt.Errorf("invalid transaction body: %w", err)
	}
	if dec.More() {
		return core.RawTransaction{}, errors.New("invalid transaction body: trailing data")
	}

	return core.RawTransaction{
		Date:           sanitizeInput(req.Date),
		Kind:           sanitizeInput(req.Kind),
		Amount:         sanitizeInput(string(req.Amount)),
		Category:       sanitizeInput(req.Category),
		Note:           sanitizeInput(req.Note),
		Currency:       strings.ToUpper(sanitizeInput(req.Currency)),
		AttachmentText: sanitizeInput(req.AttachmentText),
	}, nil
}

// sanitizeInput drops control characters other than tab and newlines and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
