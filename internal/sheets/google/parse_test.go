package google

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"google.golang.org/api/googleapi"

	"budget/internal/core"
)

func TestParseRows_WithHeader(t *testing.T) {
	values := [][]interface{}{
		{"Description", "Date", "Type", "Amount", "Category", "Currency"},
		{"Invoice 42", "2024-01-05", "Income", 1000.0, "Sales", "EUR"},
		{"", "", "", "", ""},
		{"Office rent", "2024-01-10", "Dépense", "400,50", "Rent"},
		{"Lunch", "2024-01-11", "expense", 12.5, "Food", "USD", "ignored"},
	}

	got := parseRows("Budget alice", values)
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}

	first := got[0]
	if first.Date != "2024-01-05" || first.Kind != "Income" || first.Amount != "1000" || first.Note != "Invoice 42" || first.Currency != "EUR" {
		t.Errorf("unexpected first row: %+v", first)
	}
	if first.Ref != "Budget alice!A2" {
		t.Errorf("unexpected ref %q", first.Ref)
	}
	if got[1].Amount != "400,50" || got[1].Currency != "" || got[1].Ref != "Budget alice!A4" {
		t.Errorf("unexpected second row: %+v", got[1])
	}
	if got[2].Amount != "12.5" || got[2].Currency != "USD" {
		t.Errorf("unexpected third row: %+v", got[2])
	}
}

func TestParseRows_PositionalColumns(t *testing.T) {
	values := [][]interface{}{
		{"2024-02-01", "income", 250.0, "Sales", "Consulting", "", "ACME RECEIPT"},
		{"2024-02-02", "expense", "abc"},
	}

	got := parseRows("alice", values)
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].AttachmentText != "ACME RECEIPT" || got[0].Note != "Consulting" || got[0].Ref != "alice!A1" {
		t.Errorf("unexpected first row: %+v", got[0])
	}
	if got[1].Amount != "abc" || got[1].Category != "" {
		t.Errorf("unexpected second row: %+v", got[1])
	}
}

func TestParseRows_Empty(t *testing.T) {
	got := parseRows("alice", nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
	if got := parseRows("alice", [][]interface{}{{"Date", "Type", "Amount"}}); len(got) != 0 {
		t.Fatalf("header only should yield nothing, got %d", len(got))
	}
}

func TestLedgersFromTitles(t *testing.T) {
	titles := []string{"Ledger bob", "Dashboard", "Ledger alice", "Ledger ", "Ledger a/b"}
	got := ledgersFromTitles(titles, "Ledger ")
	want := []core.LedgerID{"alice", "bob"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ledger %d: expected %q, got %q", i, want[i], got[i])
		}
	}

	if all := ledgersFromTitles([]string{"alice", "bob"}, ""); len(all) != 2 {
		t.Errorf("empty prefix should keep every tab, got %v", all)
	}
}

func TestSheetRange(t *testing.T) {
	if got := sheetRange("Budget O'Brien", "A:G"); got != "'Budget O''Brien'!A:G" {
		t.Errorf("unexpected range %q", got)
	}
}

func TestIsMissingSheet(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{&googleapi.Error{Code: http.StatusBadRequest, Message: "Unable to parse range: 'x'!A:G"}, true},
		{&googleapi.Error{Code: http.StatusNotFound}, true},
		{&googleapi.Error{Code: http.StatusForbidden}, false},
		{errors.New("boom"), false},
	}
	for _, tc := range cases {
		if got := isMissingSheet(tc.err); got != tc.want {
			t.Errorf("isMissingSheet(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(context.Background(), Config{}, nil); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if _, err := New(context.Background(), Config{SpreadsheetID: "id"}, nil); err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if _, err := New(context.Background(), Config{SpreadsheetID: "id", CredentialsFile: "/non/existent.json"}, nil); err == nil {
		t.Fatal("expected error for unreadable credentials file")
	}
}
