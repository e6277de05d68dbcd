package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"budget/internal/core"
)

// RefreshMessage asks the worker to re-analyze a ledger. It carries only the
// ledger identity; the worker reads the transactions itself.
type RefreshMessage struct {
	ID        string        `json:"id"`
	Ledger    core.LedgerID `json:"ledger"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewRefreshMessage(ledger core.LedgerID) *RefreshMessage {
	return &RefreshMessage{
		ID:        uuid.NewString(),
		Ledger:    ledger,
		Timestamp: time.Now().UTC(),
	}
}

func (m *RefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshMessageFromJSON decodes a refresh request and rejects unusable ledgers.
func RefreshMessageFromJSON(data []byte) (*RefreshMessage, error) {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Ledger.Validate(); err != nil {
		return nil, fmt.Errorf("refresh message %s: %w", msg.ID, err)
	}
	return &msg, nil
}

// AlertMessage announces that the latest entry of a ledger is an expense above the threshold.
type AlertMessage struct {
	ID        string          `json:"id"`
	Ledger    core.LedgerID   `json:"ledger"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	Date      core.Date       `json:"date"`
	Threshold decimal.Decimal `json:"threshold"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewAlertMessage(ledger core.LedgerID, d core.AlertDecision) *AlertMessage {
	return &AlertMessage{
		ID:        uuid.NewString(),
		Ledger:    ledger,
		Amount:    d.Amount,
		Category:  d.Category,
		Date:      d.Date,
		Threshold: d.Threshold,
		Timestamp: time.Now().UTC(),
	}
}

func (m *AlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func AlertMessageFromJSON(data []byte) (*AlertMessage, error) {
	var msg AlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
