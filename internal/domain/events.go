package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceUpdated is published after a correction has been applied and the
// resulting timeline persisted.
type BalanceUpdated struct {
	EventID    string          `json:"event_id"`
	CardNumber string          `json:"card_number"`
	Date       Date            `json:"date"`
	Amount     decimal.Decimal `json:"amount"`
	Delta      decimal.Decimal `json:"delta"`
	OccurredAt time.Time       `json:"occurred_at"`
	Signature  string          `json:"signature,omitempty"`
}
