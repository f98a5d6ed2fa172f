package domain

import (
	"github.com/shopspring/decimal"
)

type CreditCard struct {
	ID           int    `json:"id"`
	UserID       int    `json:"user_id"`
	Number       string `json:"number"`
	IssuanceBank string `json:"issuance_bank"`
}

// BalanceRecord pins one card's balance to one calendar day. CardID is set when
// the record is created and never changes afterwards.
type BalanceRecord struct {
	Date    Date            `json:"date"`
	Balance decimal.Decimal `json:"balance"`
	CardID  int             `json:"card_id"`
}

// BalanceUpdate is a correction event: an external assertion of the true
// balance of a card on a given date.
type BalanceUpdate struct {
	CardNumber string          `json:"creditCardNumber"`
	Date       Date            `json:"balanceDate"`
	Amount     decimal.Decimal `json:"balanceAmount"`
}
