package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one validated money transfer between two accounts.
type Transaction struct {
	From      string          `json:"from_account"`
	To        string          `json:"to_account"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

// IsSelfTransfer reports whether the transfer moves money to the same account.
func (t Transaction) IsSelfTransfer() bool {
	return t.From == t.To
}
