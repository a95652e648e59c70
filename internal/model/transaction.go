package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a persisted financial transaction, written only when the
// user accepts a reviewed row.
type Transaction struct {
	Date        time.Time
	CreatedAt   time.Time
	CategoryID  *int
	AccountID   *int
	ID          string
	Owner       string
	Description string
	Hash        string
	Type        TransactionType
	Amount      decimal.Decimal
}
