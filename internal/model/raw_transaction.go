// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType indicates the direction of money movement.
type TransactionType string

// Transaction type constants.
const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
)

// RawTransaction is a normalized, unverified candidate record produced from
// parsed input before any suggestion or review. Immutable once created.
type RawTransaction struct {
	Date         time.Time
	Description  string
	CategoryHint string
	AccountHint  string
	Type         TransactionType
	Tags         []string
	SourceRow    map[string]string
	Amount       decimal.Decimal
	SourceLine   int
	DateAssumed  bool
}

// GenerateHash creates a stable fingerprint for duplicate-safe persistence.
func (r *RawTransaction) GenerateHash(owner string) string {
	data := fmt.Sprintf("%s:%s:%s:%s",
		r.Date.Format("2006-01-02"),
		r.Amount.StringFixed(2),
		r.Description,
		owner)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
