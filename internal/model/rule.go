package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RuleKeyword is one weighted description pattern inside a rule.
type RuleKeyword struct {
	Pattern string  `json:"pattern"`
	Weight  float64 `json:"weight"`
}

// Rule maps description patterns to a category, learned from user feedback
// or created manually. Confidence rises on reinforcement and decays when the
// rule goes unused.
type Rule struct {
	CreatedAt  time.Time
	UpdatedAt  time.Time
	LastUsedAt time.Time
	AmountMin  *decimal.Decimal
	AmountMax  *decimal.Decimal
	TypeFilter *TransactionType
	AccountID  *int
	Owner      string
	Name       string
	Keywords   []RuleKeyword
	ID         int64
	CategoryID int
	Priority   int
	UseCount   int
	Confidence float64
	IsActive   bool
}

// MatchesAmount reports whether an amount falls inside the rule's optional
// amount range.
func (r *Rule) MatchesAmount(amount decimal.Decimal) bool {
	if r.AmountMin == nil && r.AmountMax == nil {
		return false
	}
	if r.AmountMin != nil && amount.LessThan(*r.AmountMin) {
		return false
	}
	if r.AmountMax != nil && amount.GreaterThan(*r.AmountMax) {
		return false
	}
	return true
}

// MatchesType reports whether the rule's optional type filter matches.
func (r *Rule) MatchesType(t TransactionType) bool {
	return r.TypeFilter != nil && *r.TypeFilter == t
}
