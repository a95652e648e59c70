// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sift-money/sift/internal/model"
)

// TransactionQuery defines filtering options for history lookups.
type TransactionQuery struct {
	AmountMin       *decimal.Decimal
	AmountMax       *decimal.Decimal
	DateFrom        *time.Time
	DateTo          *time.Time
	Owner           string
	DescriptionHint string
	Type            model.TransactionType
	Limit           int
}

// HistoryStore is the read/write contract for persisted transactions.
// Reads feed historical-similarity matching and duplicate detection; the
// write path is invoked only at session finalization.
type HistoryStore interface {
	FindTransactions(ctx context.Context, query TransactionQuery) ([]model.Transaction, error)
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
}

// RuleStore owns learned and manual suggestion rules.
type RuleStore interface {
	ListActiveRules(ctx context.Context, owner string) ([]model.Rule, error)
	ListRules(ctx context.Context, owner string) ([]model.Rule, error)
	CreateRule(ctx context.Context, rule *model.Rule) error
	UpdateRule(ctx context.Context, rule *model.Rule) error
	DeleteRule(ctx context.Context, id int64) error
}

// Directory is the read-mostly list of categories and accounts used for
// suggestion candidate generation.
type Directory interface {
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	CreateCategory(ctx context.Context, name string, categoryType model.CategoryType) (*model.Category, error)
	GetAccounts(ctx context.Context) ([]model.Account, error)
	GetAccountByName(ctx context.Context, name string) (*model.Account, error)
	CreateAccount(ctx context.Context, name, accountType string) (*model.Account, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	HistoryStore
	RuleStore
	Directory

	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
