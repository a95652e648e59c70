package model

import "time"

// CategoryType indicates whether a category is for income, expense, or
// system use (e.g. transfers).
type CategoryType string

const (
	// CategoryTypeIncome represents categories for income transactions.
	CategoryTypeIncome CategoryType = "income"
	// CategoryTypeExpense represents categories for expense transactions.
	CategoryTypeExpense CategoryType = "expense"
	// CategoryTypeSystem represents system-managed categories.
	CategoryTypeSystem CategoryType = "system"
)

// Category is a valid classification target for transactions.
type Category struct {
	CreatedAt time.Time
	Name      string
	Type      CategoryType
	ID        int
	IsActive  bool
}

// Account is a money source or destination known to the user.
type Account struct {
	CreatedAt time.Time
	Name      string
	Type      string
	ID        int
	IsActive  bool
}
