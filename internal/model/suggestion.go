package model

// SuggestionSource identifies which tier of the engine produced a candidate.
type SuggestionSource string

// Suggestion source constants, in tie-break priority order.
const (
	SourceRule       SuggestionSource = "rule"
	SourceHistorical SuggestionSource = "historical"
	SourceKeyword    SuggestionSource = "keyword"
	SourceDefault    SuggestionSource = "default"
)

// RationaleEntry explains one evaluated suggestion source to the user.
type RationaleEntry struct {
	Source      SuggestionSource
	Explanation string
	Confidence  float64
}

// Suggestion is the engine's best guess for a raw transaction. Derived, not
// persisted; recomputed on every import.
type Suggestion struct {
	CategoryName       string
	EntityName         string
	Type               TransactionType
	Tags               []string
	Rationale          []RationaleEntry
	CategoryID         int
	AccountID          int
	CategoryConfidence float64
	EntityConfidence   float64
}

// LowConfidence reports whether the suggestion should be flagged for
// mandatory review.
func (s Suggestion) LowConfidence() bool {
	return s.CategoryConfidence < 0.5
}
