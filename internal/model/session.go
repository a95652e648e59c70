package model

import "time"

// SessionStats summarizes one import session for the user.
type SessionStats struct {
	Rows          int
	Rejected      int
	Duplicates    int
	LowConfidence int
}

// ImportSession holds the reviewable result of one file or paste. Nothing is
// persisted until rows are explicitly accepted at finalization; cancelling a
// session simply discards it.
type ImportSession struct {
	CreatedAt   time.Time
	ID          string
	Owner       string
	Rows        []EnrichedTransaction
	Diagnostics []string
	Stats       SessionStats
}
