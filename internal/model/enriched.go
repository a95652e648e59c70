package model

// ReviewStatus tracks a row through the review workflow.
type ReviewStatus string

// Review status constants.
const (
	StatusPending  ReviewStatus = "pending"
	StatusAccepted ReviewStatus = "accepted"
	StatusEdited   ReviewStatus = "edited"
	StatusRejected ReviewStatus = "rejected"
)

// DuplicateCandidate points at a persisted transaction that looks like the
// same real-world event.
type DuplicateCandidate struct {
	TransactionID string
	Similarity    float64
}

// DuplicateWarning flags a row as a probable duplicate of stored history.
type DuplicateWarning struct {
	Candidates []DuplicateCandidate
	Confidence float64
}

// EnrichedTransaction pairs a raw transaction with its computed suggestion
// for the duration of one import session.
type EnrichedTransaction struct {
	Duplicate  *DuplicateWarning
	Raw        RawTransaction
	Suggestion Suggestion
	Status     ReviewStatus
	Index      int
}
