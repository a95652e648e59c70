package suggest

import "time"

// Params collects the heuristic constants of the engine. The defaults are
// tunable knobs, not load-bearing business rules.
type Params struct {
	// Rule source.
	AmountRangeBonus float64
	TypeFilterBonus  float64

	// Historical source.
	HistoryBase            float64
	HistoryPerMatch        float64
	HistoryCap             float64
	HistoryAmountTolerance float64
	HistoryLimit           int

	// Keyword and default tiers.
	KeywordConfidence float64
	DefaultConfidence float64

	// Entity resolution.
	HintEntityConfidence float64

	// LookupTimeout bounds a single row's history lookup; on expiry the
	// engine degrades to the keyword/default tiers instead of stalling
	// the batch.
	LookupTimeout time.Duration
}

// DefaultParams returns the stock engine tuning.
func DefaultParams() Params {
	return Params{
		AmountRangeBonus:       0.2,
		TypeFilterBonus:        0.1,
		HistoryBase:            0.3,
		HistoryPerMatch:        0.1,
		HistoryCap:             0.8,
		HistoryAmountTolerance: 0.5,
		HistoryLimit:           200,
		KeywordConfidence:      0.6,
		DefaultConfidence:      0.3,
		HintEntityConfidence:   0.5,
		LookupTimeout:          2 * time.Second,
	}
}
