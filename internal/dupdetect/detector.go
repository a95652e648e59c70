// Package dupdetect flags rows that are probably duplicates of persisted
// transactions, using date/amount windows and string similarity.
package dupdetect

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sift-money/sift/internal/common"
	"github.com/sift-money/sift/internal/model"
	"github.com/sift-money/sift/internal/service"
	"github.com/sift-money/sift/internal/similarity"
)

// Params collects the detector's tunable constants.
type Params struct {
	AmountTolerance  decimal.Decimal
	DateWindowDays   int
	Threshold        float64
	MaxCandidates    int
	SingleConfidence float64
	MultiConfidence  float64
	LookupTimeout    time.Duration
}

// DefaultParams returns the stock detector tuning: a ±3 day, ±0.01 currency
// unit window with a 0.7 similarity threshold.
func DefaultParams() Params {
	return Params{
		AmountTolerance:  decimal.NewFromFloat(0.01),
		DateWindowDays:   3,
		Threshold:        0.7,
		MaxCandidates:    5,
		SingleConfidence: 0.7,
		MultiConfidence:  0.9,
		LookupTimeout:    2 * time.Second,
	}
}

// Detector compares raw transactions against stored history. The similarity
// strategy set is pluggable; the best score across strategies wins.
type Detector struct {
	history    service.HistoryStore
	strategies []similarity.Strategy
	params     Params
}

// NewDetector creates a duplicate detector. With no strategies it defaults
// to normalized Levenshtein plus phonetic-key equality.
func NewDetector(history service.HistoryStore, strategies []similarity.Strategy, params Params) *Detector {
	if len(strategies) == 0 {
		strategies = []similarity.Strategy{similarity.Levenshtein{}, similarity.Phonetic{}}
	}
	return &Detector{history: history, strategies: strategies, params: params}
}

// FindDuplicates returns a warning when stored transactions inside the
// date/amount window score at or above the threshold, capped to the top
// candidates by similarity. An empty result is a valid "no information"
// answer; lookup failures never propagate.
func (d *Detector) FindDuplicates(ctx context.Context, txn model.RawTransaction, owner string) *model.DuplicateWarning {
	if d.history == nil {
		return nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, d.params.LookupTimeout)
	defer cancel()

	minAmount := txn.Amount.Sub(d.params.AmountTolerance)
	maxAmount := txn.Amount.Add(d.params.AmountTolerance)
	from := txn.Date.AddDate(0, 0, -d.params.DateWindowDays)
	to := txn.Date.AddDate(0, 0, d.params.DateWindowDays)

	existing, err := d.history.FindTransactions(lookupCtx, service.TransactionQuery{
		Owner:     owner,
		AmountMin: &minAmount,
		AmountMax: &maxAmount,
		DateFrom:  &from,
		DateTo:    &to,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = common.ErrLookupTimeout
		}
		slog.Warn("duplicate lookup failed, skipping row", "error", err, "line", txn.SourceLine)
		return nil
	}

	var candidates []model.DuplicateCandidate
	for _, prior := range existing {
		score := similarity.Best(txn.Description, prior.Description, d.strategies)
		if score >= d.params.Threshold {
			candidates = append(candidates, model.DuplicateCandidate{
				TransactionID: prior.ID,
				Similarity:    score,
			})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})
	if len(candidates) > d.params.MaxCandidates {
		candidates = candidates[:d.params.MaxCandidates]
	}

	confidence := d.params.SingleConfidence
	if len(candidates) > 1 {
		confidence = d.params.MultiConfidence
	}

	return &model.DuplicateWarning{Candidates: candidates, Confidence: confidence}
}
