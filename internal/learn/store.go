// Package learn turns user review decisions into persisted suggestion rules
// and keeps the rule set from growing stale.
package learn

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sift-money/sift/internal/common"
	"github.com/sift-money/sift/internal/model"
	"github.com/sift-money/sift/internal/service"
	"github.com/sift-money/sift/internal/similarity"
)

// DecisionKind is the user's verdict on a suggested row.
type DecisionKind string

// Decision kinds.
const (
	DecisionAccepted  DecisionKind = "accepted"
	DecisionCorrected DecisionKind = "corrected"
	DecisionRejected  DecisionKind = "rejected"
)

// Decision carries the user's verdict; CategoryID and AccountID are set for
// corrections.
type Decision struct {
	AccountID  *int
	Kind       DecisionKind
	CategoryID int
}

// Params collects the learning loop's tunable constants.
type Params struct {
	InitialConfidence float64
	ReinforceStep     float64
	ConfidenceCap     float64
	DecayStep         float64
	DecayFloor        float64
	MaxKeywords       int
	PruneMaxUseCount  int
	PruneAgeMonths    int
	DecayIdleMonths   int
}

// DefaultParams returns the stock learning tuning.
func DefaultParams() Params {
	return Params{
		InitialConfidence: 0.7,
		ReinforceStep:     0.05,
		ConfidenceCap:     0.95,
		DecayStep:         0.1,
		DecayFloor:        0.1,
		MaxKeywords:       5,
		PruneMaxUseCount:  3,
		PruneAgeMonths:    6,
		DecayIdleMonths:   3,
	}
}

// Store records feedback against the rule store. Rule writes are the one
// place in the pipeline where persistence failures must surface: losing
// feedback silently degrades future suggestions without visible symptoms,
// so writes are retried and errors returned to the caller.
type Store struct {
	rules     service.RuleStore
	now       func() time.Time
	params    Params
	retryOpts service.RetryOptions
}

// NewStore creates a learning store over the given rule store.
func NewStore(rules service.RuleStore, params Params) *Store {
	return &Store{
		rules:  rules,
		params: params,
		now:    time.Now,
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 100 * time.Millisecond,
		},
	}
}

// RecordFeedback persists the consequence of one review decision.
func (s *Store) RecordFeedback(ctx context.Context, owner string, txn model.RawTransaction, suggestion model.Suggestion, decision Decision) error {
	switch decision.Kind {
	case DecisionAccepted:
		if suggestion.CategoryID == 0 {
			return nil
		}
		return s.reinforceOrCreate(ctx, owner, txn, suggestion.CategoryID, accountIDPtr(suggestion.AccountID), false)
	case DecisionCorrected:
		if decision.CategoryID == 0 {
			return fmt.Errorf("corrected decision requires a category")
		}
		// Corrections are stronger signal than passive acceptance; the
		// rule always lands at no less than initial confidence.
		return s.reinforceOrCreate(ctx, owner, txn, decision.CategoryID, decision.AccountID, true)
	case DecisionRejected:
		return nil
	default:
		return fmt.Errorf("unknown decision kind %q", decision.Kind)
	}
}

// reinforceOrCreate bumps an overlapping same-category rule, or synthesizes
// a new rule from the description's top keywords. A correction floors the
// rule back at initial confidence even when decay had eroded it.
func (s *Store) reinforceOrCreate(ctx context.Context, owner string, txn model.RawTransaction, categoryID int, accountID *int, corrected bool) error {
	rules, err := s.rules.ListActiveRules(ctx, owner)
	if err != nil {
		return fmt.Errorf("failed to list rules: %w", err)
	}

	description := similarity.Normalize(txn.Description)
	for i := range rules {
		rule := &rules[i]
		if rule.CategoryID != categoryID || !overlaps(rule, description) {
			continue
		}

		rule.UseCount++
		rule.Confidence += s.params.ReinforceStep
		if corrected && rule.Confidence < s.params.InitialConfidence {
			rule.Confidence = s.params.InitialConfidence
		}
		if rule.Confidence > s.params.ConfidenceCap {
			rule.Confidence = s.params.ConfidenceCap
		}
		for j := range rule.Keywords {
			rule.Keywords[j].Weight = rule.Confidence
		}
		rule.LastUsedAt = s.now()
		rule.UpdatedAt = s.now()
		if accountID != nil {
			rule.AccountID = accountID
		}

		return s.write(ctx, func() error { return s.rules.UpdateRule(ctx, rule) })
	}

	keywords := ExtractKeywords(txn.Description, s.params.MaxKeywords)
	if len(keywords) == 0 {
		return nil
	}

	rule := &model.Rule{
		Owner:      owner,
		Name:       fmt.Sprintf("learned: %s", strings.Join(keywords, " ")),
		CategoryID: categoryID,
		AccountID:  accountID,
		Confidence: s.params.InitialConfidence,
		UseCount:   1,
		IsActive:   true,
		LastUsedAt: s.now(),
	}
	for _, kw := range keywords {
		rule.Keywords = append(rule.Keywords, model.RuleKeyword{
			Pattern: kw,
			Weight:  s.params.InitialConfidence,
		})
	}

	return s.write(ctx, func() error { return s.rules.CreateRule(ctx, rule) })
}

// overlaps reports whether any of the rule's patterns appear in the
// normalized description.
func overlaps(rule *model.Rule, description string) bool {
	for _, kw := range rule.Keywords {
		if strings.Contains(description, similarity.Normalize(kw.Pattern)) {
			return true
		}
	}
	return false
}

// write runs a persistence call with retries, marking failures retryable
// for the caller.
func (s *Store) write(ctx context.Context, op func() error) error {
	err := common.WithRetry(ctx, op, s.retryOpts)
	if err != nil {
		return &common.RetryableError{Err: err, Retryable: true}
	}
	return nil
}

// MaintenanceResult reports what a maintenance pass changed.
type MaintenanceResult struct {
	Pruned  int
	Decayed int
}

// Maintain deletes rules older than the prune age that never earned their
// keep, and decays confidence on rules unused for the idle window. Meant to
// run periodically, not per request.
func (s *Store) Maintain(ctx context.Context, owner string) (MaintenanceResult, error) {
	var result MaintenanceResult

	rules, err := s.rules.ListRules(ctx, owner)
	if err != nil {
		return result, fmt.Errorf("failed to list rules: %w", err)
	}

	now := s.now()
	pruneBefore := now.AddDate(0, -s.params.PruneAgeMonths, 0)
	idleBefore := now.AddDate(0, -s.params.DecayIdleMonths, 0)

	for i := range rules {
		rule := &rules[i]

		if rule.CreatedAt.Before(pruneBefore) && rule.UseCount < s.params.PruneMaxUseCount {
			if err := s.write(ctx, func() error { return s.rules.DeleteRule(ctx, rule.ID) }); err != nil {
				return result, err
			}
			result.Pruned++
			continue
		}

		if rule.LastUsedAt.Before(idleBefore) && rule.Confidence > s.params.DecayFloor {
			rule.Confidence -= s.params.DecayStep
			if rule.Confidence < s.params.DecayFloor {
				rule.Confidence = s.params.DecayFloor
			}
			for j := range rule.Keywords {
				rule.Keywords[j].Weight = rule.Confidence
			}
			rule.UpdatedAt = now
			if err := s.write(ctx, func() error { return s.rules.UpdateRule(ctx, rule) }); err != nil {
				return result, err
			}
			result.Decayed++
		}
	}

	return result, nil
}

func accountIDPtr(id int) *int {
	if id == 0 {
		return nil
	}
	return &id
}
