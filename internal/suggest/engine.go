// Package suggest produces ranked category and account suggestions for raw
// transactions from a table of independent sources.
package suggest

import (
	"context"

	"github.com/sift-money/sift/internal/model"
	"github.com/sift-money/sift/internal/service"
)

// Context is the per-session read snapshot a suggestion is computed from.
// Rules, categories, and accounts are loaded once per import session; only
// history lookups touch the store during row processing.
type Context struct {
	History    service.HistoryStore
	Owner      string
	Rules      []model.Rule
	Categories []model.Category
	Accounts   []model.Account
}

// candidate is one source's proposed classification.
type candidate struct {
	categoryName     string
	entityName       string
	explanation      string
	categoryID       int
	accountID        int
	confidence       float64
	entityConfidence float64
}

// sourceFunc evaluates one suggestion tier. A nil candidate is a valid
// "no information" answer; sources never fail.
type sourceFunc func(ctx context.Context, txn model.RawTransaction, sc Context) *candidate

type namedSource struct {
	fn   sourceFunc
	name model.SuggestionSource
}

// Engine computes suggestions. It is a pure function of its inputs:
// identical rule and history state yields identical output.
type Engine struct {
	params  Params
	sources []namedSource
}

// NewEngine creates a suggestion engine with the given tuning.
func NewEngine(params Params) *Engine {
	e := &Engine{params: params}
	// Table order doubles as the tie-break priority order.
	e.sources = []namedSource{
		{name: model.SourceRule, fn: e.ruleSource},
		{name: model.SourceHistorical, fn: e.historySource},
		{name: model.SourceKeyword, fn: e.keywordSource},
		{name: model.SourceDefault, fn: e.defaultSource},
	}
	return e
}

// Suggest evaluates every source independently and picks the single
// candidate with the strictly highest confidence; exact ties fall to the
// earlier source in priority order. The rationale retains every evaluated
// source for user transparency.
func (e *Engine) Suggest(ctx context.Context, txn model.RawTransaction, sc Context) model.Suggestion {
	suggestion := model.Suggestion{
		Type: txn.Type,
		Tags: txn.Tags,
	}

	var best *candidate
	for _, source := range e.sources {
		cand := source.fn(ctx, txn, sc)

		entry := model.RationaleEntry{Source: source.name}
		if cand == nil {
			entry.Explanation = "no match"
		} else {
			entry.Confidence = cand.confidence
			entry.Explanation = cand.explanation
			if best == nil || cand.confidence > best.confidence {
				best = cand
			}
		}
		suggestion.Rationale = append(suggestion.Rationale, entry)
	}

	if best != nil {
		suggestion.CategoryID = best.categoryID
		suggestion.CategoryName = best.categoryName
		suggestion.CategoryConfidence = best.confidence
		suggestion.AccountID = best.accountID
		suggestion.EntityName = best.entityName
		suggestion.EntityConfidence = best.entityConfidence
	}

	e.resolveEntityHint(txn, sc, &suggestion)

	return suggestion
}

// resolveEntityHint fills the entity from the row's account hint when no
// source proposed one.
func (e *Engine) resolveEntityHint(txn model.RawTransaction, sc Context, s *model.Suggestion) {
	if s.EntityName != "" || txn.AccountHint == "" {
		return
	}
	if account := findAccount(sc.Accounts, txn.AccountHint); account != nil {
		s.AccountID = account.ID
		s.EntityName = account.Name
		s.EntityConfidence = e.params.HintEntityConfidence
	}
}
