package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sift-money/sift/internal/common"
	"github.com/sift-money/sift/internal/model"
	"github.com/sift-money/sift/internal/service"
	"github.com/sift-money/sift/internal/similarity"
)

// ruleSource evaluates every active rule and proposes the best-scoring one.
// A rule's confidence is its matched keyword weights summed, plus bonuses
// for amount-range and type-filter hits, capped at 1.0.
func (e *Engine) ruleSource(_ context.Context, txn model.RawTransaction, sc Context) *candidate {
	rules := make([]model.Rule, 0, len(sc.Rules))
	for _, rule := range sc.Rules {
		if rule.IsActive {
			rules = append(rules, rule)
		}
	}
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		return rules[i].UpdatedAt.After(rules[j].UpdatedAt)
	})

	description := similarity.Normalize(txn.Description)

	var best *candidate
	for i := range rules {
		rule := &rules[i]

		var matched []string
		score := 0.0
		for _, kw := range rule.Keywords {
			if strings.Contains(description, similarity.Normalize(kw.Pattern)) {
				matched = append(matched, kw.Pattern)
				score += kw.Weight
			}
		}
		if len(matched) == 0 {
			continue
		}

		if rule.MatchesAmount(txn.Amount) {
			score += e.params.AmountRangeBonus
		}
		if rule.MatchesType(txn.Type) {
			score += e.params.TypeFilterBonus
		}
		if score > 1.0 {
			score = 1.0
		}

		// Strictly-greater keeps the priority/recency ordering on ties.
		if best != nil && score <= best.confidence {
			continue
		}

		cand := &candidate{
			categoryID:  rule.CategoryID,
			confidence:  score,
			explanation: fmt.Sprintf("rule %q matched %s", rule.Name, strings.Join(matched, ", ")),
		}
		if category := findCategoryByID(sc.Categories, rule.CategoryID); category != nil {
			cand.categoryName = category.Name
		}
		if rule.AccountID != nil {
			if account := findAccountByID(sc.Accounts, *rule.AccountID); account != nil {
				cand.accountID = account.ID
				cand.entityName = account.Name
				cand.entityConfidence = score
			}
		}
		best = cand
	}

	return best
}

// historySource looks for prior transactions of the same type, close in
// amount, with a similar description, and proposes their most frequent
// category/account pair. Lookup failures and timeouts degrade to nil.
func (e *Engine) historySource(ctx context.Context, txn model.RawTransaction, sc Context) *candidate {
	if sc.History == nil {
		return nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, e.params.LookupTimeout)
	defer cancel()

	tolerance := decimal.NewFromFloat(e.params.HistoryAmountTolerance)
	minAmount := txn.Amount.Sub(txn.Amount.Mul(tolerance))
	maxAmount := txn.Amount.Add(txn.Amount.Mul(tolerance))

	history, err := sc.History.FindTransactions(lookupCtx, service.TransactionQuery{
		Owner:     sc.Owner,
		Type:      txn.Type,
		AmountMin: &minAmount,
		AmountMax: &maxAmount,
		Limit:     e.params.HistoryLimit,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = common.ErrLookupTimeout
		}
		slog.Warn("history lookup failed, degrading to keyword tier",
			"owner", sc.Owner, "line", txn.SourceLine, "error", err)
		return nil
	}

	description := similarity.Normalize(txn.Description)
	phoneticKey := similarity.Key(txn.Description)

	type pair struct {
		categoryID int
		accountID  int
	}
	counts := make(map[pair]int)
	for _, prior := range history {
		priorDesc := similarity.Normalize(prior.Description)
		if !strings.Contains(priorDesc, description) &&
			!strings.Contains(description, priorDesc) &&
			similarity.Key(prior.Description) != phoneticKey {
			continue
		}
		p := pair{}
		if prior.CategoryID != nil {
			p.categoryID = *prior.CategoryID
		}
		if prior.AccountID != nil {
			p.accountID = *prior.AccountID
		}
		if p.categoryID == 0 {
			continue
		}
		counts[p]++
	}
	if len(counts) == 0 {
		return nil
	}

	var bestPair pair
	bestCount := 0
	for p, count := range counts {
		if count > bestCount {
			bestPair, bestCount = p, count
		}
	}

	confidence := e.params.HistoryBase + e.params.HistoryPerMatch*float64(bestCount)
	if confidence > e.params.HistoryCap {
		confidence = e.params.HistoryCap
	}

	cand := &candidate{
		categoryID:  bestPair.categoryID,
		confidence:  confidence,
		explanation: fmt.Sprintf("%d similar past transactions", bestCount),
	}
	if category := findCategoryByID(sc.Categories, bestPair.categoryID); category != nil {
		cand.categoryName = category.Name
	}
	if bestPair.accountID != 0 {
		if account := findAccountByID(sc.Accounts, bestPair.accountID); account != nil {
			cand.accountID = account.ID
			cand.entityName = account.Name
			cand.entityConfidence = confidence
		}
	}

	return cand
}

// keywordSource consults the fixed locale keyword table.
func (e *Engine) keywordSource(_ context.Context, txn model.RawTransaction, sc Context) *candidate {
	entry, keyword := lookupKeyword(txn.Description)
	if entry == nil {
		return nil
	}

	cand := &candidate{
		categoryName: entry.Category,
		confidence:   e.params.KeywordConfidence,
		explanation:  fmt.Sprintf("description contains %q", keyword),
	}
	if category := findCategoryByName(sc.Categories, entry.Category); category != nil {
		cand.categoryID = category.ID
		cand.categoryName = category.Name
	}

	return cand
}

// defaultSource falls back to the first category matching the transaction's
// direction, so every row gets at least a low-confidence suggestion.
func (e *Engine) defaultSource(_ context.Context, txn model.RawTransaction, sc Context) *candidate {
	want := model.CategoryTypeExpense
	if txn.Type == model.TypeIncome {
		want = model.CategoryTypeIncome
	}

	for _, category := range sc.Categories {
		if !category.IsActive {
			continue
		}
		if category.Type == want || strings.Contains(strings.ToLower(category.Name), string(want)) {
			return &candidate{
				categoryID:   category.ID,
				categoryName: category.Name,
				confidence:   e.params.DefaultConfidence,
				explanation:  fmt.Sprintf("first %s category", want),
			}
		}
	}

	return nil
}

func findCategoryByID(categories []model.Category, id int) *model.Category {
	for i := range categories {
		if categories[i].ID == id {
			return &categories[i]
		}
	}
	return nil
}

func findCategoryByName(categories []model.Category, name string) *model.Category {
	lower := strings.ToLower(name)
	for i := range categories {
		if strings.ToLower(categories[i].Name) == lower {
			return &categories[i]
		}
	}
	return nil
}

func findAccountByID(accounts []model.Account, id int) *model.Account {
	for i := range accounts {
		if accounts[i].ID == id {
			return &accounts[i]
		}
	}
	return nil
}

// findAccount matches an account hint by exact or substring name match.
func findAccount(accounts []model.Account, hint string) *model.Account {
	lower := strings.ToLower(strings.TrimSpace(hint))
	if lower == "" {
		return nil
	}
	for i := range accounts {
		name := strings.ToLower(accounts[i].Name)
		if name == lower || strings.Contains(name, lower) || strings.Contains(lower, name) {
			return &accounts[i]
		}
	}
	return nil
}
