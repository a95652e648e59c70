package suggest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sift-money/sift/internal/model"
	"github.com/sift-money/sift/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHistory returns canned transactions for history lookups.
type fakeHistory struct {
	transactions []model.Transaction
	err          error
}

func (f *fakeHistory) FindTransactions(_ context.Context, _ service.TransactionQuery) ([]model.Transaction, error) {
	return f.transactions, f.err
}

func (f *fakeHistory) SaveTransactions(_ context.Context, _ []model.Transaction) error {
	return nil
}

func testCategories() []model.Category {
	return []model.Category{
		{ID: 1, Name: "Groceries", Type: model.CategoryTypeExpense, IsActive: true},
		{ID: 2, Name: "Fuel", Type: model.CategoryTypeExpense, IsActive: true},
		{ID: 3, Name: "Salary", Type: model.CategoryTypeIncome, IsActive: true},
	}
}

func testTxn(description string, amount float64) model.RawTransaction {
	return model.RawTransaction{
		Date:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Description: description,
		Amount:      decimal.NewFromFloat(amount),
		Type:        model.TypeExpense,
	}
}

func TestSuggestKeywordTier(t *testing.T) {
	engine := NewEngine(DefaultParams())
	sc := Context{Categories: testCategories()}

	got := engine.Suggest(context.Background(), testTxn("COMPRA CONTINENTE LISBOA", 45.67), sc)

	assert.Equal(t, 1, got.CategoryID)
	assert.Equal(t, "Groceries", got.CategoryName)
	assert.InDelta(t, 0.6, got.CategoryConfidence, 0.001)
}

func TestSuggestDefaultTier(t *testing.T) {
	engine := NewEngine(DefaultParams())
	sc := Context{Categories: testCategories()}

	got := engine.Suggest(context.Background(), testTxn("XKCD UNMATCHED", 10), sc)

	assert.Equal(t, 1, got.CategoryID, "first active expense category")
	assert.InDelta(t, 0.3, got.CategoryConfidence, 0.001)
	assert.True(t, got.LowConfidence())
}

func TestSuggestRuleBeatsKeyword(t *testing.T) {
	engine := NewEngine(DefaultParams())
	sc := Context{
		Categories: testCategories(),
		Rules: []model.Rule{{
			ID:         1,
			Name:       "my groceries rule",
			Keywords:   []model.RuleKeyword{{Pattern: "continente", Weight: 0.7}},
			CategoryID: 2,
			Confidence: 0.7,
			IsActive:   true,
		}},
	}

	got := engine.Suggest(context.Background(), testTxn("COMPRA CONTINENTE LISBOA", 45.67), sc)

	assert.Equal(t, 2, got.CategoryID)
	assert.InDelta(t, 0.7, got.CategoryConfidence, 0.001)
}

func TestSuggestTieFallsToEarlierSource(t *testing.T) {
	// A rule scoring exactly the keyword confidence must win the tie.
	engine := NewEngine(DefaultParams())
	sc := Context{
		Categories: testCategories(),
		Rules: []model.Rule{{
			ID:         1,
			Name:       "weak rule",
			Keywords:   []model.RuleKeyword{{Pattern: "continente", Weight: 0.6}},
			CategoryID: 2,
			Confidence: 0.6,
			IsActive:   true,
		}},
	}

	got := engine.Suggest(context.Background(), testTxn("CONTINENTE LISBOA", 45.67), sc)

	assert.Equal(t, 2, got.CategoryID, "rule tier wins exact ties over keyword tier")
}

func TestSuggestRuleBonusesAndCap(t *testing.T) {
	engine := NewEngine(DefaultParams())
	amountMin := decimal.NewFromInt(40)
	amountMax := decimal.NewFromInt(50)
	typeFilter := model.TypeExpense
	sc := Context{
		Categories: testCategories(),
		Rules: []model.Rule{{
			ID:   1,
			Name: "bounded rule",
			Keywords: []model.RuleKeyword{
				{Pattern: "continente", Weight: 0.7},
				{Pattern: "lisboa", Weight: 0.7},
			},
			AmountMin:  &amountMin,
			AmountMax:  &amountMax,
			TypeFilter: &typeFilter,
			CategoryID: 1,
			Confidence: 0.7,
			IsActive:   true,
		}},
	}

	got := engine.Suggest(context.Background(), testTxn("CONTINENTE LISBOA", 45.67), sc)

	// 0.7 + 0.7 + 0.2 + 0.1 caps at 1.0.
	assert.InDelta(t, 1.0, got.CategoryConfidence, 0.001)
}

func TestSuggestInactiveRuleIgnored(t *testing.T) {
	engine := NewEngine(DefaultParams())
	sc := Context{
		Categories: testCategories(),
		Rules: []model.Rule{{
			ID:         1,
			Name:       "dormant",
			Keywords:   []model.RuleKeyword{{Pattern: "continente", Weight: 0.9}},
			CategoryID: 2,
			Confidence: 0.9,
			IsActive:   false,
		}},
	}

	got := engine.Suggest(context.Background(), testTxn("CONTINENTE LISBOA", 45.67), sc)

	assert.Equal(t, 1, got.CategoryID, "keyword tier should win when rule is inactive")
	assert.InDelta(t, 0.6, got.CategoryConfidence, 0.001)
}

func TestSuggestHistoryTier(t *testing.T) {
	categoryID := 2
	engine := NewEngine(DefaultParams())
	sc := Context{
		Owner:      "user1",
		Categories: testCategories(),
		History: &fakeHistory{transactions: []model.Transaction{
			{ID: "t1", Description: "GALP COMBUSTIVEIS LISBOA", CategoryID: &categoryID},
			{ID: "t2", Description: "GALP COMBUSTIVEIS LISBOA", CategoryID: &categoryID},
			{ID: "t3", Description: "GALP COMBUSTIVEIS LISBOA", CategoryID: &categoryID},
			{ID: "t4", Description: "GALP COMBUSTIVEIS LISBOA", CategoryID: &categoryID},
		}},
	}

	got := engine.Suggest(context.Background(), testTxn("GALP COMBUSTIVEIS LISBOA", 30), sc)

	assert.Equal(t, 2, got.CategoryID)
	// 0.3 base + 0.1 per match = 0.7, above the keyword tier.
	assert.InDelta(t, 0.7, got.CategoryConfidence, 0.001)
}

func TestSuggestHistoryConfidenceCap(t *testing.T) {
	categoryID := 2
	var history []model.Transaction
	for i := 0; i < 20; i++ {
		history = append(history, model.Transaction{Description: "GALP LISBOA", CategoryID: &categoryID})
	}

	engine := NewEngine(DefaultParams())
	sc := Context{
		Owner:      "user1",
		Categories: testCategories(),
		History:    &fakeHistory{transactions: history},
	}

	got := engine.Suggest(context.Background(), testTxn("GALP LISBOA", 30), sc)

	assert.InDelta(t, 0.8, got.CategoryConfidence, 0.001)
}

func TestSuggestHistoryFailureDegrades(t *testing.T) {
	engine := NewEngine(DefaultParams())
	sc := Context{
		Owner:      "user1",
		Categories: testCategories(),
		History:    &fakeHistory{err: errors.New("db locked")},
	}

	got := engine.Suggest(context.Background(), testTxn("COMPRA CONTINENTE", 45.67), sc)

	// Lookup failure never fails the suggestion; the keyword tier answers.
	assert.Equal(t, 1, got.CategoryID)
	assert.InDelta(t, 0.6, got.CategoryConfidence, 0.001)
}

func TestSuggestRationaleCoversAllSources(t *testing.T) {
	engine := NewEngine(DefaultParams())
	sc := Context{Categories: testCategories()}

	got := engine.Suggest(context.Background(), testTxn("COMPRA CONTINENTE", 45.67), sc)

	require.Len(t, got.Rationale, 4)
	sources := make([]model.SuggestionSource, 0, len(got.Rationale))
	for _, entry := range got.Rationale {
		sources = append(sources, entry.Source)
	}
	assert.Equal(t, []model.SuggestionSource{
		model.SourceRule, model.SourceHistorical, model.SourceKeyword, model.SourceDefault,
	}, sources)

	// Sources with nothing to say still explain themselves.
	assert.Equal(t, "no match", got.Rationale[0].Explanation)
}

func TestSuggestConfidenceIsMaxOfSources(t *testing.T) {
	engine := NewEngine(DefaultParams())
	sc := Context{
		Categories: testCategories(),
		Rules: []model.Rule{{
			ID:         1,
			Name:       "fuel rule",
			Keywords:   []model.RuleKeyword{{Pattern: "galp", Weight: 0.9}},
			CategoryID: 2,
			Confidence: 0.9,
			IsActive:   true,
		}},
	}

	got := engine.Suggest(context.Background(), testTxn("GALP GASOLINA", 30), sc)

	for _, entry := range got.Rationale {
		assert.LessOrEqual(t, entry.Confidence, got.CategoryConfidence,
			"chosen confidence must be the maximum across sources")
	}
	assert.Equal(t, 2, got.CategoryID)
}

func TestSuggestAccountHint(t *testing.T) {
	engine := NewEngine(DefaultParams())
	sc := Context{
		Categories: testCategories(),
		Accounts: []model.Account{
			{ID: 1, Name: "Millennium", IsActive: true},
		},
	}

	txn := testTxn("COMPRA CONTINENTE", 45.67)
	txn.AccountHint = "millennium"

	got := engine.Suggest(context.Background(), txn, sc)

	assert.Equal(t, 1, got.AccountID)
	assert.Equal(t, "Millennium", got.EntityName)
	assert.InDelta(t, 0.5, got.EntityConfidence, 0.001)
}

func TestSuggestPreservesTypeAndTags(t *testing.T) {
	engine := NewEngine(DefaultParams())
	txn := testTxn("COMPRA CONTINENTE", 45.67)
	txn.Tags = []string{"food"}

	got := engine.Suggest(context.Background(), txn, Context{Categories: testCategories()})

	assert.Equal(t, model.TypeExpense, got.Type)
	assert.Equal(t, []string{"food"}, got.Tags)
}
