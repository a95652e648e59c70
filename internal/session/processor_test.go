package session

import (
	"context"
	"testing"

	"github.com/sift-money/sift/internal/common"
	"github.com/sift-money/sift/internal/dupdetect"
	"github.com/sift-money/sift/internal/learn"
	"github.com/sift-money/sift/internal/model"
	"github.com/sift-money/sift/internal/normalize"
	"github.com/sift-money/sift/internal/parser"
	"github.com/sift-money/sift/internal/service"
	"github.com/sift-money/sift/internal/storage"
	"github.com/sift-money/sift/internal/suggest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(t *testing.T) (*Processor, *storage.SQLiteStorage) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.CreateCategory(context.Background(), "Groceries", model.CategoryTypeExpense)
	require.NoError(t, err)
	_, err = store.CreateCategory(context.Background(), "Fuel", model.CategoryTypeExpense)
	require.NoError(t, err)

	processor := NewProcessor(Config{
		Parser:     parser.New(),
		Normalizer: normalize.NewNormalizer(normalize.Config{}),
		Engine:     suggest.NewEngine(suggest.DefaultParams()),
		Detector:   dupdetect.NewDetector(store, nil, dupdetect.DefaultParams()),
		Feedback:   learn.NewStore(store, learn.DefaultParams()),
		Storage:    store,
	})

	return processor, store
}

const testStatement = "Date,Description,Amount\n" +
	"2024-01-15,COMPRA CONTINENTE LISBOA,-45.67\n" +
	"2024-01-16,GALP COMBUSTIVEIS,-30.00\n" +
	"2024-01-17,broken-row\n" +
	"2024-01-18,FARMACIA CENTRAL,-12.30\n"

func TestRunPipeline(t *testing.T) {
	processor, _ := newTestProcessor(t)

	imported, err := processor.Run(context.Background(), []byte(testStatement), parser.FormatAuto, "user1")
	require.NoError(t, err)

	assert.Equal(t, "user1", imported.Owner)
	assert.NotEmpty(t, imported.ID)
	assert.Equal(t, 3, imported.Stats.Rows)
	assert.Equal(t, 1, imported.Stats.Rejected)
	require.Len(t, imported.Diagnostics, 1)
	assert.Contains(t, imported.Diagnostics[0], "line 4")

	// Row order matches input order regardless of worker scheduling.
	require.Len(t, imported.Rows, 3)
	assert.Equal(t, "COMPRA CONTINENTE LISBOA", imported.Rows[0].Raw.Description)
	assert.Equal(t, "GALP COMBUSTIVEIS", imported.Rows[1].Raw.Description)
	assert.Equal(t, "FARMACIA CENTRAL", imported.Rows[2].Raw.Description)
	for i, row := range imported.Rows {
		assert.Equal(t, i, row.Index)
		assert.Equal(t, model.StatusPending, row.Status)
	}

	// The keyword tier classifies the known merchants.
	assert.Equal(t, "Groceries", imported.Rows[0].Suggestion.CategoryName)
	assert.Equal(t, "Fuel", imported.Rows[1].Suggestion.CategoryName)
}

func TestRunUnreadableInputFails(t *testing.T) {
	processor, _ := newTestProcessor(t)

	_, err := processor.Run(context.Background(), []byte("   "), parser.FormatAuto, "user1")
	assert.Error(t, err)
}

func TestRunCancelledContext(t *testing.T) {
	processor, _ := newTestProcessor(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := processor.Run(ctx, []byte(testStatement), parser.FormatAuto, "user1")
	assert.Error(t, err)
}

func TestApplyDecisionAndFinalize(t *testing.T) {
	processor, store := newTestProcessor(t)
	ctx := context.Background()

	imported, err := processor.Run(ctx, []byte(testStatement), parser.FormatAuto, "user1")
	require.NoError(t, err)
	require.Len(t, imported.Rows, 3)

	require.NoError(t, processor.ApplyDecision(ctx, imported, 0, learn.Decision{Kind: learn.DecisionAccepted}))
	require.NoError(t, processor.ApplyDecision(ctx, imported, 1, learn.Decision{Kind: learn.DecisionRejected}))
	require.NoError(t, processor.ApplyDecision(ctx, imported, 2, learn.Decision{Kind: learn.DecisionAccepted}))

	assert.Equal(t, model.StatusAccepted, imported.Rows[0].Status)
	assert.Equal(t, model.StatusRejected, imported.Rows[1].Status)

	ids, err := processor.Finalize(ctx, imported)
	require.NoError(t, err)
	assert.Len(t, ids, 2, "only accepted rows persist")

	found, err := store.FindTransactions(ctx, service.TransactionQuery{Owner: "user1"})
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestFinalizeIsIdempotent(t *testing.T) {
	processor, store := newTestProcessor(t)
	ctx := context.Background()

	imported, err := processor.Run(ctx, []byte(testStatement), parser.FormatAuto, "user1")
	require.NoError(t, err)
	require.NoError(t, processor.ApplyDecision(ctx, imported, 0, learn.Decision{Kind: learn.DecisionAccepted}))

	_, err = processor.Finalize(ctx, imported)
	require.NoError(t, err)
	_, err = processor.Finalize(ctx, imported)
	require.NoError(t, err)

	found, err := store.FindTransactions(ctx, service.TransactionQuery{Owner: "user1"})
	require.NoError(t, err)
	assert.Len(t, found, 1, "hash keying prevents double persistence")
}

func TestFinalizeFailureIsRetryable(t *testing.T) {
	processor, store := newTestProcessor(t)
	ctx := context.Background()

	imported, err := processor.Run(ctx, []byte(testStatement), parser.FormatAuto, "user1")
	require.NoError(t, err)
	require.NoError(t, processor.ApplyDecision(ctx, imported, 0, learn.Decision{Kind: learn.DecisionAccepted}))

	require.NoError(t, store.Close())

	_, err = processor.Finalize(ctx, imported)
	require.Error(t, err)
	assert.True(t, common.IsRetryable(err), "persistence failures should be safe to retry")
}

func TestApplyDecisionCorrectedLearnsRule(t *testing.T) {
	processor, store := newTestProcessor(t)
	ctx := context.Background()

	imported, err := processor.Run(ctx, []byte(testStatement), parser.FormatAuto, "user1")
	require.NoError(t, err)

	fuel, err := store.GetCategoryByName(ctx, "Fuel")
	require.NoError(t, err)

	require.NoError(t, processor.ApplyDecision(ctx, imported, 1,
		learn.Decision{Kind: learn.DecisionCorrected, CategoryID: fuel.ID}))

	assert.Equal(t, model.StatusEdited, imported.Rows[1].Status)
	assert.Equal(t, fuel.ID, imported.Rows[1].Suggestion.CategoryID)

	rules, err := store.ListActiveRules(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, fuel.ID, rules[0].CategoryID)
}

func TestApplyDecisionOutOfRange(t *testing.T) {
	processor, _ := newTestProcessor(t)
	ctx := context.Background()

	imported, err := processor.Run(ctx, []byte(testStatement), parser.FormatAuto, "user1")
	require.NoError(t, err)

	err = processor.ApplyDecision(ctx, imported, 99, learn.Decision{Kind: learn.DecisionAccepted})
	assert.Error(t, err)
}

func TestFinalizeWithNothingAccepted(t *testing.T) {
	processor, _ := newTestProcessor(t)
	ctx := context.Background()

	imported, err := processor.Run(ctx, []byte(testStatement), parser.FormatAuto, "user1")
	require.NoError(t, err)

	ids, err := processor.Finalize(ctx, imported)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCancelDiscardsSession(t *testing.T) {
	processor, _ := newTestProcessor(t)
	ctx := context.Background()

	imported, err := processor.Run(ctx, []byte(testStatement), parser.FormatAuto, "user1")
	require.NoError(t, err)
	require.NotEmpty(t, imported.Rows)

	processor.Cancel(imported)
	assert.Empty(t, imported.Rows)
	assert.Empty(t, imported.Diagnostics)
	assert.Zero(t, imported.Stats)
}

func TestSecondImportFlagsDuplicates(t *testing.T) {
	processor, _ := newTestProcessor(t)
	ctx := context.Background()

	first, err := processor.Run(ctx, []byte(testStatement), parser.FormatAuto, "user1")
	require.NoError(t, err)
	for i := range first.Rows {
		require.NoError(t, processor.ApplyDecision(ctx, first, i, learn.Decision{Kind: learn.DecisionAccepted}))
	}
	_, err = processor.Finalize(ctx, first)
	require.NoError(t, err)

	second, err := processor.Run(ctx, []byte(testStatement), parser.FormatAuto, "user1")
	require.NoError(t, err)

	assert.Equal(t, len(second.Rows), second.Stats.Duplicates,
		"every re-imported row should carry a duplicate warning")
	for _, row := range second.Rows {
		require.NotNil(t, row.Duplicate)
		assert.NotEmpty(t, row.Duplicate.Candidates)
	}
}
