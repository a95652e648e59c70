package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sift-money/sift/internal/common"
	"github.com/sift-money/sift/internal/learn"
	"github.com/sift-money/sift/internal/model"
	"github.com/sift-money/sift/internal/service"
)

// ApplyDecision records the user's verdict on one row: the row's status
// changes, an edit rewrites the row's category/account, and the decision is
// fed to the learning store. Feedback persistence failures surface to the
// caller as retryable.
func (p *Processor) ApplyDecision(ctx context.Context, session *model.ImportSession, index int, decision learn.Decision) error {
	if index < 0 || index >= len(session.Rows) {
		return fmt.Errorf("row index %d out of range", index)
	}
	row := &session.Rows[index]

	switch decision.Kind {
	case learn.DecisionAccepted:
		row.Status = model.StatusAccepted
	case learn.DecisionCorrected:
		row.Status = model.StatusEdited
		row.Suggestion.CategoryID = decision.CategoryID
		if decision.AccountID != nil {
			row.Suggestion.AccountID = *decision.AccountID
		}
	case learn.DecisionRejected:
		row.Status = model.StatusRejected
	default:
		return fmt.Errorf("unknown decision kind %q", decision.Kind)
	}

	return p.feedback.RecordFeedback(ctx, session.Owner, row.Raw, row.Suggestion, decision)
}

// Finalize persists the accepted and edited rows and returns their IDs.
// Rows are hash-keyed, so re-finalizing the same import never
// double-persists. Pending and rejected rows are discarded with the
// session.
func (p *Processor) Finalize(ctx context.Context, session *model.ImportSession) ([]string, error) {
	var transactions []model.Transaction
	var ids []string

	for i := range session.Rows {
		row := &session.Rows[i]
		if row.Status != model.StatusAccepted && row.Status != model.StatusEdited {
			continue
		}

		txn := model.Transaction{
			ID:          uuid.NewString(),
			Owner:       session.Owner,
			Date:        row.Raw.Date,
			Description: row.Raw.Description,
			Amount:      row.Raw.Amount,
			Type:        row.Suggestion.Type,
			Hash:        row.Raw.GenerateHash(session.Owner),
		}
		if row.Suggestion.CategoryID != 0 {
			categoryID := row.Suggestion.CategoryID
			txn.CategoryID = &categoryID
		}
		if row.Suggestion.AccountID != 0 {
			accountID := row.Suggestion.AccountID
			txn.AccountID = &accountID
		}

		transactions = append(transactions, txn)
		ids = append(ids, txn.ID)
	}

	if len(transactions) == 0 {
		return nil, nil
	}

	err := common.WithRetry(ctx, func() error {
		return p.storage.SaveTransactions(ctx, transactions)
	}, service.RetryOptions{MaxAttempts: 3})
	if err != nil {
		common.LogError(err, "failed to persist reviewed transactions", common.Fields{
			"session": session.ID,
			"rows":    len(transactions),
		})
		return nil, &common.RetryableError{Err: err, Retryable: true}
	}

	return ids, nil
}

// Cancel discards a session. Nothing was persisted before finalization, so
// there is nothing to undo.
func (p *Processor) Cancel(session *model.ImportSession) {
	session.Rows = nil
	session.Diagnostics = nil
	session.Stats = model.SessionStats{}
}
