package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sift-money/sift/internal/model"
	"github.com/sift-money/sift/internal/service"
)

// SaveTransactions persists accepted rows. Inserts are keyed by hash, so
// saving the same rows twice is a no-op rather than a duplicate.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(transactions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (id, owner, hash, date, description, amount, type, category_id, account_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, txn := range transactions {
		if err := validateTransaction(&txn); err != nil {
			return err
		}
		amount, _ := txn.Amount.Float64()
		if _, err := stmt.ExecContext(ctx,
			txn.ID, txn.Owner, txn.Hash, txn.Date, txn.Description,
			amount, string(txn.Type), txn.CategoryID, txn.AccountID,
		); err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", txn.ID, err)
		}
	}

	return tx.Commit()
}

// FindTransactions queries history with the given filters, newest first.
func (s *SQLiteStorage) FindTransactions(ctx context.Context, query service.TransactionQuery) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(query.Owner, "owner"); err != nil {
		return nil, err
	}

	var conditions []string
	var args []any

	conditions = append(conditions, "owner = ?")
	args = append(args, query.Owner)

	if query.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, string(query.Type))
	}
	if query.AmountMin != nil {
		min, _ := query.AmountMin.Float64()
		conditions = append(conditions, "amount >= ?")
		args = append(args, min)
	}
	if query.AmountMax != nil {
		max, _ := query.AmountMax.Float64()
		conditions = append(conditions, "amount <= ?")
		args = append(args, max)
	}
	if query.DateFrom != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, *query.DateFrom)
	}
	if query.DateTo != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, *query.DateTo)
	}
	if query.DescriptionHint != "" {
		conditions = append(conditions, "description LIKE ?")
		args = append(args, "%"+query.DescriptionHint+"%")
	}

	q := `
		SELECT id, owner, hash, date, description, amount, type, category_id, account_id, created_at
		FROM transactions
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY date DESC`
	if query.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", query.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

func scanTransaction(rows *sql.Rows) (model.Transaction, error) {
	var txn model.Transaction
	var amount float64
	var txnType string
	var categoryID, accountID sql.NullInt64

	err := rows.Scan(
		&txn.ID, &txn.Owner, &txn.Hash, &txn.Date, &txn.Description,
		&amount, &txnType, &categoryID, &accountID, &txn.CreatedAt,
	)
	if err != nil {
		return txn, fmt.Errorf("failed to scan transaction: %w", err)
	}

	txn.Amount = decimal.NewFromFloat(amount)
	txn.Type = model.TransactionType(txnType)
	if categoryID.Valid {
		id := int(categoryID.Int64)
		txn.CategoryID = &id
	}
	if accountID.Valid {
		id := int(accountID.Int64)
		txn.AccountID = &id
	}

	return txn, nil
}
