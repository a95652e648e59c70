package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sift-money/sift/internal/common"
	"github.com/sift-money/sift/internal/model"
)

const ruleColumns = `id, owner, name, keywords, amount_min, amount_max, type_filter,
	category_id, account_id, confidence, priority, use_count, is_active,
	created_at, updated_at, last_used_at`

// CreateRule creates a new suggestion rule.
func (s *SQLiteStorage) CreateRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	keywords, err := json.Marshal(rule.Keywords)
	if err != nil {
		return fmt.Errorf("failed to encode keywords: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO rules (owner, name, keywords, amount_min, amount_max, type_filter,
			category_id, account_id, confidence, priority, use_count, is_active, last_used_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.Owner, rule.Name, string(keywords),
		decimalPtrToFloat(rule.AmountMin), decimalPtrToFloat(rule.AmountMax),
		typeFilterToNullString(rule.TypeFilter),
		rule.CategoryID, rule.AccountID, rule.Confidence, rule.Priority,
		rule.UseCount, rule.IsActive, rule.LastUsedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get rule ID: %w", err)
	}

	rule.ID = id
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = time.Now()

	return nil
}

// ListActiveRules retrieves a user's active rules ordered by priority, then
// recency.
func (s *SQLiteStorage) ListActiveRules(ctx context.Context, owner string) ([]model.Rule, error) {
	return s.listRules(ctx, owner, true)
}

// ListRules retrieves all of a user's rules, including inactive ones, for
// maintenance and inspection.
func (s *SQLiteStorage) ListRules(ctx context.Context, owner string) ([]model.Rule, error) {
	return s.listRules(ctx, owner, false)
}

func (s *SQLiteStorage) listRules(ctx context.Context, owner string, activeOnly bool) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(owner, "owner"); err != nil {
		return nil, err
	}

	q := `SELECT ` + ruleColumns + ` FROM rules WHERE owner = ?`
	if activeOnly {
		q += ` AND is_active = 1`
	}
	q += ` ORDER BY priority DESC, updated_at DESC, id ASC`

	rows, err := s.db.QueryContext(ctx, q, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return rules, nil
}

// UpdateRule updates an existing rule.
func (s *SQLiteStorage) UpdateRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	keywords, err := json.Marshal(rule.Keywords)
	if err != nil {
		return fmt.Errorf("failed to encode keywords: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE rules SET
			name = ?, keywords = ?, amount_min = ?, amount_max = ?, type_filter = ?,
			category_id = ?, account_id = ?, confidence = ?, priority = ?,
			use_count = ?, is_active = ?, last_used_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		rule.Name, string(keywords),
		decimalPtrToFloat(rule.AmountMin), decimalPtrToFloat(rule.AmountMax),
		typeFilterToNullString(rule.TypeFilter),
		rule.CategoryID, rule.AccountID, rule.Confidence, rule.Priority,
		rule.UseCount, rule.IsActive, rule.LastUsedAt,
		rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %d: %w", rule.ID, common.ErrNotFound)
	}

	return nil
}

// DeleteRule deletes a rule by ID.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
	}

	return nil
}

func scanRule(rows *sql.Rows) (model.Rule, error) {
	var rule model.Rule
	var keywords string
	var amountMin, amountMax sql.NullFloat64
	var typeFilter sql.NullString
	var accountID sql.NullInt64

	err := rows.Scan(
		&rule.ID, &rule.Owner, &rule.Name, &keywords, &amountMin, &amountMax,
		&typeFilter, &rule.CategoryID, &accountID, &rule.Confidence,
		&rule.Priority, &rule.UseCount, &rule.IsActive,
		&rule.CreatedAt, &rule.UpdatedAt, &rule.LastUsedAt,
	)
	if err != nil {
		return rule, fmt.Errorf("failed to scan rule: %w", err)
	}

	if err := json.Unmarshal([]byte(keywords), &rule.Keywords); err != nil {
		return rule, fmt.Errorf("failed to decode keywords for rule %d: %w", rule.ID, err)
	}
	if amountMin.Valid {
		d := decimal.NewFromFloat(amountMin.Float64)
		rule.AmountMin = &d
	}
	if amountMax.Valid {
		d := decimal.NewFromFloat(amountMax.Float64)
		rule.AmountMax = &d
	}
	if typeFilter.Valid {
		t := model.TransactionType(typeFilter.String)
		rule.TypeFilter = &t
	}
	if accountID.Valid {
		id := int(accountID.Int64)
		rule.AccountID = &id
	}

	return rule, nil
}

func decimalPtrToFloat(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return f
}

func typeFilterToNullString(t *model.TransactionType) any {
	if t == nil {
		return nil
	}
	return string(*t)
}
