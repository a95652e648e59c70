package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sift-money/sift/internal/common"
	"github.com/sift-money/sift/internal/model"
)

// GetAccounts retrieves all active accounts ordered by name.
func (s *SQLiteStorage) GetAccounts(ctx context.Context) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, type, is_active, created_at
		FROM accounts
		WHERE is_active = 1
		ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		var account model.Account
		if err := rows.Scan(&account.ID, &account.Name, &account.Type, &account.IsActive, &account.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, nil
}

// GetAccountByName retrieves an account by exact name.
func (s *SQLiteStorage) GetAccountByName(ctx context.Context, name string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	var account model.Account
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, type, is_active, created_at
		FROM accounts WHERE name = ?`, name).
		Scan(&account.ID, &account.Name, &account.Type, &account.IsActive, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}

// CreateAccount creates a new account.
func (s *SQLiteStorage) CreateAccount(ctx context.Context, name, accountType string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (name, type) VALUES (?, ?)`,
		name, accountType); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return s.GetAccountByName(ctx, name)
}
