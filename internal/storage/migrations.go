package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					owner TEXT NOT NULL,
					hash TEXT UNIQUE NOT NULL,
					date DATETIME NOT NULL,
					description TEXT NOT NULL,
					amount REAL NOT NULL,
					type TEXT NOT NULL,
					category_id INTEGER,
					account_id INTEGER,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_owner_date ON transactions(owner, date)`,
				`CREATE INDEX idx_transactions_owner_amount ON transactions(owner, amount)`,
				`CREATE INDEX idx_transactions_hash ON transactions(hash)`,

				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT UNIQUE NOT NULL,
					type TEXT NOT NULL,
					is_active BOOLEAN DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS accounts (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT UNIQUE NOT NULL,
					type TEXT NOT NULL DEFAULT '',
					is_active BOOLEAN DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS rules (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					owner TEXT NOT NULL,
					name TEXT NOT NULL,
					keywords TEXT NOT NULL,
					amount_min REAL,
					amount_max REAL,
					type_filter TEXT,
					category_id INTEGER NOT NULL,
					account_id INTEGER,
					confidence REAL NOT NULL DEFAULT 0,
					priority INTEGER NOT NULL DEFAULT 0,
					use_count INTEGER NOT NULL DEFAULT 0,
					is_active BOOLEAN DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					last_used_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (category_id) REFERENCES categories(id)
				)`,
				`CREATE INDEX idx_rules_owner_active ON rules(owner, is_active)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Index rules by category for feedback lookups",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_rules_category ON rules(category_id)`)
			return err
		},
	},
}

// Migrate brings the schema up to the expected version.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var current int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= current {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Description, err)
		}

		if _, err := tx.Exec(
			`INSERT INTO schema_migrations (version, description) VALUES (?, ?)`,
			migration.Version, migration.Description,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		slog.Debug("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	return nil
}
