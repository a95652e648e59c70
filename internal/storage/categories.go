package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sift-money/sift/internal/common"
	"github.com/sift-money/sift/internal/model"
)

// GetCategories retrieves all active categories ordered by name.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, type, is_active, created_at
		FROM categories
		WHERE is_active = 1
		ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var category model.Category
		var categoryType string
		if err := rows.Scan(&category.ID, &category.Name, &categoryType, &category.IsActive, &category.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		category.Type = model.CategoryType(categoryType)
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// GetCategoryByName retrieves a category by exact name.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	var category model.Category
	var categoryType string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, type, is_active, created_at
		FROM categories WHERE name = ?`, name).
		Scan(&category.ID, &category.Name, &categoryType, &category.IsActive, &category.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %q: %w", name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	category.Type = model.CategoryType(categoryType)
	return &category, nil
}

// CreateCategory creates a new category.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, name string, categoryType model.CategoryType) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}
	switch categoryType {
	case model.CategoryTypeIncome, model.CategoryTypeExpense, model.CategoryTypeSystem:
	default:
		return nil, fmt.Errorf("invalid category type %q", categoryType)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (name, type) VALUES (?, ?)`,
		name, string(categoryType)); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return s.GetCategoryByName(ctx, name)
}
