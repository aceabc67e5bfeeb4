// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const categoryColumns = `id, name, slug, description, type, color, created_at, updated_at`

func scanCategory(row *sql.Row) (Category, error) {
	var c Category
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Slug,
		&c.Description,
		&c.Type,
		&c.Color,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

const getCategoryByID = `
SELECT ` + categoryColumns + `
FROM categories
WHERE id = ?1
`

// GetCategoryByID returns the category with the given id.
func (q *Queries) GetCategoryByID(ctx context.Context, id int64) (Category, error) {
	return scanCategory(q.db.QueryRowContext(ctx, getCategoryByID, id))
}

const listCategories = `
SELECT ` + categoryColumns + `
FROM categories
ORDER BY name
`

// ListCategories returns all categories ordered by name.
func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.Slug,
			&c.Description,
			&c.Type,
			&c.Color,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

const countCategories = `SELECT COUNT(*) FROM categories`

// CountCategories counts all categories.
func (q *Queries) CountCategories(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countCategories).Scan(&count)
	return count, err
}

const createCategory = `
INSERT INTO categories (name, slug, description, type, color, created_at, updated_at)
VALUES (?1, ?2, ?3, ?4, ?5, ?6, ?6)
RETURNING ` + categoryColumns + `
`

// CreateCategoryParams holds the column values for a new category.
type CreateCategoryParams struct {
	Name        string
	Slug        string
	Description string
	Type        string
	Color       string
	CreatedAt   time.Time
}

// CreateCategory inserts a category and returns the stored row.
func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	return scanCategory(q.db.QueryRowContext(ctx, createCategory,
		arg.Name, arg.Slug, arg.Description, arg.Type, arg.Color, arg.CreatedAt))
}

const updateCategory = `
UPDATE categories
SET name = ?1, slug = ?2, description = ?3, type = ?4, color = ?5, updated_at = ?6
WHERE id = ?7
RETURNING ` + categoryColumns + `
`

// UpdateCategoryParams holds the editable category fields.
type UpdateCategoryParams struct {
	Name        string
	Slug        string
	Description string
	Type        string
	Color       string
	UpdatedAt   time.Time
	ID          int64
}

// UpdateCategory updates a category and returns the stored row.
func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	return scanCategory(q.db.QueryRowContext(ctx, updateCategory,
		arg.Name, arg.Slug, arg.Description, arg.Type, arg.Color, arg.UpdatedAt, arg.ID))
}

const deleteCategory = `DELETE FROM categories WHERE id = ?1`

// DeleteCategory removes a category. Posts referencing it keep a NULL
// category via the foreign key's ON DELETE SET NULL.
func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteCategory, id)
	return err
}

const categorySlugExists = `SELECT EXISTS(SELECT 1 FROM categories WHERE slug = ?1)`

// CategorySlugExists reports whether any category uses the given slug.
func (q *Queries) CategorySlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, categorySlugExists, slug).Scan(&exists)
	return exists, err
}

const categorySlugExistsExcluding = `SELECT EXISTS(SELECT 1 FROM categories WHERE slug = ?1 AND id != ?2)`

// CategorySlugExistsExcludingParams checks slug uniqueness around an edit.
type CategorySlugExistsExcludingParams struct {
	Slug string
	ID   int64
}

// CategorySlugExistsExcluding reports whether another category uses the
// given slug.
func (q *Queries) CategorySlugExistsExcluding(ctx context.Context, arg CategorySlugExistsExcludingParams) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, categorySlugExistsExcluding, arg.Slug, arg.ID).Scan(&exists)
	return exists, err
}
