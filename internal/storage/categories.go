package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"expenseit/internal/core"
)

// defaultCategories is the set created on first launch. Uncategorized is the
// sentinel at display order 0 and must stay first so it receives id 1 on a
// fresh database.
var defaultCategories = []string{
	core.UncategorizedName,
	"Entertainment",
	"Transport",
	"Grocery",
	"Food",
	"Shopping",
	"Bills",
	"Education",
	"Health",
	"Other",
}

// EnsureDefaultCategories seeds the default set when the table is empty.
// Safe to call on every startup.
func (r *Repository) EnsureDefaultCategories(ctx context.Context) error {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for i, name := range defaultCategories {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO categories (name, display_order) VALUES (?, ?)", name, i); err != nil {
			return fmt.Errorf("insert default category %q: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Seeded default categories", "count", len(defaultCategories))
	return nil
}

// ListCategories returns all categories sorted by display order.
func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, color, display_order FROM categories ORDER BY display_order ASC")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (*core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, color, display_order FROM categories WHERE id = ?", id).
		Scan(&c.ID, &c.Name, &c.Color, &c.DisplayOrder)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

// GetCategoryByName returns the first category with the given name.
func (r *Repository) GetCategoryByName(ctx context.Context, name string) (*core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, color, display_order FROM categories WHERE name = ? ORDER BY id LIMIT 1", name).
		Scan(&c.ID, &c.Name, &c.Color, &c.DisplayOrder)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("category %q: %w", name, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get category by name: %w", err)
	}
	return &c, nil
}

// CreateCategory appends a category at the end of the current order and
// returns it with its assigned id.
func (r *Repository) CreateCategory(ctx context.Context, name, color string) (*core.Category, error) {
	if color == "" {
		color = "#9E9E9E"
	}
	c := core.Category{Name: name, Color: color}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(display_order) + 1, 0) FROM categories").Scan(&next); err != nil {
		return nil, fmt.Errorf("next display order: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO categories (name, color, display_order) VALUES (?, ?, ?)",
		c.Name, c.Color, next)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("category id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	c.ID = id
	c.DisplayOrder = next
	return &c, nil
}

// UpdateCategory replaces the mutable fields (name, color) of one category.
func (r *Repository) UpdateCategory(ctx context.Context, id int64, name, color string) error {
	c := core.Category{ID: id, Name: name, Color: color}
	if err := c.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		"UPDATE categories SET name = ?, color = ? WHERE id = ?", name, color, id)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// ReorderCategories rewrites every category's display order to its index in
// ids, in a single transaction so readers never observe a partial reorder.
// ids must be a permutation of all existing category ids; a partial or
// duplicated list would leave two categories sharing a display order, so it
// is rejected wholesale. The result is a dense 0..n-1 sequence.
func (r *Repository) ReorderCategories(ctx context.Context, ids []int64) error {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("category %d listed twice: %w", id, core.ErrInvalidOrder)
		}
		seen[id] = struct{}{}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&total); err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if len(ids) != total {
		return fmt.Errorf("order lists %d of %d categories: %w", len(ids), total, core.ErrInvalidOrder)
	}

	for i, id := range ids {
		res, err := tx.ExecContext(ctx,
			"UPDATE categories SET display_order = ? WHERE id = ?", i, id)
		if err != nil {
			return fmt.Errorf("reorder category %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("category %d: %w", id, core.ErrNotFound)
		}
	}
	return tx.Commit()
}

// DeleteCategory removes a category. Expenses referencing it are reassigned
// to the Uncategorized sentinel in the same transaction, so no expense is
// ever left pointing at a missing row. Deleting the sentinel is rejected.
func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var sentinelID int64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM categories WHERE name = ?", core.UncategorizedName).Scan(&sentinelID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("sentinel category missing: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("find sentinel category: %w", err)
	}
	if id == sentinelID {
		return fmt.Errorf("cannot delete the %s category: %w", core.UncategorizedName, core.ErrProtected)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE expenses SET category_id = ? WHERE category_id = ?", sentinelID, id); err != nil {
		return fmt.Errorf("reassign expenses: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("category %d: %w", id, core.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Category deleted, expenses reassigned to sentinel",
		"category_id", id, "sentinel_id", sentinelID)
	return nil
}
