package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"expenseit/internal/core"
)

func scanExpense(row interface{ Scan(...any) error }) (core.Expense, error) {
	var e core.Expense
	var receiptID sql.NullInt64
	err := row.Scan(&e.ID, &e.Title, &e.Amount.Cents, &e.CategoryID,
		&e.Description, &e.Date, &receiptID)
	if err != nil {
		return e, err
	}
	if receiptID.Valid {
		e.ReceiptID = receiptID.Int64
	}
	return e, nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// CreateExpense inserts an expense and returns its assigned id.
func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (title, amount_cents, category_id, description, date, receipt_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.Title, e.Amount.Cents, e.CategoryID, e.Description, e.Date, nullableID(e.ReceiptID))
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"title", e.Title,
		"amount_cents", e.Amount.Cents,
		"category_id", e.CategoryID)
	return id, nil
}

// UpdateExpense replaces the full record identified by e.ID.
func (r *Repository) UpdateExpense(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET title = ?, amount_cents = ?, category_id = ?, description = ?, date = ?, receipt_id = ?
		WHERE id = ?`,
		e.Title, e.Amount.Cents, e.CategoryID, e.Description, e.Date, nullableID(e.ReceiptID), e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %d: %w", e.ID, core.ErrNotFound)
	}
	return nil
}

func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	return nil
}

func (r *Repository) GetExpense(ctx context.Context, id int64) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, amount_cents, category_id, description, date, receipt_id
		FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return &e, nil
}

// ListExpenses returns all expenses, newest first.
func (r *Repository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, amount_cents, category_id, description, date, receipt_id
		FROM expenses ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MonthlySummaries sums expense amounts per calendar month. The sum runs on
// integer cents in SQL, so totals are exact.
func (r *Repository) MonthlySummaries(ctx context.Context) ([]core.MonthlySummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m', date / 1000, 'unixepoch') AS month,
		       SUM(amount_cents) AS total
		FROM expenses
		GROUP BY month
		ORDER BY month DESC`)
	if err != nil {
		return nil, fmt.Errorf("monthly summaries: %w", err)
	}
	defer rows.Close()

	var out []core.MonthlySummary
	for rows.Next() {
		var s core.MonthlySummary
		if err := rows.Scan(&s.Month, &s.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CategoryTotals sums expense amounts per category, ordered by the category
// display order.
func (r *Repository) CategoryTotals(ctx context.Context) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, COALESCE(SUM(e.amount_cents), 0) AS total
		FROM categories c
		LEFT JOIN expenses e ON e.category_id = c.id
		GROUP BY c.id, c.name
		ORDER BY c.display_order ASC`)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryTotal
	for rows.Next() {
		var t core.CategoryTotal
		if err := rows.Scan(&t.CategoryID, &t.Name, &t.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
