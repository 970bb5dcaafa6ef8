package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"expenseit/internal/core"
)

// CreateReceiptWithItems inserts a receipt and its line items in one
// transaction. Every item's ReceiptID is rewritten to the id the receipt was
// assigned; a failure anywhere rolls back the whole write, so a receipt is
// never visible without its items.
func (r *Repository) CreateReceiptWithItems(ctx context.Context, receipt core.Receipt, items []core.ReceiptItem) (int64, error) {
	if err := receipt.Validate(); err != nil {
		return 0, err
	}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return 0, fmt.Errorf("item %q: %w", item.ItemName, err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO receipts (merchant_name, date, total_cents, image_url)
		VALUES (?, ?, ?, ?)`,
		receipt.MerchantName, receipt.Date, receipt.TotalPrice.Cents, receipt.ImageURL)
	if err != nil {
		return 0, fmt.Errorf("insert receipt: %w", err)
	}
	receiptID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("receipt id: %w", err)
	}

	for _, item := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO receipt_items (receipt_id, item_name, quantity, price_cents)
			VALUES (?, ?, ?, ?)`,
			receiptID, item.ItemName, item.Quantity, item.Price.Cents); err != nil {
			return 0, fmt.Errorf("insert receipt item %q: %w", item.ItemName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Receipt saved",
		"id", receiptID,
		"merchant", receipt.MerchantName,
		"total_cents", receipt.TotalPrice.Cents,
		"items", len(items))
	return receiptID, nil
}

// ListReceipts returns all receipt headers, newest first.
func (r *Repository) ListReceipts(ctx context.Context) ([]core.Receipt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, merchant_name, date, total_cents, image_url
		FROM receipts ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	var out []core.Receipt
	for rows.Next() {
		var rec core.Receipt
		if err := rows.Scan(&rec.ID, &rec.MerchantName, &rec.Date, &rec.TotalPrice.Cents, &rec.ImageURL); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repository) GetReceipt(ctx context.Context, id int64) (*core.Receipt, error) {
	var rec core.Receipt
	err := r.db.QueryRowContext(ctx, `
		SELECT id, merchant_name, date, total_cents, image_url
		FROM receipts WHERE id = ?`, id).
		Scan(&rec.ID, &rec.MerchantName, &rec.Date, &rec.TotalPrice.Cents, &rec.ImageURL)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("receipt %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	return &rec, nil
}

// GetReceiptWithItems joins a receipt with its line items ordered by id.
func (r *Repository) GetReceiptWithItems(ctx context.Context, id int64) (*core.ReceiptWithItems, error) {
	rec, err := r.GetReceipt(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := r.itemsForReceipt(ctx, id)
	if err != nil {
		return nil, err
	}
	return &core.ReceiptWithItems{Receipt: *rec, Items: items}, nil
}

func (r *Repository) itemsForReceipt(ctx context.Context, receiptID int64) ([]core.ReceiptItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, receipt_id, item_name, quantity, price_cents
		FROM receipt_items WHERE receipt_id = ? ORDER BY id ASC`, receiptID)
	if err != nil {
		return nil, fmt.Errorf("list receipt items: %w", err)
	}
	defer rows.Close()

	var items []core.ReceiptItem
	for rows.Next() {
		var it core.ReceiptItem
		if err := rows.Scan(&it.ID, &it.ReceiptID, &it.ItemName, &it.Quantity, &it.Price.Cents); err != nil {
			return nil, fmt.Errorf("scan receipt item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateReceipt replaces the header fields of a receipt.
func (r *Repository) UpdateReceipt(ctx context.Context, rec core.Receipt) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE receipts SET merchant_name = ?, date = ?, total_cents = ?, image_url = ?
		WHERE id = ?`,
		rec.MerchantName, rec.Date, rec.TotalPrice.Cents, rec.ImageURL, rec.ID)
	if err != nil {
		return fmt.Errorf("update receipt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("receipt %d: %w", rec.ID, core.ErrNotFound)
	}
	return nil
}

// UpdateReceiptItem replaces one line item.
func (r *Repository) UpdateReceiptItem(ctx context.Context, item core.ReceiptItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE receipt_items SET item_name = ?, quantity = ?, price_cents = ?
		WHERE id = ? AND receipt_id = ?`,
		item.ItemName, item.Quantity, item.Price.Cents, item.ID, item.ReceiptID)
	if err != nil {
		return fmt.Errorf("update receipt item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("receipt item %d: %w", item.ID, core.ErrNotFound)
	}
	return nil
}

// DeleteReceipt removes a receipt; its items go with it through the cascade
// foreign key.
func (r *Repository) DeleteReceipt(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM receipts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("receipt %d: %w", id, core.ErrNotFound)
	}
	return nil
}

// CountReceipts reports the number of receipt rows.
func (r *Repository) CountReceipts(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM receipts").Scan(&n); err != nil {
		return 0, fmt.Errorf("count receipts: %w", err)
	}
	return n, nil
}
