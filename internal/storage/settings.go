package storage

import (
	"context"
	"database/sql"
	"fmt"
)

const currencyKey = "currency"

// DefaultCurrency is returned when no currency preference has been saved.
const DefaultCurrency = "$"

// Currency reads the persisted currency preference.
func (r *Repository) Currency(ctx context.Context) (string, error) {
	var v string
	err := r.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ?", currencyKey).Scan(&v)
	if err == sql.ErrNoRows {
		return DefaultCurrency, nil
	}
	if err != nil {
		return "", fmt.Errorf("read currency setting: %w", err)
	}
	return v, nil
}

// SetCurrency stores the currency preference.
func (r *Repository) SetCurrency(ctx context.Context, currency string) error {
	if currency == "" {
		return fmt.Errorf("empty currency")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		currencyKey, currency)
	if err != nil {
		return fmt.Errorf("save currency setting: %w", err)
	}
	return nil
}
