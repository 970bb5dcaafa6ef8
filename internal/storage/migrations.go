package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaVersion is the version the chain below produces. Stored in
// PRAGMA user_version.
const schemaVersion = 8

// migrations is the full ordered chain from an empty database (version 0) to
// schemaVersion. Steps are additive or corrective and never discard rows;
// CREATE TABLE uses IF NOT EXISTS so re-applying a step against a database
// that already carries the object is safe.
var migrations = []Migration{
	{From: 0, To: 1, Apply: migrateInitial},
	{From: 1, To: 2, Apply: migrateAddDescription},
	{From: 2, To: 3, Apply: migrateAddCategories},
	{From: 3, To: 4, Apply: migrateAddDisplayOrder},
	{From: 4, To: 5, Apply: migrateAddReceipts},
	{From: 5, To: 6, Apply: migrateDropLegacyMonth},
	{From: 6, To: 7, Apply: migrateAddColorAndSettings},
	{From: 7, To: 8, Apply: migrateBackfillSettings},
}

func execAll(ctx context.Context, tx *sql.Tx, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}

// Version 1: the original schema, a single expenses table. The month column
// duplicated information derivable from date and is dropped again in 5->6.
func migrateInitial(ctx context.Context, tx *sql.Tx) error {
	return execAll(ctx, tx, `
		CREATE TABLE IF NOT EXISTS expenses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			amount_cents INTEGER NOT NULL DEFAULT 0,
			date INTEGER NOT NULL,
			month TEXT NOT NULL DEFAULT ''
		)`)
}

func migrateAddDescription(ctx context.Context, tx *sql.Tx) error {
	return execAll(ctx, tx,
		"ALTER TABLE expenses ADD COLUMN description TEXT")
}

// Version 3: categories arrive. Existing expenses get category 1, which the
// seeding step guarantees is the Uncategorized sentinel.
func migrateAddCategories(ctx context.Context, tx *sql.Tx) error {
	return execAll(ctx, tx, `
		CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		)`,
		"ALTER TABLE expenses ADD COLUMN category_id INTEGER NOT NULL DEFAULT 1")
}

func migrateAddDisplayOrder(ctx context.Context, tx *sql.Tx) error {
	return execAll(ctx, tx,
		"ALTER TABLE categories ADD COLUMN display_order INTEGER NOT NULL DEFAULT 0")
}

func migrateAddReceipts(ctx context.Context, tx *sql.Tx) error {
	return execAll(ctx, tx, `
		CREATE TABLE IF NOT EXISTS receipts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			merchant_name TEXT NOT NULL,
			date INTEGER NOT NULL,
			total_cents INTEGER NOT NULL DEFAULT 0,
			image_url TEXT NOT NULL DEFAULT ''
		)`, `
		CREATE TABLE IF NOT EXISTS receipt_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			receipt_id INTEGER NOT NULL REFERENCES receipts(id) ON DELETE CASCADE,
			item_name TEXT NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 1,
			price_cents INTEGER NOT NULL DEFAULT 0
		)`,
		"ALTER TABLE expenses ADD COLUMN receipt_id INTEGER")
}

// Version 6: SQLite cannot drop a column in place, so the expenses table is
// rebuilt without the legacy month column (copy, drop, rename). The rebuild
// also declares the foreign keys and makes description NOT NULL.
func migrateDropLegacyMonth(ctx context.Context, tx *sql.Tx) error {
	return execAll(ctx, tx, `
		CREATE TABLE expenses_new (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			amount_cents INTEGER NOT NULL DEFAULT 0,
			category_id INTEGER NOT NULL DEFAULT 1 REFERENCES categories(id),
			description TEXT NOT NULL DEFAULT '',
			date INTEGER NOT NULL,
			receipt_id INTEGER REFERENCES receipts(id)
		)`, `
		INSERT INTO expenses_new (id, title, amount_cents, category_id, description, date, receipt_id)
		SELECT id, title, amount_cents, category_id, COALESCE(description, ''), date, receipt_id
		FROM expenses`,
		"DROP TABLE expenses",
		"ALTER TABLE expenses_new RENAME TO expenses")
}

func migrateAddColorAndSettings(ctx context.Context, tx *sql.Tx) error {
	return execAll(ctx, tx,
		"ALTER TABLE categories ADD COLUMN color TEXT NOT NULL DEFAULT '#9E9E9E'", `
		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`)
}

// Version 8: early builds kept preferences in an ad hoc prefs table written
// by the UI layer. Scan it if it exists, copy every key into settings and
// drop it. A database that never had the table migrates cleanly through.
func migrateBackfillSettings(ctx context.Context, tx *sql.Tx) error {
	var name string
	err := tx.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'prefs'").Scan(&name)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("probe prefs table: %w", err)
	}

	rows, err := tx.QueryContext(ctx, "SELECT key, value FROM prefs")
	if err != nil {
		return fmt.Errorf("scan prefs: %w", err)
	}
	defer rows.Close()

	type kv struct{ key, value string }
	var entries []kv
	for rows.Next() {
		var e kv
		if err := rows.Scan(&e.key, &e.value); err != nil {
			return fmt.Errorf("scan prefs row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate prefs: %w", err)
	}

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)", e.key, e.value); err != nil {
			return fmt.Errorf("backfill setting %q: %w", e.key, err)
		}
	}

	return execAll(ctx, tx, "DROP TABLE prefs")
}
