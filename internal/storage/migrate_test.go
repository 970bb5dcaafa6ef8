package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateChain(t *testing.T) {
	ok := func(ctx context.Context, tx *sql.Tx) error { return nil }

	tests := []struct {
		name    string
		steps   []Migration
		target  int
		wantErr string
	}{
		{
			name:   "valid chain",
			steps:  []Migration{{From: 0, To: 1, Apply: ok}, {From: 1, To: 2, Apply: ok}},
			target: 2,
		},
		{
			name:    "empty chain",
			steps:   nil,
			target:  0,
			wantErr: "empty",
		},
		{
			name:    "does not start at zero",
			steps:   []Migration{{From: 1, To: 2, Apply: ok}},
			target:  2,
			wantErr: "start at version 0",
		},
		{
			name:    "gap in chain",
			steps:   []Migration{{From: 0, To: 1, Apply: ok}, {From: 2, To: 3, Apply: ok}},
			target:  3,
			wantErr: "broken",
		},
		{
			name:    "step skips a version",
			steps:   []Migration{{From: 0, To: 2, Apply: ok}},
			target:  2,
			wantErr: "skips",
		},
		{
			name:    "ends before target",
			steps:   []Migration{{From: 0, To: 1, Apply: ok}},
			target:  2,
			wantErr: "ends at version 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChain(tt.steps, tt.target)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateChain: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestShippedMigrationsFormValidChain(t *testing.T) {
	if err := ValidateChain(migrations, schemaVersion); err != nil {
		t.Fatalf("shipped chain invalid: %v", err)
	}
}

func TestFreshDatabaseMigratesToCurrentVersion(t *testing.T) {
	repo := newTestRepo(t)

	var version int
	if err := repo.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("read user_version: %v", err)
	}
	if version != schemaVersion {
		t.Errorf("user_version = %d, want %d", version, schemaVersion)
	}
}

// applyUpTo replays the shipped chain on a raw database until (excluding)
// version stop, simulating a database written by an older build.
func applyUpTo(t *testing.T, dbPath string, stop int) {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	for _, step := range migrations {
		if step.To > stop {
			break
		}
		if err := applyStep(ctx, db, step); err != nil {
			t.Fatalf("apply %d->%d: %v", step.From, step.To, err)
		}
	}
}

func TestLegacyDatabaseUpgradePreservesRows(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "legacy.db")
	applyUpTo(t, dbPath, 1)

	// A version 1 row still carries the legacy month column and has no
	// description or category.
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec(
		"INSERT INTO expenses (title, amount_cents, date, month) VALUES (?, ?, ?, ?)",
		"Groceries", 1250, testDate(t, "2024-03-15"), "2024-03"); err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}
	db.Close()

	repo, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open after upgrade: %v", err)
	}
	defer repo.Close()
	if err := repo.EnsureDefaultCategories(context.Background()); err != nil {
		t.Fatalf("EnsureDefaultCategories: %v", err)
	}

	expenses, err := repo.ListExpenses(context.Background())
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("got %d expenses after upgrade, want 1", len(expenses))
	}
	e := expenses[0]
	if e.Title != "Groceries" || e.Amount.Cents != 1250 {
		t.Errorf("row changed during upgrade: %+v", e)
	}
	if e.CategoryID != 1 {
		t.Errorf("legacy expense category = %d, want sentinel 1", e.CategoryID)
	}
	if e.Description != "" {
		t.Errorf("legacy expense description = %q, want empty", e.Description)
	}

	// The rebuild must have dropped the legacy month column.
	var count int
	err = repo.db.QueryRow(
		"SELECT COUNT(*) FROM pragma_table_info('expenses') WHERE name = 'month'").Scan(&count)
	if err != nil {
		t.Fatalf("probe month column: %v", err)
	}
	if count != 0 {
		t.Error("legacy month column survived the rebuild")
	}
}

func TestUpgradeBackfillsLegacyPrefs(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "prefs.db")
	applyUpTo(t, dbPath, 7)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE prefs (key TEXT PRIMARY KEY, value TEXT NOT NULL)"); err != nil {
		t.Fatalf("create prefs: %v", err)
	}
	if _, err := db.Exec("INSERT INTO prefs (key, value) VALUES ('currency', '€')"); err != nil {
		t.Fatalf("insert pref: %v", err)
	}
	db.Close()

	repo, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open after upgrade: %v", err)
	}
	defer repo.Close()

	currency, err := repo.Currency(context.Background())
	if err != nil {
		t.Fatalf("Currency: %v", err)
	}
	if currency != "€" {
		t.Errorf("currency = %q, want backfilled €", currency)
	}

	var count int
	err = repo.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'prefs'").Scan(&count)
	if err != nil {
		t.Fatalf("probe prefs table: %v", err)
	}
	if count != 0 {
		t.Error("prefs table survived the backfill")
	}
}

func TestNewerSchemaVersionRejected(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "future.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("set future version: %v", err)
	}
	db.Close()

	if _, err := Open(dbPath); err == nil {
		t.Fatal("Open accepted a database from a newer build")
	}
}
