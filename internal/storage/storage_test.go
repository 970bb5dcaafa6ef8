package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"expenseit/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	if err := repo.EnsureDefaultCategories(context.Background()); err != nil {
		t.Fatalf("EnsureDefaultCategories: %v", err)
	}
	return repo
}

func testDate(t *testing.T, value string) int64 {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("parse date %q: %v", value, err)
	}
	return core.NowMillis(d)
}

func mustCreateExpense(t *testing.T, repo *Repository, e core.Expense) int64 {
	t.Helper()
	id, err := repo.CreateExpense(context.Background(), e)
	if err != nil {
		t.Fatalf("CreateExpense(%q): %v", e.Title, err)
	}
	return id
}
