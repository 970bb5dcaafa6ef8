// Package storage is the persistence layer: a SQLite-backed repository that
// exclusively owns the canonical record of categories, expenses, receipts and
// receipt items, plus the versioned schema migration chain.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at dbPath, brings the
// schema to the current version and returns the repository. The migration
// chain is validated before anything runs; a broken chain fails loudly here
// rather than falling back to a destructive reset.
func Open(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	// foreign_keys is per-connection in SQLite, so it goes in the DSN where
	// every pooled connection picks it up.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
