package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Migration is one step of the schema chain. Apply runs inside its own
// transaction; the version bump is written in the same transaction, so a
// failed step leaves the database at the previous version with all rows
// intact.
type Migration struct {
	From  int
	To    int
	Apply func(ctx context.Context, tx *sql.Tx) error
}

// ValidateChain checks that the steps form one unbroken, strictly increasing
// chain from version 0 (empty database) to target. A gap or an out-of-order
// step is a programming error and must surface at startup, never at
// apply time.
func ValidateChain(steps []Migration, target int) error {
	if len(steps) == 0 {
		return fmt.Errorf("empty migration chain")
	}
	if steps[0].From != 0 {
		return fmt.Errorf("migration chain must start at version 0, starts at %d", steps[0].From)
	}
	prev := steps[0].From
	for _, s := range steps {
		if s.From != prev {
			return fmt.Errorf("migration chain broken: expected step from version %d, got %d->%d", prev, s.From, s.To)
		}
		if s.To != s.From+1 {
			return fmt.Errorf("migration %d->%d skips versions", s.From, s.To)
		}
		prev = s.To
	}
	if prev != target {
		return fmt.Errorf("migration chain ends at version %d, want %d", prev, target)
	}
	return nil
}

// RunMigrations brings the database at dbPath to schemaVersion. It uses a
// dedicated connection with foreign keys off, since the copy-drop-rename
// steps rebuild tables that other tables reference.
func RunMigrations(dbPath string) error {
	if err := ValidateChain(migrations, schemaVersion); err != nil {
		return fmt.Errorf("invalid migration chain: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	var current int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", current, schemaVersion)
	}
	if current == schemaVersion {
		return nil
	}

	for _, step := range migrations {
		if step.From < current {
			continue
		}
		if err := applyStep(ctx, db, step); err != nil {
			return fmt.Errorf("migrate %d->%d: %w", step.From, step.To, err)
		}
		slog.Info("Applied schema migration", "from", step.From, "to", step.To)
	}

	return nil
}

func applyStep(ctx context.Context, db *sql.DB, step Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := step.Apply(ctx, tx); err != nil {
		return err
	}
	// PRAGMA does not accept bind parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", step.To)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return tx.Commit()
}
