package migration

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSQLiteExecutor_ExecuteMigration(t *testing.T) {
	ctx := context.Background()

	t.Run("runs every statement", func(t *testing.T) {
		executor := openTestDB(t)
		migration := Migration{
			Version: "001",
			SQL:     "CREATE TABLE units (id TEXT PRIMARY KEY);\nINSERT INTO units (id) VALUES ('unit-sede');",
		}
		if err := executor.ExecuteMigration(ctx, migration); err != nil {
			t.Fatalf("ExecuteMigration failed: %v", err)
		}

		var count int
		if err := executor.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM units`).Scan(&count); err != nil {
			t.Fatalf("failed to count rows: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected 1 row, got %d", count)
		}
	})

	t.Run("rolls back on a failing statement", func(t *testing.T) {
		executor := openTestDB(t)
		migration := Migration{
			Version: "002",
			SQL:     "CREATE TABLE rooms (id TEXT PRIMARY KEY);\nINSERT INTO missing_table VALUES (1);",
		}
		err := executor.ExecuteMigration(ctx, migration)
		var dbErr *DatabaseError
		if !errors.As(err, &dbErr) || dbErr.Version != "002" {
			t.Fatalf("expected DatabaseError for version 002, got %v", err)
		}

		var name string
		err = executor.db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'rooms'`).Scan(&name)
		if err == nil {
			t.Fatalf("expected rooms table to be rolled back")
		}
	})

	t.Run("rejects empty migrations", func(t *testing.T) {
		executor := openTestDB(t)
		err := executor.ExecuteMigration(ctx, Migration{Version: "003", SQL: "-- nothing here\n"})
		if !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
		}
	})
}

func TestSQLiteExecutor_RecordAndListVersions(t *testing.T) {
	ctx := context.Background()
	executor := openTestDB(t)

	if err := executor.InitializeVersionTable(ctx); err != nil {
		t.Fatalf("InitializeVersionTable failed: %v", err)
	}
	if err := executor.InitializeVersionTable(ctx); err != nil {
		t.Fatalf("expected InitializeVersionTable to be idempotent, got %v", err)
	}

	for _, m := range []Migration{{Version: "010", Checksum: "b"}, {Version: "002", Checksum: "a"}} {
		if err := executor.RecordMigration(ctx, m, 1500*time.Millisecond); err != nil {
			t.Fatalf("RecordMigration failed: %v", err)
		}
	}

	applied, err := executor.AppliedVersions(ctx)
	if err != nil {
		t.Fatalf("AppliedVersions failed: %v", err)
	}
	if len(applied) != 2 || applied[0].Version != "002" || applied[1].Version != "010" {
		t.Fatalf("expected numeric version order, got %#v", applied)
	}
	if applied[0].Checksum != "a" || applied[0].ExecutionTime != 1500*time.Millisecond || applied[0].AppliedAt.IsZero() {
		t.Fatalf("unexpected applied migration %#v", applied[0])
	}
}
