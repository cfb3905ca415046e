package migration

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestScannerScan(t *testing.T) {
	t.Run("orders migrations numerically", func(t *testing.T) {
		files := fstest.MapFS{
			"migrations/010_terms.sql":     {Data: []byte("CREATE TABLE terms (id TEXT);")},
			"migrations/002_rooms.sql":     {Data: []byte("CREATE TABLE rooms (id TEXT);")},
			"migrations/001_directory.sql": {Data: []byte("-- employees\nCREATE TABLE employees (id TEXT);")},
			"migrations/README.md":         {Data: []byte("ignored")},
		}

		migrations, err := NewScanner(files, "migrations").Scan()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(migrations) != 3 {
			t.Fatalf("expected 3 migrations, got %d", len(migrations))
		}
		got := []string{migrations[0].Version, migrations[1].Version, migrations[2].Version}
		want := []string{"001", "002", "010"}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected order %v, got %v", want, got)
			}
		}
		if migrations[0].Description != "directory" {
			t.Fatalf("expected description from filename, got %q", migrations[0].Description)
		}
		if migrations[0].Checksum == "" {
			t.Fatal("expected checksum to be populated")
		}
	})

	t.Run("rejects duplicate versions", func(t *testing.T) {
		files := fstest.MapFS{
			"m/001_a.sql": {Data: []byte("SELECT 1;")},
			"m/001_b.sql": {Data: []byte("SELECT 2;")},
		}
		_, err := NewScanner(files, "m").Scan()
		if !errors.Is(err, ErrDuplicateVersion) {
			t.Fatalf("expected ErrDuplicateVersion, got %v", err)
		}
	})

	t.Run("rejects badly named files", func(t *testing.T) {
		files := fstest.MapFS{"m/initial.sql": {Data: []byte("SELECT 1;")}}
		_, err := NewScanner(files, "m").Scan()
		if !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
		}
	})

	t.Run("rejects comment-only files", func(t *testing.T) {
		files := fstest.MapFS{"m/001_empty.sql": {Data: []byte("-- nothing here\n")}}
		_, err := NewScanner(files, "m").Scan()
		if !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
		}
	})
}

func TestSplitStatements(t *testing.T) {
	sql := `
-- rooms
CREATE TABLE rooms (id TEXT PRIMARY KEY);

CREATE INDEX idx_rooms ON rooms (id);
;
`
	statements := SplitStatements(sql)
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(statements), statements)
	}
	if statements[0] != "CREATE TABLE rooms (id TEXT PRIMARY KEY)" {
		t.Fatalf("unexpected first statement %q", statements[0])
	}
}
