package sqlite_test

import (
	"testing"

	sqlite "github.com/gosqlitecore/sqlite"
)

func TestIntegrityCheck(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.ExecuteBatch("CREATE TABLE t (value TEXT)"); err != nil {
		t.Fatal(err)
	}
	if err := conn.IntegrityCheck("main", 100, false); err != nil {
		t.Fatal(err)
	}
}

func TestJournalMode(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	mode, err := conn.SetJournalMode("main", "memory")
	if err != nil {
		t.Fatal(err)
	}
	if mode != "memory" {
		t.Fatalf("got journal_mode %q, want %q", mode, "memory")
	}

	got, err := conn.JournalMode("main")
	if err != nil {
		t.Fatal(err)
	}
	if got != "memory" {
		t.Fatalf("got journal_mode %q, want %q", got, "memory")
	}
}

func TestForeignKeyCheck(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.ExecuteBatch(`
		CREATE TABLE parent (id INTEGER PRIMARY KEY);
		CREATE TABLE child (id INTEGER PRIMARY KEY, parent_id INTEGER REFERENCES parent(id));
		INSERT INTO parent VALUES (1);
		INSERT INTO child VALUES (1, 1);
	`); err != nil {
		t.Fatal(err)
	}

	violations, err := conn.ForeignKeyCheck("", "child")
	if err != nil {
		t.Fatal(err)
	}
	if len(violations) != 0 {
		t.Fatalf("expected no violations, got %d", len(violations))
	}
}

func TestSynchronous(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.SetSynchronous("main", 0); err != nil {
		t.Fatal(err)
	}
	level, err := conn.Synchronous("main")
	if err != nil {
		t.Fatal(err)
	}
	if level != 0 {
		t.Fatalf("got synchronous %d, want 0", level)
	}
}
