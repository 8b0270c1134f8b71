package sqlite_test

import (
	"testing"

	sqlite "github.com/gosqlitecore/sqlite"
)

func TestOpenMemory(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if _, err := conn.Execute("CREATE TABLE x (value TEXT)"); err != nil {
		t.Fatal(err)
	}
}

func TestAutoCommit(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if !conn.AutoCommit() {
		t.Fatal("autocommit must report true outside of a transaction")
	}

	if err := conn.ExecuteBatch("BEGIN"); err != nil {
		t.Fatal(err)
	}
	if conn.AutoCommit() {
		t.Fatal("autocommit must report false within a transaction")
	}
	if err := conn.ExecuteBatch("ROLLBACK"); err != nil {
		t.Fatal(err)
	}
}

func TestLimit(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	value := conn.Limit(sqlite.LIMIT_ATTACHED)
	if value != 10 {
		t.Fatalf("expected default LIMIT_ATTACHED of 10, got %d", value)
	}

	conn.SetLimit(sqlite.LIMIT_ATTACHED, 5)
	if value = conn.Limit(sqlite.LIMIT_ATTACHED); value != 5 {
		t.Fatalf("expected updated LIMIT_ATTACHED of 5, got %d", value)
	}
}

func TestQueryRowAndExecute(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.ExecuteBatch("CREATE TABLE x (value TEXT)"); err != nil {
		t.Fatal(err)
	}
	if _, err := conn.Execute("INSERT INTO x VALUES (?)", "hello"); err != nil {
		t.Fatal(err)
	}

	var got string
	err = conn.QueryOne("SELECT value FROM x", nil, func(r *sqlite.Row) error {
		return r.Scan(0, &got)
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}

func TestQueryRowNoRows(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.ExecuteBatch("CREATE TABLE x (value TEXT)"); err != nil {
		t.Fatal(err)
	}

	err = conn.QueryRow("SELECT value FROM x", nil, func(r *sqlite.Row) error { return nil })
	if err != sqlite.QueryReturnedNoRows {
		t.Fatalf("expected QueryReturnedNoRows, got %v", err)
	}
}
