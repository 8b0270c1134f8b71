package sqlite_test

import (
	"errors"
	"testing"

	sqlite "github.com/gosqlitecore/sqlite"
)

func TestPrepareSyntaxError(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	_, err = conn.Execute("SELECT INVALID_FUNCTION")
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	var sqlErr *sqlite.SqlInputError
	if !errors.As(err, &sqlErr) {
		t.Fatalf("got %T (%v), want *SqlInputError", err, err)
	}
	if sqlErr.Offset < 0 {
		t.Fatalf("got offset %d, want a non-negative offset", sqlErr.Offset)
	}
}

func TestPrepareTrailingGarbageIsSyntaxError(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	_, err = conn.Execute("SELECT 1; GARBAGE")
	if err == nil {
		t.Fatal("expected trailing garbage to fail")
	}
	var sqlErr *sqlite.SqlInputError
	if !errors.As(err, &sqlErr) {
		t.Fatalf("got %T (%v), want *SqlInputError for trailing garbage", err, err)
	}
}

func TestPrepareTrailingWhitespaceIsFine(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if _, err := conn.Execute("SELECT 1; -- trailing comment\n"); err != nil {
		t.Fatal(err)
	}
}

func TestPrepareTrailingStatementIsMultipleStatement(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	_, err = conn.Execute("SELECT 1; SELECT 2;")
	if !errors.Is(err, sqlite.MultipleStatement) {
		t.Fatalf("got %v, want MultipleStatement", err)
	}
}

func TestScanIntegralOutOfRange(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	var got int8
	err = conn.QueryOne("SELECT 1000", nil, func(r *sqlite.Row) error {
		return r.Scan(0, &got)
	})
	if err == nil {
		t.Fatal("expected an out-of-range error")
	}
	var rangeErr *sqlite.IntegralValueOutOfRange
	if !errors.As(err, &rangeErr) {
		t.Fatalf("got %T (%v), want *IntegralValueOutOfRange", err, err)
	}
	if rangeErr.Value != 1000 {
		t.Fatalf("got value %d, want 1000", rangeErr.Value)
	}
}

func TestScanInvalidColumnType(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	var got []int
	err = conn.QueryOne("SELECT 'not a slice of ints'", nil, func(r *sqlite.Row) error {
		return r.Scan(0, &got)
	})
	if err == nil {
		t.Fatal("expected an invalid column type error")
	}
	var typeErr *sqlite.InvalidColumnType
	if !errors.As(err, &typeErr) {
		t.Fatalf("got %T (%v), want *InvalidColumnType", err, err)
	}
}

func TestExecuteInsert(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.ExecuteBatch("CREATE TABLE t (value TEXT)"); err != nil {
		t.Fatal(err)
	}

	id, err := conn.ExecuteInsert("INSERT INTO t VALUES (?)", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if id != 1 {
		t.Fatalf("got rowid %d, want 1", id)
	}
}

func TestExecuteInsertChangedRows(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.ExecuteBatch("CREATE TABLE t (value TEXT)"); err != nil {
		t.Fatal(err)
	}

	_, err = conn.ExecuteInsert("UPDATE t SET value = 'x'")
	var changedErr sqlite.StatementChangedRows
	if !errors.As(err, &changedErr) {
		t.Fatalf("got %T (%v), want StatementChangedRows", err, err)
	}
	if changedErr != 0 {
		t.Fatalf("got %d changed rows, want 0", int(changedErr))
	}
}
