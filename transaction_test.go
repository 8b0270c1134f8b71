package sqlite_test

import (
	"testing"

	sqlite "github.com/gosqlitecore/sqlite"
)

func TestTransactionCommit(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.ExecuteBatch("CREATE TABLE t (value INTEGER)"); err != nil {
		t.Fatal(err)
	}

	tx, err := conn.Transaction(sqlite.TxImmediate)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := conn.Execute("INSERT INTO t VALUES (1)"); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	var count int
	err = conn.QueryOne("SELECT COUNT(*) FROM t", nil, func(r *sqlite.Row) error {
		return r.Scan(0, &count)
	})
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("got %d rows after commit, want 1", count)
	}
}

func TestTransactionFinishDefaultsToRollback(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.ExecuteBatch("CREATE TABLE t (value INTEGER)"); err != nil {
		t.Fatal(err)
	}

	func() {
		tx, err := conn.Transaction(sqlite.TxImmediate)
		if err != nil {
			t.Fatal(err)
		}
		defer tx.Finish()

		if _, err := conn.Execute("INSERT INTO t VALUES (1)"); err != nil {
			t.Fatal(err)
		}
	}()

	var count int
	err = conn.QueryOne("SELECT COUNT(*) FROM t", nil, func(r *sqlite.Row) error {
		return r.Scan(0, &count)
	})
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("got %d rows after unfinished transaction, want 0 (rolled back)", count)
	}
}

func TestSavepointRollbackTo(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.ExecuteBatch("CREATE TABLE t (value INTEGER)"); err != nil {
		t.Fatal(err)
	}

	tx, err := conn.Transaction(sqlite.TxImmediate)
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Finish()

	if _, err := conn.Execute("INSERT INTO t VALUES (1)"); err != nil {
		t.Fatal(err)
	}

	sp, err := conn.Savepoint("sp1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := conn.Execute("INSERT INTO t VALUES (2)"); err != nil {
		t.Fatal(err)
	}
	if err := sp.RollbackTo(); err != nil {
		t.Fatal(err)
	}
	if err := sp.Release(); err != nil {
		t.Fatal(err)
	}

	var count int
	err = conn.QueryOne("SELECT COUNT(*) FROM t", nil, func(r *sqlite.Row) error {
		return r.Scan(0, &count)
	})
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("got %d rows after savepoint rollback, want 1", count)
	}

	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
}
