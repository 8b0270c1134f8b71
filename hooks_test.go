package sqlite_test

import (
	"errors"
	"testing"

	sqlite "github.com/gosqlitecore/sqlite"
)

func TestUpdateHook(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.ExecuteBatch("CREATE TABLE t (value INTEGER)"); err != nil {
		t.Fatal(err)
	}

	var gotAction sqlite.Action
	var gotTable string
	var gotRowID int64
	conn.RegisterUpdateHook(func(action sqlite.Action, dbName, tableName string, rowID int64) {
		gotAction = action
		gotTable = tableName
		gotRowID = rowID
	})

	if _, err := conn.Execute("INSERT INTO t VALUES (42)"); err != nil {
		t.Fatal(err)
	}

	if gotAction != sqlite.ActionInsert {
		t.Fatalf("got action %v, want ActionInsert", gotAction)
	}
	if gotTable != "t" {
		t.Fatalf("got table %q, want %q", gotTable, "t")
	}
	if gotRowID != 1 {
		t.Fatalf("got rowid %d, want 1", gotRowID)
	}

	conn.RegisterUpdateHook(nil)
}

func TestCommitAndRollbackHooks(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.ExecuteBatch("CREATE TABLE t (value INTEGER)"); err != nil {
		t.Fatal(err)
	}

	commits := 0
	conn.RegisterCommitHook(func() bool {
		commits++
		return false
	})

	rollbacks := 0
	conn.RegisterRollbackHook(func() {
		rollbacks++
	})

	if err := conn.ExecuteBatch("BEGIN; INSERT INTO t VALUES (1); COMMIT;"); err != nil {
		t.Fatal(err)
	}
	if commits != 1 {
		t.Fatalf("got %d commits, want 1", commits)
	}

	if err := conn.ExecuteBatch("BEGIN; INSERT INTO t VALUES (2); ROLLBACK;"); err != nil {
		t.Fatal(err)
	}
	if rollbacks != 1 {
		t.Fatalf("got %d rollbacks, want 1", rollbacks)
	}

	conn.RegisterCommitHook(nil)
	conn.RegisterRollbackHook(nil)
}

func TestProgressHandler(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.ExecuteBatch(`
		WITH RECURSIVE seed(x) AS (SELECT 1 UNION ALL SELECT x+1 FROM seed WHERE x < 1000)
		SELECT x FROM seed;
	`); err != nil {
		t.Fatal(err)
	}

	called := false
	conn.RegisterProgressHandler(1, func() bool {
		called = true
		return true
	})

	rows, err := conn.Query("WITH RECURSIVE seed(x) AS (SELECT 1 UNION ALL SELECT x+1 FROM seed WHERE x < 100000) SELECT x FROM seed")
	if err != nil {
		t.Fatal(err)
	}
	for rows.Next() {
	}
	if rows.Err() == nil {
		t.Fatal("expected the progress handler to interrupt the query")
	}
	if !called {
		t.Fatal("expected progress handler to be invoked")
	}

	conn.RegisterProgressHandler(0, nil)
}

// maybeInterrupt is a non-deterministic scalar function that interrupts its
// own connection the second time it is called, then keeps returning a value
// so the query would otherwise run to completion.
type maybeInterrupt struct {
	conn  *sqlite.Connection
	calls int
}

func (f *maybeInterrupt) Args() int          { return 0 }
func (f *maybeInterrupt) Deterministic() bool { return false }
func (f *maybeInterrupt) Apply(ctx *sqlite.Context, values ...sqlite.ValueRef) {
	f.calls++
	if f.calls == 2 {
		f.conn.InterruptHandle().Interrupt()
	}
	ctx.ResultInt(f.calls)
}

func TestInterruptCancelsLongOperation(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.CreateFunction("maybe_interrupt", &maybeInterrupt{conn: conn}); err != nil {
		t.Fatal(err)
	}

	rows, err := conn.Query(`
		SELECT maybe_interrupt()
		UNION ALL SELECT maybe_interrupt()
		UNION ALL SELECT maybe_interrupt()
	`)
	if err != nil {
		t.Fatal(err)
	}
	for rows.Next() {
	}
	err = rows.Err()
	if err == nil {
		t.Fatal("expected the interrupted query to fail")
	}
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code.Kind() != sqlite.ErrorKindOperationInterrupted {
		t.Fatalf("got error %v, want a SQLITE_INTERRUPT error", err)
	}

	var result int
	if err := conn.QueryOne("SELECT 1", nil, func(r *sqlite.Row) error {
		return r.Scan(0, &result)
	}); err != nil {
		t.Fatalf("connection unusable after interrupt: %v", err)
	}
	if result != 1 {
		t.Fatalf("got %d, want 1", result)
	}
}
