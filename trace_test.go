package sqlite_test

import (
	"testing"

	sqlite "github.com/gosqlitecore/sqlite"
)

func TestTraceHook(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.ExecuteBatch("CREATE TABLE t (value INTEGER)"); err != nil {
		t.Fatal(err)
	}

	var sawStmt, sawProfile bool
	conn.RegisterTraceHook(sqlite.TraceAll, func(evt sqlite.TraceEvent) {
		switch evt.Kind {
		case sqlite.TraceEventKindStmt:
			sawStmt = true
		case sqlite.TraceEventKindProfile:
			sawProfile = true
		}
	})

	if _, err := conn.Execute("INSERT INTO t VALUES (1)"); err != nil {
		t.Fatal(err)
	}

	if !sawStmt {
		t.Fatal("expected a TraceEventKindStmt event")
	}
	if !sawProfile {
		t.Fatal("expected a TraceEventKindProfile event")
	}

	conn.RegisterTraceHook(0, nil)
}

// TestTraceHookClose exercises SQLITE_TRACE_CLOSE, where P is a sqlite3*
// rather than a sqlite3_stmt* - the hook must stay registered through
// Close so this path actually runs (unlike TestTraceHook, which clears the
// hook first).
func TestTraceHookClose(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}

	var sawClose bool
	conn.RegisterTraceHook(sqlite.TraceAll, func(evt sqlite.TraceEvent) {
		if evt.Kind == sqlite.TraceEventKindClose {
			sawClose = true
		}
	})

	if err := conn.Close(); err != nil {
		t.Fatal(err)
	}
	if !sawClose {
		t.Fatal("expected a TraceEventKindClose event")
	}
}
