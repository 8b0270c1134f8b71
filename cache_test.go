package sqlite_test

import (
	"testing"

	sqlite "github.com/gosqlitecore/sqlite"
)

func TestPrepareCached(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.ExecuteBatch("CREATE TABLE t (value INTEGER)"); err != nil {
		t.Fatal(err)
	}

	const query = "INSERT INTO t VALUES (?)"

	for i := 0; i < 3; i++ {
		cached, err := conn.PrepareCached(query)
		if err != nil {
			t.Fatal(err)
		}
		if err := cached.Bind(sqlite.Index(1), int64(i)); err != nil {
			t.Fatal(err)
		}
		if _, err := cached.Step(); err != nil {
			t.Fatal(err)
		}
		if err := cached.Release(); err != nil {
			t.Fatal(err)
		}
	}

	var count int
	err = conn.QueryOne("SELECT COUNT(*) FROM t", nil, func(r *sqlite.Row) error {
		return r.Scan(0, &count)
	})
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Fatalf("got %d rows, want 3", count)
	}
}
