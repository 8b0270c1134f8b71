package sqlite_test

import (
	"testing"

	sqlite "github.com/gosqlitecore/sqlite"
)

func TestArrayVTab(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	arr, err := conn.CreateArray("ex1")
	if err != nil {
		t.Fatal(err)
	}
	arr.Bind([]int64{1, 2, 3, 4})

	if err := conn.ExecuteBatch("CREATE TABLE t (x INTEGER)"); err != nil {
		t.Fatal(err)
	}
	for _, v := range []int64{1, 2, 3, 4, 5, 6} {
		if _, err := conn.Execute("INSERT INTO t VALUES (?)", v); err != nil {
			t.Fatal(err)
		}
	}

	var count int
	err = conn.QueryOne(`SELECT COUNT(*) FROM t WHERE x IN ex1`, nil, func(r *sqlite.Row) error {
		return r.Scan(0, &count)
	})
	if err != nil {
		t.Fatal(err)
	}
	if count != 4 {
		t.Fatalf("expected 4 matches, got %d", count)
	}

	arr.Bind([]int64{5, 6})
	err = conn.QueryOne(`SELECT COUNT(*) FROM t WHERE x IN ex1`, nil, func(r *sqlite.Row) error {
		return r.Scan(0, &count)
	})
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("expected 2 matches after rebind, got %d", count)
	}

	if err := arr.Drop(); err != nil {
		t.Fatal(err)
	}
}
