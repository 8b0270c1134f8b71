package sqlite_test

import (
	"testing"

	sqlite "github.com/gosqlitecore/sqlite"
)

func TestBackup(t *testing.T) {
	src, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if err := src.ExecuteBatch("CREATE TABLE t (value TEXT)"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 100; i++ {
		if _, err := src.Execute("INSERT INTO t VALUES (?)", "row"); err != nil {
			t.Fatal(err)
		}
	}

	dst, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer dst.Close()

	b, err := sqlite.NewBackup(dst, "main", src, "main")
	if err != nil {
		t.Fatal(err)
	}

	if err := b.Run(5, 0, nil); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}

	var count int
	err = dst.QueryOne("SELECT COUNT(*) FROM t", nil, func(r *sqlite.Row) error {
		return r.Scan(0, &count)
	})
	if err != nil {
		t.Fatal(err)
	}
	if count != 100 {
		t.Fatalf("got %d rows after backup, want 100", count)
	}
}
