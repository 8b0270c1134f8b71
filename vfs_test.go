package sqlite_test

import (
	"testing"

	sqlite "github.com/gosqlitecore/sqlite"
)

func TestMemVfs(t *testing.T) {
	mvfs := sqlite.NewMemVfs()

	err := mvfs.CreateFile("fixture.db", func(conn *sqlite.Connection) error {
		if err := conn.ExecuteBatch("CREATE TABLE t (value TEXT)"); err != nil {
			return err
		}
		_, err := conn.Execute("INSERT INTO t VALUES (?)", "hello")
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	unregister, err := sqlite.NewVfsRegistration("memvfs_test", mvfs).Register()
	if err != nil {
		t.Fatal(err)
	}
	defer unregister()

	conn, err := sqlite.Open("fixture.db", sqlite.WithVfsName("memvfs_test"), sqlite.WithFlags(sqlite.OpenReadOnly))
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	var got string
	err = conn.QueryOne("SELECT value FROM t", nil, func(r *sqlite.Row) error {
		return r.Scan(0, &got)
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}

func TestMemVfsMissingFile(t *testing.T) {
	mvfs := sqlite.NewMemVfs()

	unregister, err := sqlite.NewVfsRegistration("memvfs_missing_test", mvfs).Register()
	if err != nil {
		t.Fatal(err)
	}
	defer unregister()

	_, err = sqlite.Open("does-not-exist.db", sqlite.WithVfsName("memvfs_missing_test"), sqlite.WithFlags(sqlite.OpenReadOnly))
	if err == nil {
		t.Fatal("expected opening a missing file through MemVfs to fail")
	}
}
