package sqlite_test

import (
	"bytes"
	"testing"

	sqlite "github.com/gosqlitecore/sqlite"
)

func TestSerializeDeserialize(t *testing.T) {
	src, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if err := src.ExecuteBatch("CREATE TABLE t (value TEXT)"); err != nil {
		t.Fatal(err)
	}
	if _, err := src.Execute("INSERT INTO t VALUES (?)", "hello"); err != nil {
		t.Fatal(err)
	}

	data, err := src.Serialize("main")
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Fatal("expected a non-empty serialized image")
	}

	dst, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer dst.Close()

	if err := dst.Deserialize("main", data, true); err != nil {
		t.Fatal(err)
	}

	var got string
	err = dst.QueryOne("SELECT value FROM t", nil, func(r *sqlite.Row) error {
		return r.Scan(0, &got)
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}

func TestSerializeMissingSchema(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	data, err := conn.Serialize("nonexistent")
	if err != nil {
		t.Fatalf("got error %v, want nil for a nonexistent schema", err)
	}
	if data != nil {
		t.Fatalf("got %v, want nil data for a nonexistent schema", data)
	}
}

func TestDeserializeReadExact(t *testing.T) {
	src, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if err := src.ExecuteBatch("CREATE TABLE t (value INTEGER)"); err != nil {
		t.Fatal(err)
	}
	if _, err := src.Execute("INSERT INTO t VALUES (42)"); err != nil {
		t.Fatal(err)
	}
	data, err := src.Serialize("main")
	if err != nil {
		t.Fatal(err)
	}

	dst, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer dst.Close()

	if err := dst.DeserializeReadExact("main", bytes.NewReader(data), len(data), true); err != nil {
		t.Fatal(err)
	}

	var got int
	err = dst.QueryOne("SELECT value FROM t", nil, func(r *sqlite.Row) error {
		return r.Scan(0, &got)
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}
