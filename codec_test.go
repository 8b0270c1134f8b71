package sqlite_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	sqlite "github.com/gosqlitecore/sqlite"
)

func TestInt128RoundTrip(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.ExecuteBatch("CREATE TABLE t (value BLOB)"); err != nil {
		t.Fatal(err)
	}

	want, err := sqlite.NewInt128(big.NewInt(-123456789))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := conn.Execute("INSERT INTO t VALUES (?)", want); err != nil {
		t.Fatal(err)
	}

	var got sqlite.Int128
	err = conn.QueryOne("SELECT value FROM t", nil, func(r *sqlite.Row) error {
		return r.Scan(0, &got)
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Big().Cmp(want.Big()) != 0 {
		t.Fatalf("got %v, want %v", got.Big(), want.Big())
	}
}

func TestUUIDRoundTrip(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.ExecuteBatch("CREATE TABLE t (value BLOB)"); err != nil {
		t.Fatal(err)
	}

	want := sqlite.UUIDValue(uuid.New())
	if _, err := conn.Execute("INSERT INTO t VALUES (?)", want); err != nil {
		t.Fatal(err)
	}

	var got sqlite.UUIDValue
	err = conn.QueryOne("SELECT value FROM t", nil, func(r *sqlite.Row) error {
		return r.Scan(0, &got)
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("got %v, want %v", uuid.UUID(got), uuid.UUID(want))
	}
}

func TestTimeValueRoundTrip(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.ExecuteBatch("CREATE TABLE t (value TEXT)"); err != nil {
		t.Fatal(err)
	}

	want := sqlite.TimeValue(time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC))
	if _, err := conn.Execute("INSERT INTO t VALUES (?)", want); err != nil {
		t.Fatal(err)
	}

	var got sqlite.TimeValue
	err = conn.QueryOne("SELECT value FROM t", nil, func(r *sqlite.Row) error {
		return r.Scan(0, &got)
	})
	if err != nil {
		t.Fatal(err)
	}
	if !time.Time(got).Equal(time.Time(want)) {
		t.Fatalf("got %v, want %v", time.Time(got), time.Time(want))
	}
}
