package sqlite_test

import (
	"strings"
	"testing"

	sqlite "github.com/gosqlitecore/sqlite"
)

// Upper implements an UPPER(...) sql scalar function.
type Upper struct{}

func (m *Upper) Args() int           { return 1 }
func (m *Upper) Deterministic() bool { return true }
func (m *Upper) Apply(ctx *sqlite.Context, values ...sqlite.ValueRef) {
	ctx.ResultText(strings.ToUpper(values[0].Text()))
}

func TestScalarFunction(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.CreateFunction("upper", &Upper{}); err != nil {
		t.Fatal(err)
	}

	var result string
	err = conn.QueryOne("SELECT upper('sqlite')", nil, func(r *sqlite.Row) error {
		return r.Scan(0, &result)
	})
	if err != nil {
		t.Fatal(err)
	}
	if result != "SQLITE" {
		t.Fatalf("invalid result: got %q", result)
	}
}

const magic = 0xfe

// X(s) is a custom scalar function that returns the same string s, but
// with an added subtype using ResultSubType. Used with IsX to test
// subtype round-tripping.
type X struct{}

func (m *X) Args() int           { return 1 }
func (m *X) Deterministic() bool { return true }
func (m *X) Apply(ctx *sqlite.Context, values ...sqlite.ValueRef) {
	ctx.ResultText(values[0].Text())
	ctx.ResultSubType(magic)
}

// IsX(s) is a custom scalar function that returns 0 or 1, depending on
// whether s carries the same subtype X attaches.
type IsX struct{}

func (m *IsX) Args() int           { return 1 }
func (m *IsX) Deterministic() bool { return true }
func (m *IsX) Apply(ctx *sqlite.Context, values ...sqlite.ValueRef) {
	if values[0].SubType() == magic {
		ctx.ResultInt(1)
	} else {
		ctx.ResultInt(0)
	}
}

func TestSubtypeFunctions(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.CreateFunction("x", &X{}); err != nil {
		t.Fatal(err)
	}
	if err := conn.CreateFunction("is_x", &IsX{}); err != nil {
		t.Fatal(err)
	}

	var shouldFalse, shouldTrue int
	err = conn.QueryOne("SELECT is_x('f'), is_x(x('t'))", nil, func(r *sqlite.Row) error {
		return r.ScanAll(&shouldFalse, &shouldTrue)
	})
	if err != nil {
		t.Fatal(err)
	}

	if shouldFalse != 0 {
		t.Fatalf("is_x('f') should return false: got %d", shouldFalse)
	}
	if shouldTrue != 1 {
		t.Fatalf("is_x(x('t')) should return true: got %d", shouldTrue)
	}
}
