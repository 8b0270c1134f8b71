package sqlite_test

import (
	"strings"
	"testing"

	sqlite "github.com/gosqlitecore/sqlite"
)

// caseInsensitive is the collation sequence matcher used by TestCollation.
func caseInsensitive(a, b string) int {
	if strings.EqualFold(a, b) {
		return 0
	}
	return 1
}

func TestCollation(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.CreateCollation("no_case", caseInsensitive); err != nil {
		t.Fatal(err)
	}

	if err := conn.ExecuteBatch("CREATE TABLE x (value TEXT)"); err != nil {
		t.Fatal(err)
	}

	for _, v := range []string{"aa", "aA", "Aa", "AA", "bb"} {
		if _, err := conn.Execute("INSERT INTO x VALUES (?)", v); err != nil {
			t.Fatal(err)
		}
	}

	var count int
	err = conn.QueryOne(`SELECT COUNT(*) FROM x WHERE value = 'aa' COLLATE no_case`, nil, func(r *sqlite.Row) error {
		return r.Scan(0, &count)
	})
	if err != nil {
		t.Fatal(err)
	}
	if count != 4 {
		t.Fatalf("invalid count: got %d", count)
	}
}
