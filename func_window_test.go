package sqlite_test

import (
	"testing"

	sqlite "github.com/gosqlitecore/sqlite"
)

// Sum implements a window function that also doubles up as a normal
// aggregate function. It follows the behavior described at
// https://sqlite.org/lang_aggfunc.html#sumunc
type Sum struct{}

func (s *Sum) Args() int           { return 1 }
func (s *Sum) Deterministic() bool { return true }

type SumContext struct {
	rSum   float64
	iSum   int64
	count  int64
	approx bool
}

func (s *Sum) Step(ctx *sqlite.AggregateContext, values ...sqlite.ValueRef) {
	if ctx.Data() == nil {
		ctx.SetData(&SumContext{})
	}

	val := values[0]
	sumCtx := ctx.Data().(*SumContext)

	if !val.IsNil() {
		sumCtx.count++
		if val.Type() == sqlite.SQLITE_INTEGER {
			sumCtx.iSum += val.Int64()
		} else {
			sumCtx.approx = true
			sumCtx.rSum += val.Float()
		}
	}
}

func (s *Sum) Final(ctx *sqlite.AggregateContext) {
	if ctx.Data() != nil {
		sumCtx := ctx.Data().(*SumContext)
		if sumCtx.count > 0 {
			if sumCtx.approx {
				ctx.ResultFloat(sumCtx.rSum)
			} else {
				ctx.ResultInt64(sumCtx.iSum)
			}
		}
	}
}

func (s *Sum) Inverse(ctx *sqlite.AggregateContext, values ...sqlite.ValueRef) {
	val := values[0]
	sumCtx := ctx.Data().(*SumContext)
	if val.Type() == sqlite.SQLITE_INTEGER && !sumCtx.approx {
		v := val.Int64()
		sumCtx.rSum -= float64(v)
		sumCtx.iSum -= v
	} else {
		sumCtx.rSum -= val.Float()
	}
}

func (s *Sum) Value(ctx *sqlite.AggregateContext) { s.Final(ctx) }

const generateSeriesCTE = `
WITH RECURSIVE generate_series(value) AS (
    SELECT 1
    	UNION ALL
    SELECT value+1 FROM generate_series
    	WHERE value+1<=10
) `

func TestWindowFunction(t *testing.T) {
	conn, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.CreateFunction("sum", &Sum{}); err != nil {
		t.Fatal(err)
	}

	t.Run("normal aggregation", func(t *testing.T) {
		var result int
		err := conn.QueryOne(generateSeriesCTE+"SELECT SUM(value) FROM generate_series", nil, func(r *sqlite.Row) error {
			return r.Scan(0, &result)
		})
		if err != nil {
			t.Fatal(err)
		}
		if result != 55 {
			t.Fatalf("invalid result: got %d", result)
		}
	})

	t.Run("running sum", func(t *testing.T) {
		rows, err := conn.Query(generateSeriesCTE + "SELECT SUM(value) OVER(ROWS UNBOUNDED PRECEDING) AS running_total FROM generate_series")
		if err != nil {
			t.Fatal(err)
		}
		defer rows.Close()

		series := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
		total := 0

		for i := 0; rows.Next(); i++ {
			total += series[i]

			var j int
			if err := rows.Row().Scan(0, &j); err != nil {
				t.Fatal(err)
			}

			if total != j {
				t.Fatalf("value mismatch: total(%d) != j(%d)", total, j)
			}
		}
		if err := rows.Err(); err != nil {
			t.Fatal(err)
		}
	})
}
