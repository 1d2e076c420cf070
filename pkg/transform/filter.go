package transform

import (
	"github.com/Knetic/govaluate"

	"github.com/lakeforge/etl/pkg/frame"
)

// ApplyFilters evaluates each predicate as a govaluate expression against
// every row and keeps only rows where all predicates evaluate truthy.
// Runs last in the transform pipeline so predicates may reference
// computed columns. Returns the filtered frame and the number of rows
// dropped.
func ApplyFilters(f *frame.Frame, predicates []string) (*frame.Frame, int, error) {
	if len(predicates) == 0 {
		return f, 0, nil
	}

	exprs := make([]*govaluate.EvaluableExpression, len(predicates))
	for i, p := range predicates {
		expr, err := govaluate.NewEvaluableExpression(p)
		if err != nil {
			return nil, 0, &Error{Kind: KindBadExpression, Column: "", Err: err}
		}
		exprs[i] = expr
	}

	n := f.Rows()
	keep := make([]bool, n)
	names := f.ColumnNames()
	cols := f.Columns()

	for i := 0; i < n; i++ {
		params := make(govaluate.MapParameters, len(names))
		for ci, name := range names {
			if cols[ci].IsNull(i) {
				continue
			}
			params[name] = rowValue(cols[ci], i)
		}
		pass := true
		for _, expr := range exprs {
			result, err := expr.Eval(params)
			if err != nil {
				pass = false
				break
			}
			truthy, ok := result.(bool)
			if !ok || !truthy {
				pass = false
				break
			}
		}
		keep[i] = pass
	}

	dropped := 0
	for _, k := range keep {
		if !k {
			dropped++
		}
	}

	return frame.FilterRows(f, keep), dropped, nil
}

func rowValue(c frame.Column, i int) interface{} {
	switch c.Typ {
	case frame.TypeInt64:
		return float64(c.Int64s[i])
	case frame.TypeFloat64:
		return c.Float64s[i]
	case frame.TypeBool:
		return c.Bools[i]
	case frame.TypeTime:
		return c.Times[i]
	default:
		return c.Strings[i]
	}
}
