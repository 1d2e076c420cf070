package transform

import (
	"sort"
	"strings"

	"github.com/Knetic/govaluate"

	"github.com/lakeforge/etl/pkg/frame"
	"github.com/lakeforge/etl/pkg/tenant"
)

// ApplyComputedColumns evaluates each rule in dependency order and
// appends the resulting column to the frame. Arithmetic expressions use
// NULLIF-style safe division: dividing by a null or zero column yields
// null rather than +Inf or a panic. lookupTables supplies the small
// in-memory tables a RuleLookup rule may reference, keyed by the
// table name given in tenant.LookupParams.Table.
func ApplyComputedColumns(f *frame.Frame, rules []tenant.ComputedColumnRule, lookupTables map[string]map[string]string) (*frame.Frame, error) {
	ordered, err := tenant.BuildDependencyGraph(rules)
	if err != nil {
		return nil, &Error{Kind: KindBadExpression, Column: "", Err: err}
	}

	out := f
	for _, rule := range ordered {
		var col frame.Column
		var err error
		switch rule.Kind {
		case tenant.RuleConcat:
			col, err = applyConcat(out, rule)
		case tenant.RuleArithmetic:
			col, err = applyArithmetic(out, rule)
		case tenant.RuleLookup:
			col, err = applyLookup(out, rule, lookupTables)
		case tenant.RuleTransform:
			col, err = applyTransform(out, rule)
		default:
			continue
		}
		if err != nil {
			return nil, &Error{Kind: KindBadExpression, Column: rule.Target, Err: err}
		}
		out, err = out.WithColumn(col)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func applyConcat(f *frame.Frame, rule tenant.ComputedColumnRule) (frame.Column, error) {
	p := rule.Concat
	n := f.Rows()
	out := frame.NewColumn(rule.Target, frame.TypeString, n)
	cols := make([]frame.Column, len(p.Columns))
	for i, name := range p.Columns {
		c, ok := f.Column(name)
		if !ok {
			return frame.Column{}, errMissingColumn(name)
		}
		cols[i] = c
	}
	for i := 0; i < n; i++ {
		parts := make([]string, 0, len(cols))
		for _, c := range cols {
			if c.IsNull(i) {
				continue
			}
			parts = append(parts, columnStringAt(c, i))
		}
		out.Strings[i] = strings.Join(parts, p.Separator)
		out.Null[i] = false
	}
	return out, nil
}

func applyArithmetic(f *frame.Frame, rule tenant.ComputedColumnRule) (frame.Column, error) {
	p := rule.Arithmetic
	expr, err := govaluate.NewEvaluableExpression(p.Expression)
	if err != nil {
		return frame.Column{}, err
	}

	identifiers := tenant.ExtractIdentifiers(p.Expression)
	refCols := make(map[string]frame.Column, len(identifiers))
	for _, name := range identifiers {
		c, ok := f.Column(name)
		if ok {
			refCols[name] = c
		}
	}

	n := f.Rows()
	out := frame.NewColumn(rule.Target, frame.TypeFloat64, n)
	for i := 0; i < n; i++ {
		params := make(govaluate.MapParameters, len(refCols))
		nullRow := false
		for name, c := range refCols {
			if c.IsNull(i) {
				nullRow = true
				break
			}
			params[name] = columnFloatAt(c, i)
		}
		if nullRow {
			continue
		}
		result, err := expr.Eval(params)
		if err != nil {
			continue
		}
		v, ok := result.(float64)
		if !ok {
			continue
		}
		if isInfOrNaN(v) {
			continue
		}
		out.Float64s[i] = v
		out.Null[i] = false
	}
	return out, nil
}

func applyLookup(f *frame.Frame, rule tenant.ComputedColumnRule, lookupTables map[string]map[string]string) (frame.Column, error) {
	p := rule.Lookup
	src, ok := f.Column(p.SourceColumn)
	if !ok {
		return frame.Column{}, errMissingColumn(p.SourceColumn)
	}
	n := f.Rows()
	out := frame.NewColumn(rule.Target, frame.TypeString, n)
	table := lookupTables[p.Table]
	for i := 0; i < n; i++ {
		if src.IsNull(i) {
			if p.Default != "" {
				out.Strings[i] = p.Default
				out.Null[i] = false
			}
			continue
		}
		key := columnStringAt(src, i)
		v, ok := table[key]
		if !ok {
			v = p.Default
			if v == "" {
				continue
			}
		}
		out.Strings[i] = v
		out.Null[i] = false
	}
	return out, nil
}

func applyTransform(f *frame.Frame, rule tenant.ComputedColumnRule) (frame.Column, error) {
	p := rule.Transform
	switch p.Function {
	case "concat_upper":
		col, err := applyConcat(f, tenant.ComputedColumnRule{
			Target: rule.Target,
			Kind:   tenant.RuleConcat,
			Concat: &tenant.ConcatParams{Columns: argColumns(p.Args), Separator: ""},
		})
		if err != nil {
			return frame.Column{}, err
		}
		for i := range col.Strings {
			col.Strings[i] = strings.ToUpper(col.Strings[i])
		}
		return col, nil
	default:
		return frame.Column{}, errUnknownFunction(p.Function)
	}
}

// argColumns extracts a transform rule's source column names from its
// args map in a deterministic order (sorted by key), since Args is a
// map[string]string and map iteration order is not stable.
func argColumns(args map[string]string) []string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	cols := make([]string, len(keys))
	for i, k := range keys {
		cols[i] = args[k]
	}
	return cols
}

func columnFloatAt(c frame.Column, i int) float64 {
	switch c.Typ {
	case frame.TypeFloat64:
		return c.Float64s[i]
	case frame.TypeInt64:
		return float64(c.Int64s[i])
	default:
		return 0
	}
}

func isInfOrNaN(v float64) bool {
	return v != v || v > maxFinite || v < -maxFinite
}

const maxFinite = 1.7976931348623157e+308

type missingColumnError struct{ name string }

func (e *missingColumnError) Error() string { return "column not found: " + e.name }

func errMissingColumn(name string) error { return &missingColumnError{name: name} }

type unknownFunctionError struct{ name string }

func (e *unknownFunctionError) Error() string { return "unknown transform function: " + e.name }

func errUnknownFunction(name string) error { return &unknownFunctionError{name: name} }
