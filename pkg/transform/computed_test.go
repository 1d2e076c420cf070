package transform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lakeforge/etl/pkg/frame"
	"github.com/lakeforge/etl/pkg/tenant"
)

func buildArithmeticFrame(t *testing.T) *frame.Frame {
	t.Helper()
	sub := frame.NewColumn("subtotal", frame.TypeFloat64, 3)
	sub.Float64s = []float64{100, 50, 0}
	sub.Null = []bool{false, false, false}
	tax := frame.NewColumn("tax_amount", frame.TypeFloat64, 3)
	tax.Float64s = []float64{10, 5, 0}
	tax.Null = []bool{false, true, false}

	fr, err := frame.New([]frame.Column{sub, tax})
	require.NoError(t, err)
	return fr
}

func TestApplyComputedColumns_ArithmeticWithNullPropagation(t *testing.T) {
	fr := buildArithmeticFrame(t)
	rules := []tenant.ComputedColumnRule{
		{
			Target:     "total_with_tax",
			Kind:       tenant.RuleArithmetic,
			Arithmetic: &tenant.ArithmeticParams{Expression: "subtotal + tax_amount"},
		},
	}

	out, err := ApplyComputedColumns(fr, rules, nil)
	require.NoError(t, err)

	col, ok := out.Column("total_with_tax")
	require.True(t, ok)
	require.Equal(t, 110.0, col.Float64s[0])
	require.True(t, col.IsNull(1))
}

func TestApplyComputedColumns_DependentRulesOrdered(t *testing.T) {
	fr := buildArithmeticFrame(t)
	rules := []tenant.ComputedColumnRule{
		{
			Target:     "grand_total",
			Kind:       tenant.RuleArithmetic,
			Arithmetic: &tenant.ArithmeticParams{Expression: "total_with_tax * 2"},
		},
		{
			Target:     "total_with_tax",
			Kind:       tenant.RuleArithmetic,
			Arithmetic: &tenant.ArithmeticParams{Expression: "subtotal + tax_amount"},
		},
	}

	out, err := ApplyComputedColumns(fr, rules, nil)
	require.NoError(t, err)

	grand, ok := out.Column("grand_total")
	require.True(t, ok)
	require.Equal(t, 220.0, grand.Float64s[0])
}

func TestApplyComputedColumns_Concat(t *testing.T) {
	a := frame.NewColumn("first", frame.TypeString, 1)
	a.Strings = []string{"John"}
	a.Null = []bool{false}
	b := frame.NewColumn("last", frame.TypeString, 1)
	b.Strings = []string{"Doe"}
	b.Null = []bool{false}
	fr, err := frame.New([]frame.Column{a, b})
	require.NoError(t, err)

	rules := []tenant.ComputedColumnRule{
		{
			Target: "full_name",
			Kind:   tenant.RuleConcat,
			Concat: &tenant.ConcatParams{Columns: []string{"first", "last"}, Separator: " "},
		},
	}
	out, err := ApplyComputedColumns(fr, rules, nil)
	require.NoError(t, err)

	full, ok := out.Column("full_name")
	require.True(t, ok)
	require.Equal(t, "John Doe", full.Strings[0])
}

func TestApplyComputedColumns_Lookup(t *testing.T) {
	code := frame.NewColumn("region_code", frame.TypeString, 2)
	code.Strings = []string{"us", "zz"}
	code.Null = []bool{false, false}
	fr, err := frame.New([]frame.Column{code})
	require.NoError(t, err)

	rules := []tenant.ComputedColumnRule{
		{
			Target: "region_name",
			Kind:   tenant.RuleLookup,
			Lookup: &tenant.LookupParams{SourceColumn: "region_code", Table: "regions", Default: "Unknown"},
		},
	}
	tables := map[string]map[string]string{"regions": {"us": "United States"}}
	out, err := ApplyComputedColumns(fr, rules, tables)
	require.NoError(t, err)

	region, ok := out.Column("region_name")
	require.True(t, ok)
	require.Equal(t, "United States", region.Strings[0])
	require.Equal(t, "Unknown", region.Strings[1])
}
