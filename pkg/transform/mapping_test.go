package transform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lakeforge/etl/pkg/frame"
	"github.com/lakeforge/etl/pkg/tenant"
)

func buildFrame(t *testing.T) *frame.Frame {
	t.Helper()
	id := frame.NewColumn("Order_ID", frame.TypeString, 2)
	id.Strings = []string{"1", "2"}
	id.Null = []bool{false, false}
	amt := frame.NewColumn("Amount", frame.TypeString, 2)
	amt.Strings = []string{"10.5", "20"}
	amt.Null = []bool{false, false}
	extra := frame.NewColumn("Unmapped", frame.TypeString, 2)
	extra.Strings = []string{"x", "y"}
	extra.Null = []bool{false, false}

	fr, err := frame.New([]frame.Column{id, amt, extra})
	require.NoError(t, err)
	return fr
}

func TestApplyMapping_RenamesAddsDrops(t *testing.T) {
	fr := buildFrame(t)
	mapping := tenant.ColumnMapping{
		Rename: map[string]string{
			"Order_ID": "id",
			"Amount":   "amount",
		},
		Types: map[string]string{
			"id":       "int64",
			"amount":   "float64",
			"region":   "string",
		},
	}

	out, summary, err := ApplyMapping(fr, mapping)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Renamed)
	require.Equal(t, 1, summary.Added)
	require.Equal(t, 1, summary.Dropped)
	require.True(t, out.HasColumn("id"))
	require.True(t, out.HasColumn("amount"))
	require.True(t, out.HasColumn("region"))
	require.False(t, out.HasColumn("Unmapped"))

	region, _ := out.Column("region")
	require.True(t, region.IsNull(0))
}

func TestCoerceTypes_CastsAndCleans(t *testing.T) {
	fr := buildFrame(t)
	mapping := tenant.ColumnMapping{
		Rename: map[string]string{"Order_ID": "id", "Amount": "amount"},
		Types:  map[string]string{"id": "int64", "amount": "float64"},
	}
	mapped, _, err := ApplyMapping(fr, mapping)
	require.NoError(t, err)

	coerced, err := CoerceTypes(mapped, mapping)
	require.NoError(t, err)

	id, ok := coerced.Column("id")
	require.True(t, ok)
	require.Equal(t, frame.TypeInt64, id.Typ)
	require.Equal(t, int64(1), id.Int64s[0])

	amount, ok := coerced.Column("amount")
	require.True(t, ok)
	require.Equal(t, 10.5, amount.Float64s[0])
}

func TestCoerceTypes_NullPolicyOnBadCast(t *testing.T) {
	col := frame.NewColumn("qty", frame.TypeString, 2)
	col.Strings = []string{"abc", "5"}
	col.Null = []bool{false, false}
	fr, err := frame.New([]frame.Column{col})
	require.NoError(t, err)

	mapping := tenant.ColumnMapping{Types: map[string]string{"qty": "int64"}}
	out, err := CoerceTypes(fr, mapping)
	require.NoError(t, err)

	qty, _ := out.Column("qty")
	require.True(t, qty.IsNull(0))
	require.False(t, qty.IsNull(1))
	require.Equal(t, int64(5), qty.Int64s[1])
}
