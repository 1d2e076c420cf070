package frame

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildTestFrame(t *testing.T) *Frame {
	t.Helper()
	idCol := Column{Name: "id", Typ: TypeInt64, Int64s: []int64{1, 2, 3}, Null: []bool{false, false, false}}
	nameCol := Column{Name: "name", Typ: TypeString, Strings: []string{"a", "b", "c"}, Null: []bool{false, false, false}}
	f, err := New([]Column{idCol, nameCol})
	require.NoError(t, err)
	return f
}

func TestNew_RejectsMismatchedLength(t *testing.T) {
	idCol := Column{Name: "id", Typ: TypeInt64, Int64s: []int64{1, 2}, Null: []bool{false, false}}
	nameCol := Column{Name: "name", Typ: TypeString, Strings: []string{"a"}, Null: []bool{false}}
	_, err := New([]Column{idCol, nameCol})
	require.Error(t, err)
}

func TestProject_ReordersColumns(t *testing.T) {
	f := buildTestFrame(t)
	projected, err := Project(f, []string{"name", "id"})
	require.NoError(t, err)
	require.Equal(t, []string{"name", "id"}, projected.ColumnNames())
	require.Equal(t, f.Rows(), projected.Rows())
}

func TestProject_MissingColumnErrors(t *testing.T) {
	f := buildTestFrame(t)
	_, err := Project(f, []string{"name", "missing"})
	require.Error(t, err)
}

func TestChunks_SplitsIntoFixedSizes(t *testing.T) {
	f := buildTestFrame(t)
	chunks := Chunks(f, 2)
	require.Len(t, chunks, 2)
	require.Equal(t, ChunkDescriptor{Start: 0, End: 2, Ordinal: 0}, chunks[0])
	require.Equal(t, ChunkDescriptor{Start: 2, End: 3, Ordinal: 1}, chunks[1])
}

func TestFilterRows_KeepsOnlyMarkedRows(t *testing.T) {
	f := buildTestFrame(t)
	filtered := FilterRows(f, []bool{true, false, true})
	require.Equal(t, 2, filtered.Rows())
	idCol, ok := filtered.Column("id")
	require.True(t, ok)
	require.Equal(t, []int64{1, 3}, idCol.Int64s)
}

func TestWithColumn_AppendsAndReplaces(t *testing.T) {
	f := buildTestFrame(t)
	extra := Column{Name: "score", Typ: TypeFloat64, Float64s: []float64{1.5, 2.5, 3.5}, Null: []bool{false, false, false}}
	withExtra, err := f.WithColumn(extra)
	require.NoError(t, err)
	require.True(t, withExtra.HasColumn("score"))
	require.False(t, f.HasColumn("score"))
}
