package convert

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"

	"github.com/lakeforge/etl/pkg/frame"
	"github.com/lakeforge/etl/pkg/tenant"
)

type testParquetRow struct {
	OrderID int64   `parquet:"order_id"`
	Amount  float64 `parquet:"amount"`
}

func TestConvert_ParquetPreservesPhysicalTypes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.parquet")

	f, err := os.Create(path)
	require.NoError(t, err)

	writer := parquet.NewGenericWriter[testParquetRow](f)
	_, err = writer.Write([]testParquetRow{
		{OrderID: 1, Amount: 10.5},
		{OrderID: 2, Amount: 20},
	})
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	require.NoError(t, f.Close())

	fr, err := Convert(path, tenant.FormatParquet)
	require.NoError(t, err)
	require.Equal(t, 2, fr.Rows())

	col, ok := fr.Column("order_id")
	require.True(t, ok)
	require.Equal(t, frame.TypeInt64, col.Typ)
	require.Equal(t, int64(1), col.Int64s[0])

	amt, ok := fr.Column("amount")
	require.True(t, ok)
	require.Equal(t, frame.TypeFloat64, amt.Typ)
}
