package convert

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/lakeforge/etl/pkg/frame"
	"github.com/lakeforge/etl/pkg/tenant"
)

func TestConvert_ExcelInfersNumericColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders.xlsx")

	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetCellValue(sheet, "A1", "OrderID"))
	require.NoError(t, wb.SetCellValue(sheet, "B1", "Amount"))
	require.NoError(t, wb.SetCellValue(sheet, "A2", "1001"))
	require.NoError(t, wb.SetCellValue(sheet, "B2", 10.5))
	require.NoError(t, wb.SetCellValue(sheet, "A3", "1002"))
	require.NoError(t, wb.SetCellValue(sheet, "B3", 20))
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())

	fr, err := Convert(path, tenant.FormatExcel)
	require.NoError(t, err)
	require.Equal(t, 2, fr.Rows())

	col, ok := fr.Column("Amount")
	require.True(t, ok)
	require.Equal(t, frame.TypeFloat64, col.Typ)
	require.Equal(t, 10.5, col.Float64s[0])
}
