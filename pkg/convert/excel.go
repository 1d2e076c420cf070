package convert

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/lakeforge/etl/pkg/frame"
)

// convertExcel reads the first worksheet of an xlsx workbook into a
// Frame, inferring each column's type from its cell values: numeric
// cells become float64, cells whose custom number format is a date/time
// layout become time.Time, everything else is string. The first row supplies
// column names.
func convertExcel(path string) (*frame.Frame, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &Error{Kind: KindParseError, Path: path, Row: -1, Err: err}
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return frame.New(nil)
	}
	sheet := sheets[0]

	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, &Error{Kind: KindParseError, Path: path, Row: -1, Err: err}
	}
	if len(rows) == 0 {
		return frame.New(nil)
	}

	header := rows[0]
	dataRows := rows[1:]
	nCols := len(header)
	nRows := len(dataRows)

	types := inferExcelColumnTypes(wb, sheet, nCols, nRows)

	cols := make([]frame.Column, nCols)
	for ci := 0; ci < nCols; ci++ {
		col := frame.NewColumn(header[ci], types[ci], nRows)
		for ri := 0; ri < nRows; ri++ {
			var raw string
			if ci < len(dataRows[ri]) {
				raw = dataRows[ri][ci]
			}
			if raw == "" {
				continue
			}
			col.Null[ri] = false
			switch types[ci] {
			case frame.TypeFloat64:
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, &Error{Kind: KindParseError, Path: path, Row: ri + 1, Col: header[ci], Err: err}
				}
				col.Float64s[ri] = v
			case frame.TypeTime:
				t, err := excelCellTime(wb, sheet, ci, ri)
				if err != nil {
					return nil, &Error{Kind: KindParseError, Path: path, Row: ri + 1, Col: header[ci], Err: err}
				}
				col.Times[ri] = t
			default:
				col.Strings[ri] = raw
			}
		}
		cols[ci] = col
	}
	return frame.New(cols)
}

// inferExcelColumnTypes samples every cell in each column and reports
// float64 if all non-empty cells parse as numbers, time if every
// non-empty cell's custom number format looks like a date layout,
// string otherwise.
func inferExcelColumnTypes(wb *excelize.File, sheet string, nCols, nRows int) []frame.Type {
	types := make([]frame.Type, nCols)
	for ci := 0; ci < nCols; ci++ {
		typ := frame.TypeString
		sawNumeric, sawDate, sawOther := false, false, false
		for ri := 0; ri < nRows; ri++ {
			colName, err := excelize.ColumnNumberToName(ci + 1)
			if err != nil {
				continue
			}
			cell := colName + strconv.Itoa(ri+2)
			raw, err := wb.GetCellValue(sheet, cell)
			if err != nil || raw == "" {
				continue
			}
			if isExcelDateCell(wb, sheet, cell) {
				sawDate = true
				continue
			}
			if _, err := strconv.ParseFloat(raw, 64); err == nil {
				sawNumeric = true
				continue
			}
			sawOther = true
		}
		switch {
		case sawDate && !sawOther:
			typ = frame.TypeTime
		case sawNumeric && !sawOther && !sawDate:
			typ = frame.TypeFloat64
		}
		types[ci] = typ
	}
	return types
}

func isExcelDateCell(wb *excelize.File, sheet, cell string) bool {
	styleID, err := wb.GetCellStyle(sheet, cell)
	if err != nil {
		return false
	}
	style, err := wb.GetStyle(styleID)
	if err != nil || style.CustomNumFmt == nil {
		return false
	}
	fmtCode := strings.ToLower(*style.CustomNumFmt)
	return strings.ContainsAny(fmtCode, "ydh") && (strings.Contains(fmtCode, "y") || strings.Contains(fmtCode, "m") || strings.Contains(fmtCode, "d"))
}

func excelCellTime(wb *excelize.File, sheet string, ci, ri int) (time.Time, error) {
	colName, err := excelize.ColumnNumberToName(ci + 1)
	if err != nil {
		return time.Time{}, err
	}
	cell := colName + strconv.Itoa(ri+2)
	raw, err := wb.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return time.Time{}, err
	}
	axis, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return time.Time{}, err
	}
	return excelize.ExcelDateToTime(axis, false)
}
