package convert

import (
	"encoding/csv"
	"errors"
	"io"
	"os"

	"github.com/lakeforge/etl/pkg/frame"
)

// convertCSV reads a CSV file into a Frame with every column typed as
// string, since CSV carries no native type information. The header row
// supplies column names verbatim.
func convertCSV(path string) (*frame.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Kind: KindParseError, Path: path, Row: -1, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return frame.New(nil)
		}
		return nil, &Error{Kind: KindParseError, Path: path, Row: 0, Err: err}
	}

	values := make([][]string, len(header))
	rowNum := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &Error{Kind: KindParseError, Path: path, Row: rowNum + 1, Err: err}
		}
		rowNum++
		for i := range header {
			var v string
			if i < len(record) {
				v = record[i]
			}
			values[i] = append(values[i], v)
		}
	}

	cols := make([]frame.Column, len(header))
	for i, name := range header {
		col := frame.NewColumn(name, frame.TypeString, rowNum)
		for r := 0; r < rowNum; r++ {
			col.Strings[r] = values[i][r]
			col.Null[r] = false
		}
		cols[i] = col
	}
	return frame.New(cols)
}
