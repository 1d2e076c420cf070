package convert

import (
	"errors"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/lakeforge/etl/pkg/frame"
)

// convertParquet passes an already-columnar parquet file through with
// its physical column types preserved: int32/int64 to int64, float/double
// to float64, boolean to bool, byte arrays to string. Parquet files are
// already the engine's canonical columnar shape, so this is close to a
// pure re-encode rather than a parse.
func convertParquet(path string) (*frame.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Kind: KindParseError, Path: path, Row: -1, Err: err}
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, &Error{Kind: KindParseError, Path: path, Row: -1, Err: err}
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, &Error{Kind: KindParseError, Path: path, Row: -1, Err: err}
	}

	fields := pf.Schema().Fields()
	names := make([]string, len(fields))
	types := make([]frame.Type, len(fields))
	for i, field := range fields {
		names[i] = field.Name()
		types[i] = parquetFieldType(field)
	}

	reader := parquet.NewReader(pf)
	defer reader.Close()

	var rawRows [][]parquet.Value
	buf := make([]parquet.Row, 256)
	rowNum := 0
	for {
		n, err := reader.ReadRows(buf)
		for i := 0; i < n; i++ {
			rawRows = append(rawRows, []parquet.Value(buf[i]))
			rowNum++
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &Error{Kind: KindParseError, Path: path, Row: rowNum, Err: err}
		}
		if n == 0 {
			break
		}
	}

	cols := make([]frame.Column, len(names))
	for ci, name := range names {
		col := frame.NewColumn(name, types[ci], len(rawRows))
		for ri, row := range rawRows {
			if ci >= len(row) {
				continue
			}
			v := row[ci]
			if v.IsNull() {
				continue
			}
			col.Null[ri] = false
			switch types[ci] {
			case frame.TypeInt64:
				col.Int64s[ri] = v.Int64()
			case frame.TypeFloat64:
				col.Float64s[ri] = v.Double()
			case frame.TypeBool:
				col.Bools[ri] = v.Boolean()
			default:
				col.Strings[ri] = v.String()
			}
		}
		cols[ci] = col
	}
	return frame.New(cols)
}

func parquetFieldType(field parquet.Field) frame.Type {
	switch field.Type().Kind() {
	case parquet.Int32, parquet.Int64:
		return frame.TypeInt64
	case parquet.Float, parquet.Double:
		return frame.TypeFloat64
	case parquet.Boolean:
		return frame.TypeBool
	default:
		return frame.TypeString
	}
}
