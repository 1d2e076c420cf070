package loadcheck

import (
	"fmt"

	"github.com/lakeforge/etl/pkg/frame"
	"github.com/lakeforge/etl/pkg/log"
)

// Options configures Reconcile's widening and logging behavior.
type Options struct {
	MaxVarcharWidth int // cap for auto-widening; 0 means 65535
	TenantSlug      string
}

// Widen describes one varchar column that exceeded its declared width
// and the next control-plane ALTER the caller must execute before
// retrying Reconcile.
type Widen struct {
	Column   string
	OldWidth int
	NewWidth int
}

// Reconcile validates f against live and returns the frame reordered to
// live's exact column order, ready for serialization. If any variable-
// width string column overflows its declared width, Reconcile returns
// no frame and a non-empty Widen slice instead of an error — the caller
// executes the ALTERs, re-fetches the live schema, and calls Reconcile
// again. This is the only situation Reconcile asks to be re-entered for.
func Reconcile(f *frame.Frame, live LiveSchema, opts Options) (*frame.Frame, []Widen, error) {
	maxWidth := opts.MaxVarcharWidth
	if maxWidth <= 0 {
		maxWidth = 65535
	}
	logger := log.WithTenant(opts.TenantSlug)

	out := f
	for _, col := range live.Columns {
		existing, ok := out.Column(col.Name)
		if !ok {
			if !col.Nullable {
				return nil, nil, &Error{Kind: KindMissingColumn, Table: live.Table, Column: col.Name, Row: -1,
					Err: errMissingRequiredColumn(col.Name)}
			}
			typ := frameTypeFor(col)
			newCol := frame.NewColumn(col.Name, typ, out.Rows())
			var err error
			out, err = out.WithColumn(newCol)
			if err != nil {
				return nil, nil, err
			}
			continue
		}

		if col.CharMaxLength > 0 {
			maxLen := maxByteLen(existing)
			if maxLen > col.CharMaxLength {
				newWidth := nextPowerOfTwo(maxLen)
				if newWidth > maxWidth {
					return nil, nil, &Error{Kind: KindOverflow, Table: live.Table, Column: col.Name, Row: -1,
						Err: errWidthExceedsCap(maxLen, maxWidth)}
				}
				return nil, []Widen{{Column: col.Name, OldWidth: col.CharMaxLength, NewWidth: newWidth}}, nil
			}
		}

		if isNumericType(col.DataType) {
			if rowIdx, ok := findNumericOverflow(existing, col); ok {
				return nil, nil, &Error{Kind: KindNumericOverflow, Table: live.Table, Column: col.Name, Row: rowIdx,
					Err: errNumericOverflow(col.DataType)}
			}
		}
	}

	for _, name := range out.ColumnNames() {
		if _, ok := live.Column(name); !ok {
			logger.Warn().Str("column", name).Str("table", live.Table).Msg("dropping column absent from live schema")
			out = out.WithoutColumn(name)
		}
	}

	return frame.Project(out, live.ColumnOrder())
}

func frameTypeFor(col ColumnMeta) frame.Type {
	switch {
	case isNumericType(col.DataType) && col.NumericScale > 0:
		return frame.TypeFloat64
	case isNumericType(col.DataType):
		return frame.TypeInt64
	case col.DataType == "datetime" || col.DataType == "date" || col.DataType == "timestamp":
		return frame.TypeTime
	case col.DataType == "boolean" || col.DataType == "bool":
		return frame.TypeBool
	default:
		return frame.TypeString
	}
}

func maxByteLen(c frame.Column) int {
	max := 0
	if c.Typ != frame.TypeString {
		return 0
	}
	for i, s := range c.Strings {
		if c.IsNull(i) {
			continue
		}
		if l := len(s); l > max {
			max = l
		}
	}
	return max
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

func isNumericType(dataType string) bool {
	switch dataType {
	case "tinyint", "smallint", "int", "integer", "bigint", "decimal", "numeric", "float", "double":
		return true
	default:
		return false
	}
}

var numericBounds = map[string][2]int64{
	"tinyint":  {-128, 127},
	"smallint": {-32768, 32767},
	"int":      {-2147483648, 2147483647},
	"integer":  {-2147483648, 2147483647},
	"bigint":   {-9223372036854775808, 9223372036854775807},
}

func findNumericOverflow(c frame.Column, col ColumnMeta) (int, bool) {
	bounds, ok := numericBounds[col.DataType]
	if !ok {
		return 0, false
	}
	if c.Typ != frame.TypeInt64 {
		return 0, false
	}
	for i, v := range c.Int64s {
		if c.IsNull(i) {
			continue
		}
		if v < bounds[0] || v > bounds[1] {
			return i, true
		}
	}
	return 0, false
}

type reconcileError struct{ msg string }

func (e *reconcileError) Error() string { return e.msg }

func errMissingRequiredColumn(name string) error {
	return &reconcileError{msg: "required non-nullable column " + name + " is missing from frame"}
}

func errWidthExceedsCap(maxLen, cap int) error {
	return &reconcileError{msg: "widened width exceeds configured cap"}
}

func errNumericOverflow(dataType string) error {
	return &reconcileError{msg: "value out of range for " + dataType}
}
