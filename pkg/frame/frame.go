package frame

import (
	"fmt"
	"time"
)

// Type identifies a column's logical type.
type Type string

const (
	TypeInt64   Type = "int64"
	TypeFloat64 Type = "float64"
	TypeString  Type = "string"
	TypeBool    Type = "bool"
	TypeTime    Type = "time"
)

// Column is a single named, typed, nullable vector of values.
type Column struct {
	Name string
	Typ  Type

	Int64s   []int64
	Float64s []float64
	Strings  []string
	Bools    []bool
	Times    []time.Time

	Null []bool
}

// NewColumn allocates a column of the given type with n rows, all null.
func NewColumn(name string, typ Type, n int) Column {
	c := Column{Name: name, Typ: typ, Null: make([]bool, n)}
	switch typ {
	case TypeInt64:
		c.Int64s = make([]int64, n)
	case TypeFloat64:
		c.Float64s = make([]float64, n)
	case TypeString:
		c.Strings = make([]string, n)
	case TypeBool:
		c.Bools = make([]bool, n)
	case TypeTime:
		c.Times = make([]time.Time, n)
	}
	for i := range c.Null {
		c.Null[i] = true
	}
	return c
}

// Len returns the column's row count.
func (c Column) Len() int { return len(c.Null) }

// IsNull reports whether row i is null.
func (c Column) IsNull(i int) bool { return c.Null[i] }

// Frame is an ordered, immutable set of equal-length columns.
type Frame struct {
	columns []Column
	rows    int
}

// New builds a Frame from columns, validating equal row counts.
func New(columns []Column) (*Frame, error) {
	if len(columns) == 0 {
		return &Frame{}, nil
	}
	rows := columns[0].Len()
	for _, c := range columns {
		if c.Len() != rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name, c.Len(), rows)
		}
	}
	return &Frame{columns: columns, rows: rows}, nil
}

// Rows returns the number of rows in the frame.
func (f *Frame) Rows() int { return f.rows }

// Columns returns the frame's columns in order.
func (f *Frame) Columns() []Column { return f.columns }

// ColumnNames returns the frame's column names in order.
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column, or false if absent.
func (f *Frame) Column(name string) (Column, bool) {
	for _, c := range f.columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// HasColumn reports whether name exists in the frame.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.Column(name)
	return ok
}

// WithColumn returns a new Frame with col appended (or replacing an
// existing column of the same name), leaving the receiver untouched.
func (f *Frame) WithColumn(col Column) (*Frame, error) {
	if f.rows != 0 && col.Len() != f.rows {
		return nil, fmt.Errorf("column %q has %d rows, frame has %d", col.Name, col.Len(), f.rows)
	}
	cols := make([]Column, 0, len(f.columns)+1)
	replaced := false
	for _, c := range f.columns {
		if c.Name == col.Name {
			cols = append(cols, col)
			replaced = true
			continue
		}
		cols = append(cols, c)
	}
	if !replaced {
		cols = append(cols, col)
	}
	rows := f.rows
	if rows == 0 {
		rows = col.Len()
	}
	return &Frame{columns: cols, rows: rows}, nil
}

// WithoutColumn returns a new Frame with the named column removed.
func (f *Frame) WithoutColumn(name string) *Frame {
	cols := make([]Column, 0, len(f.columns))
	for _, c := range f.columns {
		if c.Name != name {
			cols = append(cols, c)
		}
	}
	return &Frame{columns: cols, rows: f.rows}
}

// Project returns a new Frame whose columns are reordered (and possibly
// narrowed) to match order exactly. Every name in order must exist in f.
// This is the sole place column reordering happens in the engine —
// pkg/loadcheck.Reconcile calls it last, after all widening and type
// checks, so the caller never serializes an un-reordered frame.
func Project(f *Frame, order []string) (*Frame, error) {
	cols := make([]Column, 0, len(order))
	for _, name := range order {
		c, ok := f.Column(name)
		if !ok {
			return nil, fmt.Errorf("project: column %q not present in frame", name)
		}
		cols = append(cols, c)
	}
	return &Frame{columns: cols, rows: f.rows}, nil
}

// ChunkDescriptor identifies one contiguous slice of rows.
type ChunkDescriptor struct {
	Start, End int
	Ordinal    int
}

// Chunks splits a frame's row range into fixed-size chunks in order.
func Chunks(f *Frame, size int) []ChunkDescriptor {
	if size <= 0 {
		size = f.rows
	}
	var chunks []ChunkDescriptor
	ordinal := 0
	for start := 0; start < f.rows; start += size {
		end := start + size
		if end > f.rows {
			end = f.rows
		}
		chunks = append(chunks, ChunkDescriptor{Start: start, End: end, Ordinal: ordinal})
		ordinal++
	}
	if len(chunks) == 0 {
		chunks = append(chunks, ChunkDescriptor{Start: 0, End: 0, Ordinal: 0})
	}
	return chunks
}

// Slice returns a new Frame containing only rows [start, end) of f.
func Slice(f *Frame, start, end int) *Frame {
	cols := make([]Column, len(f.columns))
	for i, c := range f.columns {
		cols[i] = sliceColumn(c, start, end)
	}
	return &Frame{columns: cols, rows: end - start}
}

func sliceColumn(c Column, start, end int) Column {
	out := Column{Name: c.Name, Typ: c.Typ, Null: append([]bool(nil), c.Null[start:end]...)}
	switch c.Typ {
	case TypeInt64:
		out.Int64s = append([]int64(nil), c.Int64s[start:end]...)
	case TypeFloat64:
		out.Float64s = append([]float64(nil), c.Float64s[start:end]...)
	case TypeString:
		out.Strings = append([]string(nil), c.Strings[start:end]...)
	case TypeBool:
		out.Bools = append([]bool(nil), c.Bools[start:end]...)
	case TypeTime:
		out.Times = append([]time.Time(nil), c.Times[start:end]...)
	}
	return out
}

// FilterRows returns a new Frame keeping only the rows where keep[i] is true.
func FilterRows(f *Frame, keep []bool) *Frame {
	cols := make([]Column, len(f.columns))
	for ci, c := range f.columns {
		out := Column{Name: c.Name, Typ: c.Typ}
		for i, k := range keep {
			if !k {
				continue
			}
			out.Null = append(out.Null, c.Null[i])
			switch c.Typ {
			case TypeInt64:
				out.Int64s = append(out.Int64s, c.Int64s[i])
			case TypeFloat64:
				out.Float64s = append(out.Float64s, c.Float64s[i])
			case TypeString:
				out.Strings = append(out.Strings, c.Strings[i])
			case TypeBool:
				out.Bools = append(out.Bools, c.Bools[i])
			case TypeTime:
				out.Times = append(out.Times, c.Times[i])
			}
		}
		cols[ci] = out
	}
	rows := 0
	for _, k := range keep {
		if k {
			rows++
		}
	}
	return &Frame{columns: cols, rows: rows}
}

// Concat stacks frames row-wise into one, in the order given. All
// frames must share the same column names and types; column order may
// differ across frames and the result takes the first frame's order.
// Used when a table's source directory holds more than one blob for a
// single run.
func Concat(frames []*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return &Frame{}, nil
	}
	first := frames[0]
	names := first.ColumnNames()
	out := make([]Column, len(names))
	for i, name := range names {
		c, _ := first.Column(name)
		out[i] = Column{Name: c.Name, Typ: c.Typ}
	}

	for _, f := range frames {
		for i, name := range names {
			c, ok := f.Column(name)
			if !ok {
				return nil, fmt.Errorf("concat: column %q missing from a source frame", name)
			}
			if c.Typ != out[i].Typ {
				return nil, fmt.Errorf("concat: column %q has mismatched types across frames", name)
			}
			out[i].Null = append(out[i].Null, c.Null...)
			switch c.Typ {
			case TypeInt64:
				out[i].Int64s = append(out[i].Int64s, c.Int64s...)
			case TypeFloat64:
				out[i].Float64s = append(out[i].Float64s, c.Float64s...)
			case TypeString:
				out[i].Strings = append(out[i].Strings, c.Strings...)
			case TypeBool:
				out[i].Bools = append(out[i].Bools, c.Bools...)
			case TypeTime:
				out[i].Times = append(out[i].Times, c.Times...)
			}
		}
	}

	rows := 0
	if len(out) > 0 {
		rows = out[0].Len()
	}
	return &Frame{columns: out, rows: rows}, nil
}
