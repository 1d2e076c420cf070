package bulkload

import (
	"bytes"
	"strconv"
	"time"

	"github.com/lakeforge/etl/pkg/frame"
)

// nullSentinel is StarRocks stream-load's textual NULL marker for the
// csv format.
const nullSentinel = `\N`

// SerializeChunk renders rows [start, end) of f as a single stream-load
// payload: one row per line, fields joined by sep, no header, no
// trailing separator. Column order is exactly f.Columns()' order — the
// caller (Loader.LoadTable) is responsible for having already projected
// f to the live schema's order via pkg/loadcheck.Reconcile.
func SerializeChunk(f *frame.Frame, start, end int, sep byte, rowDelim byte) []byte {
	cols := f.Columns()
	var buf bytes.Buffer
	for row := start; row < end; row++ {
		for ci, col := range cols {
			if ci > 0 {
				buf.WriteByte(sep)
			}
			buf.WriteString(fieldAt(col, row))
		}
		buf.WriteByte(rowDelim)
	}
	return buf.Bytes()
}

func fieldAt(c frame.Column, row int) string {
	if c.IsNull(row) {
		return nullSentinel
	}
	switch c.Typ {
	case frame.TypeInt64:
		return strconv.FormatInt(c.Int64s[row], 10)
	case frame.TypeFloat64:
		return strconv.FormatFloat(c.Float64s[row], 'f', -1, 64)
	case frame.TypeBool:
		if c.Bools[row] {
			return "1"
		}
		return "0"
	case frame.TypeTime:
		return c.Times[row].Format("2006-01-02 15:04:05")
	default:
		return c.Strings[row]
	}
}

// IdempotencyLabel derives the stream-load label spec.md §4.5.4
// requires: stable across retries of the same chunk, distinct across
// chunks/tables/tenants/days.
func IdempotencyLabel(tenantSlug, table string, chunkOrdinal int, wallClockDate time.Time) string {
	return tenantSlug + "_" + table + "_" + strconv.Itoa(chunkOrdinal) + "_" + wallClockDate.Format("20060102")
}
