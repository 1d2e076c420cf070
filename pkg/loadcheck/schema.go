package loadcheck

import (
	"context"
	"database/sql"
	"fmt"
)

// ColumnMeta is one column as reported by the live database schema.
type ColumnMeta struct {
	Name           string
	DataType       string // lower-cased: tinyint, int, bigint, decimal, varchar, datetime, ...
	Nullable       bool
	CharMaxLength  int // 0 when not a variable-width string type
	NumericPrec    int
	NumericScale   int
	OrdinalPos     int
}

// LiveSchema is the ordered column list of one table at the moment of
// fetch — the single source of truth for column order and width.
type LiveSchema struct {
	Table   string
	Columns []ColumnMeta
}

// ColumnOrder returns the schema's column names in DB-declared order.
func (s LiveSchema) ColumnOrder() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column's metadata, or false if absent.
func (s LiveSchema) Column(name string) (ColumnMeta, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnMeta{}, false
}

// FetchLiveSchema queries information_schema.columns for table's ordered
// column list and types, per spec.md §6.3's DESCRIBE-equivalent contract.
func FetchLiveSchema(ctx context.Context, db *sql.DB, database, table string) (LiveSchema, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT ordinal_position, column_name, data_type, is_nullable,
		       COALESCE(character_maximum_length, 0),
		       COALESCE(numeric_precision, 0), COALESCE(numeric_scale, 0)
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`, database, table)
	if err != nil {
		return LiveSchema{}, &Error{Kind: KindSchemaFetch, Table: table, Row: -1, Err: err}
	}
	defer rows.Close()

	var cols []ColumnMeta
	for rows.Next() {
		var c ColumnMeta
		var nullable string
		if err := rows.Scan(&c.OrdinalPos, &c.Name, &c.DataType, &nullable, &c.CharMaxLength, &c.NumericPrec, &c.NumericScale); err != nil {
			return LiveSchema{}, &Error{Kind: KindSchemaFetch, Table: table, Row: -1, Err: err}
		}
		c.Nullable = nullable == "YES"
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return LiveSchema{}, &Error{Kind: KindSchemaFetch, Table: table, Row: -1, Err: err}
	}
	if len(cols) == 0 {
		return LiveSchema{}, &Error{Kind: KindSchemaFetch, Table: table, Row: -1, Err: fmt.Errorf("table not found or has no columns")}
	}
	return LiveSchema{Table: table, Columns: cols}, nil
}
