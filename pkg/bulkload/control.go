package bulkload

import (
	"context"
	"database/sql"
	"fmt"
)

// ControlPlane wraps the SQL connection used for DDL/truncate/ALTER
// operations the loader issues around a stream-load run, over the same
// database/sql + go-sql-driver/mysql pool pkg/loadcheck uses for schema
// fetch (spec.md §6.3).
type ControlPlane struct {
	DB       *sql.DB
	Database string
}

// Truncate issues TRUNCATE TABLE for a full-refresh dimension load.
// Per spec.md §4.5.5/§8, failure here must abort the whole load with no
// partial state — callers must not proceed to insert any chunk.
func (c *ControlPlane) Truncate(ctx context.Context, table string) error {
	_, err := c.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE `%s`.`%s`", c.Database, table))
	if err != nil {
		return &Error{Kind: KindTruncateFailed, Table: table, Err: err}
	}
	return nil
}

// WidenColumn issues ALTER TABLE ... MODIFY COLUMN to grow a varchar
// column's declared width, per spec.md §4.5.2's auto-widening rule.
func (c *ControlPlane) WidenColumn(ctx context.Context, table, column string, newWidth int) error {
	stmt := fmt.Sprintf("ALTER TABLE `%s`.`%s` MODIFY COLUMN `%s` VARCHAR(%d)", c.Database, table, column, newWidth)
	_, err := c.DB.ExecContext(ctx, stmt)
	if err != nil {
		return &Error{Kind: KindAlterFailed, Table: table, Err: err}
	}
	return nil
}

// RowCount runs SELECT COUNT(*) for verification (spec.md §6.3).
func (c *ControlPlane) RowCount(ctx context.Context, table string) (int64, error) {
	var n int64
	row := c.DB.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM `%s`.`%s`", c.Database, table))
	if err := row.Scan(&n); err != nil {
		return 0, &Error{Kind: KindTruncateFailed, Table: table, Err: err}
	}
	return n, nil
}
