package constants

import (
	"context"
	"database/sql"
	"fmt"
	"iter"

	_ "github.com/go-sql-driver/mysql"
)

// SQLBackend reads business_constants(key, value, updated_at) from a
// dedicated relational database, separate from the tenant's OLAP
// cluster, over the MySQL wire protocol (StarRocks-compatible driver
// reused here since no other SQL driver appears in the retrieval pack).
type SQLBackend struct {
	db    *sql.DB
	table string
}

// NewSQLBackend opens a connection pool against dsn and targets table
// for key lookups.
func NewSQLBackend(dsn, table string) (*SQLBackend, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, &Error{Kind: KindConnect, Backend: "sql", Err: err}
	}
	if table == "" {
		table = "business_constants"
	}
	return &SQLBackend{db: db, table: table}, nil
}

func (b *SQLBackend) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	query := fmt.Sprintf("SELECT value FROM %s WHERE `key` = ?", b.table)
	err := b.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, &Error{Kind: KindQuery, Backend: "sql", Err: err}
	}
	return value, true, nil
}

func (b *SQLBackend) List(ctx context.Context, prefix string) (iter.Seq2[string, string], error) {
	query := fmt.Sprintf("SELECT `key`, value FROM %s WHERE `key` LIKE ?", b.table)
	rows, err := b.db.QueryContext(ctx, query, prefix+"%")
	if err != nil {
		return nil, &Error{Kind: KindQuery, Backend: "sql", Err: err}
	}
	return func(yield func(string, string) bool) {
		defer rows.Close()
		for rows.Next() {
			var k, v string
			if rows.Scan(&k, &v) != nil {
				return
			}
			if !yield(k, v) {
				return
			}
		}
	}, nil
}

func (b *SQLBackend) Close() error { return b.db.Close() }

var _ Backend = (*SQLBackend)(nil)
