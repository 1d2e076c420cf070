package constants

import (
	"context"
	"database/sql"
	"iter"
)

// SameDBBackend implements the "same-database" variant: a
// business_constants table living inside the tenant's own StarRocks
// database, queried over the connection pool pkg/pipeline already
// holds open for schema/control-plane queries. It does not own the
// *sql.DB it wraps and never closes it.
type SameDBBackend struct {
	db    *sql.DB
	table string
}

// NewSameDBBackend wraps an existing pool; table defaults to
// "business_constants".
func NewSameDBBackend(db *sql.DB, table string) *SameDBBackend {
	if table == "" {
		table = "business_constants"
	}
	return &SameDBBackend{db: db, table: table}
}

func (b *SameDBBackend) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := b.db.QueryRowContext(ctx, "SELECT value FROM "+b.table+" WHERE `key` = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, &Error{Kind: KindQuery, Backend: "same_db", Err: err}
	}
	return value, true, nil
}

func (b *SameDBBackend) List(ctx context.Context, prefix string) (iter.Seq2[string, string], error) {
	rows, err := b.db.QueryContext(ctx, "SELECT `key`, value FROM "+b.table+" WHERE `key` LIKE ?", prefix+"%")
	if err != nil {
		return nil, &Error{Kind: KindQuery, Backend: "same_db", Err: err}
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

// Close is a no-op: SameDBBackend never owns the pool it wraps.
func (b *SameDBBackend) Close() error { return nil }

var _ Backend = (*SameDBBackend)(nil)
