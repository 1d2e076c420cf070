package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/go-sql-driver/mysql"

	"github.com/lakeforge/etl/pkg/metrics"
	"github.com/lakeforge/etl/pkg/tenant"
)

// DBPool owns one *sql.DB per tenant, sized from StarRocksConfig and
// pre-pinged on acquisition, since database/sql pools connections
// lazily and a dead pool member otherwise only surfaces on first query.
type DBPool struct {
	mu    sync.Mutex
	pools map[string]*sql.DB
}

// NewDBPool constructs an empty pool registry.
func NewDBPool() *DBPool {
	return &DBPool{pools: make(map[string]*sql.DB)}
}

// Acquire returns the tenant's pool, opening and pre-pinging it on
// first use. DSN follows go-sql-driver/mysql's format, matching
// StarRocks's MySQL-compatible query port.
func (p *DBPool) Acquire(ctx context.Context, t *tenant.TenantContext) (*sql.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if db, ok := p.pools[t.Slug]; ok {
		return db, nil
	}

	dsn := t.Env["STARROCKS_DSN"]
	if dsn == "" {
		dsn = fmt.Sprintf("tcp(%s:%d)/%s", t.StarRocks.Host, t.StarRocks.QueryPort, t.StarRocks.Database)
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("pipeline: open db pool for %s: %w", t.Slug, err)
	}

	maxOpen := t.StarRocks.ConnMaxOpen
	if maxOpen <= 0 {
		maxOpen = 4
	}
	maxIdle := t.StarRocks.ConnMaxIdle
	if maxIdle <= 0 {
		maxIdle = maxOpen
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(t.StarRocks.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pipeline: pre-ping db pool for %s: %w", t.Slug, err)
	}

	p.pools[t.Slug] = db
	return db, nil
}

// Close closes every open pool.
func (p *DBPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for slug, db := range p.pools {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("pipeline: close db pool for %s: %w", slug, err)
		}
	}
	return firstErr
}

// PoolStats implements metrics.PoolStatsSource, reporting each tenant's
// current open-connection count for the DBConnPoolOpen gauge.
func (p *DBPool) PoolStats() []metrics.PoolStat {
	p.mu.Lock()
	defer p.mu.Unlock()
	stats := make([]metrics.PoolStat, 0, len(p.pools))
	for slug, db := range p.pools {
		stats = append(stats, metrics.PoolStat{Tenant: slug, Open: db.Stats().OpenConnections})
	}
	return stats
}
