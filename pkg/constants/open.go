package constants

import (
	"database/sql"
	"fmt"

	"github.com/lakeforge/etl/pkg/tenant"
)

// Open constructs the Backend a tenant's ConstantsConfig.Backend
// selects. sameDBPool is the tenant's already-open StarRocks control
// pool, used only by the "same_db" variant — callers not wiring that
// variant may pass nil.
//
// Credentials are read from ctx.Env using the tenant's
// BC_<uuid-prefix>_ prefix (spec.md §9), never from the YAML layer:
// BC_<prefix>_DSN for "sql", BC_<prefix>_PATH for "document".
func Open(ctx *tenant.TenantContext, sameDBPool *sql.DB) (Backend, error) {
	cfg := ctx.BusinessConstants
	switch cfg.Backend {
	case "sql", "":
		dsn := ctx.Env[cfg.EnvPrefix+"DSN"]
		if dsn == "" {
			return nil, &Error{Kind: KindConnect, Backend: "sql", Err: fmt.Errorf("missing %sDSN in tenant env", cfg.EnvPrefix)}
		}
		return NewSQLBackend(dsn, cfg.TableName)
	case "document":
		path := cfg.BucketPath
		if v, ok := ctx.Env[cfg.EnvPrefix+"PATH"]; ok && v != "" {
			path = v
		}
		if path == "" {
			return nil, &Error{Kind: KindConnect, Backend: "document", Err: fmt.Errorf("missing document backend path for tenant %s", ctx.Slug)}
		}
		return NewDocumentBackend(path)
	case "same_db":
		if sameDBPool == nil {
			return nil, &Error{Kind: KindConnect, Backend: "same_db", Err: fmt.Errorf("same_db backend requires an open StarRocks pool")}
		}
		return NewSameDBBackend(sameDBPool, cfg.TableName), nil
	default:
		return nil, &Error{Kind: KindUnsupported, Backend: cfg.Backend, Err: fmt.Errorf("unknown constants backend %q", cfg.Backend)}
	}
}
