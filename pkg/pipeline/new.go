package pipeline

import (
	"context"
	"database/sql"

	"github.com/lakeforge/etl/pkg/blob"
	"github.com/lakeforge/etl/pkg/bulkload"
	"github.com/lakeforge/etl/pkg/constants"
	"github.com/lakeforge/etl/pkg/loadcheck"
	"github.com/lakeforge/etl/pkg/tenant"
)

// NewRunner assembles a Runner for one tenant from its already-open
// StarRocks control pool db. It opens the tenant's blob Fetcher and
// business-constants Backend via their respective factories.
func NewRunner(ctx context.Context, t *tenant.TenantContext, db *sql.DB, workDir string) (*Runner, error) {
	fetcher, err := blob.Open(ctx, t)
	if err != nil {
		return nil, err
	}
	downloader := blob.NewDownloader(fetcher, t.Blob.MaxAttempts)

	control := &bulkload.ControlPlane{DB: db, Database: t.StarRocks.Database}
	client := bulkload.NewClient(t.StarRocks.Host, t.StarRocks.HTTPPort, nil)
	loader := bulkload.NewLoader(client, control, db)

	var constBackend constants.Backend
	if t.BusinessConstants.Backend != "" {
		constBackend, err = constants.Open(t, db)
		if err != nil {
			return nil, err
		}
	}

	return &Runner{
		Ctx:        t,
		Blob:       fetcher,
		Downloader: downloader,
		Loader:     loader,
		Control:    control,
		Constants:  constBackend,
		FetchLiveSchema: func(ctx context.Context, database, table string) (loadcheck.LiveSchema, error) {
			return loadcheck.FetchLiveSchema(ctx, db, database, table)
		},
		WorkDir: workDir,
	}, nil
}
