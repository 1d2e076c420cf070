package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lakeforge/etl/pkg/blob"
	"github.com/lakeforge/etl/pkg/bulkload"
	"github.com/lakeforge/etl/pkg/constants"
	"github.com/lakeforge/etl/pkg/convert"
	"github.com/lakeforge/etl/pkg/frame"
	"github.com/lakeforge/etl/pkg/loadcheck"
	"github.com/lakeforge/etl/pkg/log"
	"github.com/lakeforge/etl/pkg/metrics"
	"github.com/lakeforge/etl/pkg/tenant"
	"github.com/lakeforge/etl/pkg/transform"
)

// Runner drives one tenant's tables through the bronze-to-silver-to-load
// pipeline. A Runner is built once per tenant run and is not shared
// across tenants — TenantPool owns that fan-out.
type Runner struct {
	Ctx        *tenant.TenantContext
	Blob       blob.Fetcher
	Downloader *blob.Downloader
	Loader     *bulkload.Loader
	Control    *bulkload.ControlPlane
	Constants  constants.Backend
	FetchLiveSchema func(ctx context.Context, database, table string) (loadcheck.LiveSchema, error)

	// WorkDir stages downloaded blobs before conversion; each run gets
	// its own subdirectory removed on completion.
	WorkDir string
}

// TableOutcome is the result of one RunTable call.
type TableOutcome struct {
	Table  string
	Stages []StageTransition
	Result bulkload.LoadResult
	Err    error
}

// LastStage returns the name of the last stage reached, or "" if none.
func (o TableOutcome) LastStage() Stage {
	if len(o.Stages) == 0 {
		return ""
	}
	return o.Stages[len(o.Stages)-1].Stage
}

func (r *Runner) record(stages []StageTransition, stage Stage, rows int) []StageTransition {
	return append(stages, StageTransition{Stage: stage, At: time.Now(), Rows: rows})
}

// RunTable runs one table through Discovered -> Downloaded -> Converted
// -> Transformed -> Validated -> Loaded. truncate forces a full refresh
// regardless of mode, for operator-triggered reloads.
func (r *Runner) RunTable(ctx context.Context, tableName string, mode tenant.LoadMode, truncate bool) (TableOutcome, error) {
	logger := log.WithTenant(r.Ctx.Slug).With().Str("table", tableName).Logger()
	outcome := TableOutcome{Table: tableName}

	schema, ok := r.Ctx.Tables[tableName]
	if !ok {
		err := &Error{Kind: KindUnknownTable, Table: tableName, Err: fmt.Errorf("no such table in tenant config")}
		outcome.Err = err
		return outcome, err
	}

	runDir, err := os.MkdirTemp(r.WorkDir, "run-*")
	if err != nil {
		outcome.Err = err
		return outcome, err
	}
	defer os.RemoveAll(runDir)

	// Discovered
	descriptors, err := r.Blob.List(ctx, schema.SourcePath)
	if err != nil {
		outcome.Err = err
		return outcome, err
	}
	// An empty blob set is not a failure: spec.md §8 has the table report
	// zero files and zero rows with a Success outcome, same as a
	// header-only source file. The rest of the pipeline already handles a
	// zero-row frame all the way through bulkload.Loader.LoadTable.
	outcome.Stages = r.record(outcome.Stages, StageDiscovered, 0)

	// Downloaded
	localPaths := make([]string, 0, len(descriptors))
	for i, d := range descriptors {
		path, err := r.Downloader.Download(ctx, r.Ctx.Slug, d, runDir)
		if err != nil {
			outcome.Err = err
			return outcome, err
		}
		localPaths = append(localPaths, path)
		metrics.BlobsDownloaded.WithLabelValues(r.Ctx.Slug, string(r.Ctx.StorageProvider)).Inc()
		if every := r.Ctx.Blob.ProgressEvery; every > 0 && (i+1)%every == 0 {
			logger.Info().Int("blobs_downloaded", i+1).Int("blobs_total", len(descriptors)).Msg("download progress")
		}
		if err := ctx.Err(); err != nil {
			outcome.Err = err
			return outcome, err
		}
	}
	outcome.Stages = r.record(outcome.Stages, StageDownloaded, 0)

	// Converted
	bronzeFrames := make([]*frame.Frame, 0, len(localPaths))
	for _, path := range localPaths {
		f, err := convert.Convert(path, schema.SourceFormat)
		if err != nil {
			outcome.Err = err
			return outcome, err
		}
		bronzeFrames = append(bronzeFrames, f)
	}
	bronze, err := frame.Concat(bronzeFrames)
	if err != nil {
		outcome.Err = err
		return outcome, err
	}
	metrics.RowsConverted.WithLabelValues(string(schema.SourceFormat)).Add(float64(bronze.Rows()))
	outcome.Stages = r.record(outcome.Stages, StageConverted, bronze.Rows())

	// Transformed
	silver, err := r.transform(bronze, schema)
	if err != nil {
		outcome.Err = err
		return outcome, err
	}
	outcome.Stages = r.record(outcome.Stages, StageTransformed, silver.Rows())

	// Validated (reconcile happens inside bulkload.Loader, but we fetch
	// the live schema here so the stage boundary is observable)
	live, err := r.FetchLiveSchema(ctx, r.Ctx.StarRocks.Database, tableName)
	if err != nil {
		outcome.Err = err
		return outcome, err
	}
	outcome.Stages = r.record(outcome.Stages, StageValidated, silver.Rows())

	effectiveMode := mode
	if truncate {
		effectiveMode = tenant.LoadModeFullRefresh
	}

	loadOpts := bulkload.Options{
		Table:           tableName,
		Database:        r.Ctx.StarRocks.Database,
		ColumnSeparator: r.Ctx.StarRocks.ColumnSeparator,
		ChunkRowSize:    r.Ctx.StarRocks.ChunkRowSize,
		MaxFilterRatio:  r.Ctx.StarRocks.MaxFilterRatio,
		TimeoutSeconds:  r.Ctx.StarRocks.TimeoutSeconds,
		TenantSlug:      r.Ctx.Slug,
		WallClockDate:   time.Now().UTC(),
	}

	result, err := r.Loader.LoadTable(ctx, silver, live, schema.Kind, effectiveMode, loadOpts)
	outcome.Result = result
	if err != nil {
		outcome.Err = err
		logger.Error().Err(err).Str("last_stage", string(outcome.LastStage())).Msg("table run failed")
		metrics.TableRunsTotal.WithLabelValues(string(outcome.LastStage()), "failure").Inc()
		return outcome, err
	}
	outcome.Stages = r.record(outcome.Stages, StageLoaded, int(result.RowsLoaded))
	metrics.TableRunsTotal.WithLabelValues(string(StageLoaded), "success").Inc()
	logger.Info().Int64("rows_loaded", result.RowsLoaded).Msg("table run complete")
	return outcome, nil
}

// transform runs the full mapping -> coercion -> computed columns ->
// filter sequence spec.md §4.4 orders.
func (r *Runner) transform(bronze *frame.Frame, schema *tenant.TableSchema) (*frame.Frame, error) {
	mapped, _, err := transform.ApplyMapping(bronze, schema.Mapping)
	if err != nil {
		return nil, err
	}
	coerced, err := transform.CoerceTypes(mapped, schema.Mapping)
	if err != nil {
		return nil, err
	}
	computed, err := transform.ApplyComputedColumns(coerced, schema.Computed, r.Ctx.LookupTables)
	if err != nil {
		return nil, err
	}
	filtered, dropped, err := transform.ApplyFilters(computed, schema.Filters)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		metrics.RowsFilteredTotal.WithLabelValues(r.Ctx.Slug, schema.Name).Add(float64(dropped))
	}
	return filtered, nil
}

// JobSpec names an ordered set of tables to run together as one job.
type JobSpec struct {
	Name           string
	Tables         []string
	Mode           tenant.LoadMode
	Truncate       bool
	ParallelTables bool
}

// JobOutcome aggregates every table's outcome for one job run.
type JobOutcome struct {
	Job      string
	PerTable map[string]TableOutcome
	Status   OutcomeStatus
}

// OutcomeStatus classifies a job's overall result.
type OutcomeStatus string

const (
	JobSuccess OutcomeStatus = "success"
	JobPartial OutcomeStatus = "partial"
	JobFailure OutcomeStatus = "failure"
)

// RunJob runs every table named in job, sequentially unless
// job.ParallelTables requests otherwise, and aggregates per-table
// outcomes. A job is "partial" when some but not all tables fail.
func (r *Runner) RunJob(ctx context.Context, job JobSpec) (JobOutcome, error) {
	start := time.Now()
	out := JobOutcome{Job: job.Name, PerTable: make(map[string]TableOutcome, len(job.Tables))}

	if job.ParallelTables {
		type tableResult struct {
			name    string
			outcome TableOutcome
		}
		results := make(chan tableResult, len(job.Tables))
		for _, t := range job.Tables {
			go func(name string) {
				o, _ := r.RunTable(ctx, name, job.Mode, job.Truncate)
				results <- tableResult{name: name, outcome: o}
			}(t)
		}
		for range job.Tables {
			res := <-results
			out.PerTable[res.name] = res.outcome
		}
	} else {
		for _, t := range job.Tables {
			o, _ := r.RunTable(ctx, t, job.Mode, job.Truncate)
			out.PerTable[t] = o
			if ctx.Err() != nil {
				break
			}
		}
	}

	succeeded, failed := 0, 0
	for _, o := range out.PerTable {
		if o.Err != nil {
			failed++
		} else {
			succeeded++
		}
	}
	switch {
	case failed == 0:
		out.Status = JobSuccess
	case succeeded == 0:
		out.Status = JobFailure
	default:
		out.Status = JobPartial
	}

	metrics.JobsTotal.WithLabelValues(job.Name, string(out.Status)).Inc()
	metrics.JobDuration.WithLabelValues(job.Name).Observe(time.Since(start).Seconds())
	log.WithJob(job.Name).Info().Str("tenant", r.Ctx.Slug).Str("status", string(out.Status)).
		Int("tables", len(job.Tables)).Msg("job run complete")

	if out.Status == JobFailure {
		return out, fmt.Errorf("pipeline: job %s failed for tenant %s", job.Name, r.Ctx.Slug)
	}
	return out, nil
}
