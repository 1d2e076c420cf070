package bulkload

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lakeforge/etl/pkg/frame"
	"github.com/lakeforge/etl/pkg/loadcheck"
	"github.com/lakeforge/etl/pkg/log"
	"github.com/lakeforge/etl/pkg/metrics"
	"github.com/lakeforge/etl/pkg/tenant"
)

// OutcomeStatus is the table-level result of one LoadTable call
// (spec.md §3 LoadResult).
type OutcomeStatus string

const (
	OutcomeSuccess        OutcomeStatus = "Success"
	OutcomeFailure        OutcomeStatus = "Failure"
	OutcomePartialSuccess OutcomeStatus = "PartialSuccess"
)

// LoadResult is the aggregated outcome of loading one table, across all
// of its chunks (spec.md §3).
type LoadResult struct {
	Status         OutcomeStatus
	RowsLoaded     int64
	RowsFiltered   int64
	RowsUnselected int64
	ErrorURL       string
	Message        string
}

// Options configures one LoadTable call.
type Options struct {
	Table           string
	Database        string
	ColumnSeparator byte
	ChunkRowSize    int
	MaxFilterRatio  float64
	TimeoutSeconds  int
	MaxAttempts     int
	MaxVarcharWidth int
	TenantSlug      string
	WallClockDate   time.Time // for idempotency labels; supplied by caller, never time.Now()
}

// controller is the narrow set of SQL control-plane operations Loader
// needs; *ControlPlane is the production implementation, hand-written
// fakes stand in for it in tests (matching the teacher's
// storage.Store interface pattern).
type controller interface {
	Truncate(ctx context.Context, table string) error
	WidenColumn(ctx context.Context, table, column string, newWidth int) error
}

// schemaRefetcher re-fetches a table's live column list, used only
// after a widening ALTER. Production code wraps loadcheck.FetchLiveSchema;
// tests supply a stub.
type schemaRefetcher func(ctx context.Context, database, table string) (loadcheck.LiveSchema, error)

// Loader drives the reconcile-widen-truncate-stream sequence spec.md
// §4.5 describes as the engine's critical path.
type Loader struct {
	Client  *Client
	Control controller
	Refetch schemaRefetcher

	mu      sync.Mutex
	widened map[string]map[string]bool // table -> column -> widened this run
}

// NewLoader constructs a Loader sharing one SQL pool for both control-
// plane operations and live-schema re-fetches.
func NewLoader(client *Client, control *ControlPlane, db *sql.DB) *Loader {
	return &Loader{
		Client:  client,
		Control: control,
		Refetch: func(ctx context.Context, database, table string) (loadcheck.LiveSchema, error) {
			return loadcheck.FetchLiveSchema(ctx, db, database, table)
		},
		widened: make(map[string]map[string]bool),
	}
}

// LoadTable reconciles f against live (widening and re-fetching as
// needed, at most once per column per Loader lifetime — see DESIGN.md
// decision #4), truncates first for {Dimension, FullRefresh}, then
// streams the reconciled frame in fixed-size chunks.
func (l *Loader) LoadTable(ctx context.Context, f *frame.Frame, live loadcheck.LiveSchema, kind tenant.TableKind, mode tenant.LoadMode, opts Options) (LoadResult, error) {
	logger := log.WithTenant(opts.TenantSlug)

	reconciled, err := l.reconcileWithWidening(ctx, f, live, opts)
	if err != nil {
		return LoadResult{Status: OutcomeFailure, Message: err.Error()}, err
	}

	if kind == tenant.KindDimension && mode == tenant.LoadModeFullRefresh {
		if err := l.Control.Truncate(ctx, opts.Table); err != nil {
			return LoadResult{Status: OutcomeFailure, Message: err.Error()}, err
		}
	}

	chunkSize := opts.ChunkRowSize
	if chunkSize <= 0 {
		chunkSize = 8192
	}
	chunks := frame.Chunks(reconciled, chunkSize)

	var totalLoaded, totalFiltered, totalUnselected int64
	var failed, succeeded int
	var lastErrURL, lastMessage string

	for _, desc := range chunks {
		if reconciled.Rows() == 0 {
			break // header-only / empty frame: zero chunks posted, per spec.md §8
		}
		if err := ctx.Err(); err != nil {
			return LoadResult{Status: OutcomeFailure, Message: "context canceled mid-load"}, err
		}

		payload := SerializeChunk(reconciled, desc.Start, desc.End, opts.ColumnSeparator, '\n')
		label := IdempotencyLabel(opts.TenantSlug, opts.Table, desc.Ordinal, opts.WallClockDate)

		result, err := l.postChunkWithRetry(ctx, payload, label, opts)
		if err != nil {
			failed++
			metrics.ChunksPosted.WithLabelValues(opts.TenantSlug, opts.Table, "fatal").Inc()
			logger.Error().Int("chunk", desc.Ordinal).Err(err).Msg("stream-load chunk failed")
			lastMessage = err.Error()
			break // a failed chunk aborts the remaining chunks of this table (spec.md §5)
		}

		succeeded++
		totalLoaded += result.RowsLoaded
		totalFiltered += result.RowsFiltered
		totalUnselected += result.RowsUnselected
		lastErrURL = result.ErrorURL
		lastMessage = result.Message
		metrics.ChunksPosted.WithLabelValues(opts.TenantSlug, opts.Table, "success").Inc()
		metrics.RowsLoaded.WithLabelValues(opts.TenantSlug, opts.Table).Add(float64(result.RowsLoaded))

		if desc.Ordinal%10 == 0 {
			logger.Info().Int("chunk", desc.Ordinal).Int64("rows_loaded", totalLoaded).Msg("stream-load progress")
		}
	}

	status := OutcomeSuccess
	if failed > 0 && succeeded > 0 {
		status = OutcomePartialSuccess
	} else if failed > 0 {
		status = OutcomeFailure
	}

	out := LoadResult{
		Status:         status,
		RowsLoaded:     totalLoaded,
		RowsFiltered:   totalFiltered,
		RowsUnselected: totalUnselected,
		ErrorURL:       lastErrURL,
		Message:        lastMessage,
	}

	logger.Info().Str("table", opts.Table).Int64("rows_loaded", out.RowsLoaded).
		Int64("rows_filtered", out.RowsFiltered).Str("status", string(status)).Msg("load summary")

	if status == OutcomeFailure {
		return out, &Error{Kind: KindStreamLoadFail, Table: opts.Table, ErrURL: lastErrURL, Message: lastMessage}
	}
	return out, nil
}

// reconcileWithWidening runs loadcheck.Reconcile, executing any
// requested ALTER and re-fetching the live schema, until Reconcile
// returns a ready-to-serialize frame. A column already widened once
// this Loader's lifetime that still overflows is a hard failure: the
// cap was exceeded by a value larger than the widened column allows.
func (l *Loader) reconcileWithWidening(ctx context.Context, f *frame.Frame, live loadcheck.LiveSchema, opts Options) (*frame.Frame, error) {
	reconcileOpts := loadcheck.Options{MaxVarcharWidth: opts.MaxVarcharWidth, TenantSlug: opts.TenantSlug}

	for {
		reconciled, widens, err := loadcheck.Reconcile(f, live, reconcileOpts)
		if err != nil {
			return nil, err
		}
		if len(widens) == 0 {
			return reconciled, nil
		}

		for _, w := range widens {
			if l.alreadyWidened(opts.Table, w.Column) {
				return nil, &Error{Kind: KindAlterFailed, Table: opts.Table,
					Err: fmt.Errorf("column %s still overflows after widening to %d this run", w.Column, w.NewWidth)}
			}
			if err := l.Control.WidenColumn(ctx, opts.Table, w.Column, w.NewWidth); err != nil {
				return nil, err
			}
			l.markWidened(opts.Table, w.Column)
			metrics.SchemaWidensTotal.WithLabelValues(opts.TenantSlug, opts.Table).Inc()
			log.WithTenant(opts.TenantSlug).Info().Str("column", w.Column).Int("new_width", w.NewWidth).
				Msg("widened varchar column")
		}

		refreshed, err := l.Refetch(ctx, opts.Database, opts.Table)
		if err != nil {
			return nil, err
		}
		live = refreshed
	}
}

func (l *Loader) alreadyWidened(table, column string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.widened[table] != nil && l.widened[table][column]
}

func (l *Loader) markWidened(table, column string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.widened[table] == nil {
		l.widened[table] = map[string]bool{}
	}
	l.widened[table][column] = true
}

// postChunkWithRetry posts one chunk, retrying retryable failures with
// bounded exponential backoff (2s -> 4s -> 8s per spec.md §4.5.4). A
// "Label Already Exists" response is treated as idempotent success
// since the label already encodes this exact (tenant, table, chunk,
// date) tuple — see DESIGN.md decision #3.
func (l *Loader) postChunkWithRetry(ctx context.Context, payload []byte, label string, opts Options) (chunkResult, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.Multiplier = 2
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	bo := backoff.WithMaxRetries(b, uint64(maxAttempts-1))
	bo = backoff.WithContext(bo, ctx)

	req := ChunkRequest{
		Database:        opts.Database,
		Table:           opts.Table,
		Label:           label,
		ColumnSeparator: opts.ColumnSeparator,
		Timeout:         opts.TimeoutSeconds,
		MaxFilterRatio:  opts.MaxFilterRatio,
		StrictMode:      false,
		Body:            payload,
	}
	if req.Timeout <= 0 {
		req.Timeout = 900
	}

	var result chunkResult
	operation := func() error {
		r, err := l.Client.PostChunk(ctx, req)
		if err != nil {
			return err
		}
		switch r.Status {
		case StatusSuccess, StatusLabelAlreadyExists:
			if opts.MaxFilterRatio <= 0 && r.RowsFiltered > 0 {
				return backoff.Permanent(&Error{Kind: KindFilterRatio, Table: opts.Table,
					Message: fmt.Sprintf("%d rows filtered at strict max_filter_ratio=0.0", r.RowsFiltered)})
			}
			result = r
			return nil
		case StatusPublishTimeout:
			metrics.LoadRetriesTotal.Inc()
			return &Error{Kind: KindStreamLoadTimeout, Table: opts.Table, Message: r.Message}
		default:
			return backoff.Permanent(&Error{Kind: KindStreamLoadFail, Table: opts.Table, ErrURL: r.ErrorURL, Message: r.Message})
		}
	}

	if err := backoff.Retry(operation, bo); err != nil {
		return chunkResult{}, err
	}
	return result, nil
}
