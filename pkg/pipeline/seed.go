package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lakeforge/etl/pkg/bulkload"
	"github.com/lakeforge/etl/pkg/convert"
	"github.com/lakeforge/etl/pkg/frame"
	"github.com/lakeforge/etl/pkg/log"
	"github.com/lakeforge/etl/pkg/tenant"
)

// SeedLoad loads <table>.csv files found directly in seedDir via
// INSERT, skipping the stream-load HTTP path entirely — seed files are
// small reference data (lookup/dimension bootstrap rows), not the bulk
// volumes stream-load exists for (spec.md §6.3). Each seed file's table
// name (its basename without extension) must match a table already
// configured for the tenant; that table's own column mapping and
// computed-column rules run unchanged, so a seed file uses the exact
// column names its source format declares. table selects one seed file
// by table name; an empty table loads every *.csv file in seedDir
// (spec.md §6.6 "seed_load(tenant, table?)").
func (r *Runner) SeedLoad(ctx context.Context, seedDir string, table string) (JobOutcome, error) {
	var matches []string
	if table != "" {
		path := filepath.Join(seedDir, table+".csv")
		if _, err := os.Stat(path); err != nil {
			return JobOutcome{}, fmt.Errorf("pipeline: seed file for table %s: %w", table, err)
		}
		matches = []string{path}
	} else {
		var err error
		matches, err = filepath.Glob(filepath.Join(seedDir, "*.csv"))
		if err != nil {
			return JobOutcome{}, fmt.Errorf("pipeline: glob seed dir %s: %w", seedDir, err)
		}
	}

	out := JobOutcome{Job: "seed_load", PerTable: make(map[string]TableOutcome, len(matches))}
	succeeded, failed := 0, 0

	for _, path := range matches {
		tableName := strings.TrimSuffix(filepath.Base(path), ".csv")
		outcome, err := r.seedTable(ctx, tableName, path)
		out.PerTable[tableName] = outcome
		if err != nil {
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
	log.WithJob("seed_load").Info().Str("tenant", r.Ctx.Slug).Int("tables", len(matches)).
		Str("status", string(out.Status)).Msg("seed load complete")
	return out, nil
}

func (r *Runner) seedTable(ctx context.Context, table, path string) (TableOutcome, error) {
	outcome := TableOutcome{Table: table}

	schema, ok := r.Ctx.Tables[table]
	if !ok {
		err := &Error{Kind: KindUnknownTable, Table: table, Err: fmt.Errorf("seed file %s has no matching table config", path)}
		outcome.Err = err
		return outcome, err
	}

	bronze, err := convert.Convert(path, tenant.FormatCSV)
	if err != nil {
		outcome.Err = err
		return outcome, err
	}
	outcome.Stages = r.record(outcome.Stages, StageConverted, bronze.Rows())

	silver, err := r.transform(bronze, schema)
	if err != nil {
		outcome.Err = err
		return outcome, err
	}
	outcome.Stages = r.record(outcome.Stages, StageTransformed, silver.Rows())

	if err := insertRows(ctx, r.Control.DB, r.Ctx.StarRocks.Database, table, silver); err != nil {
		outcome.Err = err
		return outcome, err
	}
	outcome.Result.RowsLoaded = int64(silver.Rows())
	outcome.Result.Status = bulkload.OutcomeSuccess
	outcome.Stages = r.record(outcome.Stages, StageLoaded, silver.Rows())
	return outcome, nil
}

// insertRows issues one parameterized multi-row INSERT per call. Seed
// files are expected to be small enough that a single statement is
// fine; pipeline.Runner never chunks seed inserts the way bulkload
// chunks stream-load payloads.
func insertRows(ctx context.Context, db *sql.DB, database, table string, f *frame.Frame) error {
	if f.Rows() == 0 {
		return nil
	}
	names := f.ColumnNames()
	cols := f.Columns()

	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "`" + n + "`"
	}
	placeholderRow := "(" + strings.TrimSuffix(strings.Repeat("?,", len(names)), ",") + ")"

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO `%s`.`%s` (%s) VALUES ", database, table, strings.Join(quoted, ","))
	args := make([]any, 0, f.Rows()*len(names))
	for row := 0; row < f.Rows(); row++ {
		if row > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(placeholderRow)
		for _, c := range cols {
			args = append(args, sqlValueAt(c, row))
		}
	}

	_, err := db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return fmt.Errorf("pipeline: seed insert into %s: %w", table, err)
	}
	return nil
}

func sqlValueAt(c frame.Column, row int) any {
	if c.IsNull(row) {
		return nil
	}
	switch c.Typ {
	case frame.TypeInt64:
		return c.Int64s[row]
	case frame.TypeFloat64:
		return c.Float64s[row]
	case frame.TypeBool:
		return c.Bools[row]
	case frame.TypeTime:
		return c.Times[row]
	default:
		return c.Strings[row]
	}
}
