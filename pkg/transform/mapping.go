package transform

import (
	"github.com/lakeforge/etl/pkg/frame"
	"github.com/lakeforge/etl/pkg/tenant"
)

// MappingSummary is the single observable line ApplyMapping reports,
// per spec's "never per-column logs" requirement.
type MappingSummary struct {
	Renamed int
	Added   int
	Dropped int
}

// ApplyMapping renames source columns to target names, drops source
// columns with no mapping entry, and adds typed-null columns for any
// target the mapping expects but the frame lacks.
func ApplyMapping(f *frame.Frame, mapping tenant.ColumnMapping) (*frame.Frame, MappingSummary, error) {
	var summary MappingSummary

	renamedCols := make([]frame.Column, 0, len(mapping.Rename))
	keepTargets := make(map[string]bool, len(mapping.Rename))

	for _, srcCol := range f.Columns() {
		target, ok := mapping.Rename[srcCol.Name]
		if !ok {
			summary.Dropped++
			continue
		}
		renamed := srcCol
		renamed.Name = target
		renamedCols = append(renamedCols, renamed)
		keepTargets[target] = true
		summary.Renamed++
	}

	rows := f.Rows()
	out, err := frame.New(renamedCols)
	if err != nil {
		return nil, summary, err
	}

	for target, logicalType := range mapping.Types {
		if keepTargets[target] {
			continue
		}
		typ, err := logicalTypeOf(logicalType)
		if err != nil {
			return nil, summary, &Error{Kind: KindUnknownType, Column: target, Err: err}
		}
		col := frame.NewColumn(target, typ, rows)
		out, err = out.WithColumn(col)
		if err != nil {
			return nil, summary, err
		}
		summary.Added++
	}

	return out, summary, nil
}
