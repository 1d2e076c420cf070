package convert

import (
	"path/filepath"
	"strings"

	"github.com/lakeforge/etl/pkg/frame"
	"github.com/lakeforge/etl/pkg/tenant"
)

// Convert dispatches on format and converts srcPath into a bronze-layer
// Frame with no semantic transformation: column names are preserved
// verbatim and types come from the source where the source carries
// type information, string otherwise.
func Convert(srcPath string, format tenant.SourceFormat) (*frame.Frame, error) {
	switch format {
	case tenant.FormatCSV:
		return convertCSV(srcPath)
	case tenant.FormatExcel:
		return convertExcel(srcPath)
	case tenant.FormatParquet:
		return convertParquet(srcPath)
	default:
		return nil, &Error{Kind: KindUnsupportedFormat, Path: srcPath, Row: -1, Err: errFormat(format)}
	}
}

func errFormat(format tenant.SourceFormat) error {
	return &unsupportedFormatErr{format: string(format)}
}

type unsupportedFormatErr struct{ format string }

func (e *unsupportedFormatErr) Error() string { return "unsupported source format: " + e.format }

// BronzePath computes the raw/ destination path for a converted file:
// same relative name as the source, with its suffix replaced by the
// canonical ".bronze" marker. It only computes the name: Convert returns
// an in-memory Frame and never writes to disk, pipeline.Runner passes
// that Frame straight to the transform stage, and no code in this module
// writes a converted file into raw/ or calls BronzePath.
func BronzePath(rawDir, srcPath string) string {
	base := filepath.Base(srcPath)
	ext := filepath.Ext(base)
	base = strings.TrimSuffix(base, ext)
	return filepath.Join(rawDir, base+".bronze")
}
