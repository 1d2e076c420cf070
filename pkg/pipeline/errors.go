package pipeline

import "fmt"

// ErrorKind classifies a pipeline-level failure — one not already
// carried as a typed error from blob/convert/transform/loadcheck/bulkload.
type ErrorKind string

const (
	KindUnknownTable ErrorKind = "unknown_table"
	KindCheckpoint   ErrorKind = "checkpoint"
)

// Error is the tagged error type returned by this package.
type Error struct {
	Kind  ErrorKind
	Table string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pipeline: %s: table %s: %v", e.Kind, e.Table, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind ErrorKind) bool {
	pe, ok := err.(*Error)
	return ok && pe.Kind == kind
}
