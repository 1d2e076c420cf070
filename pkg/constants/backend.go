package constants

import (
	"context"
	"iter"
)

// Backend is the narrow capability every constants variant implements.
type Backend interface {
	// Get returns a key's value. The bool is false when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// List returns every key/value pair whose key starts with prefix.
	List(ctx context.Context, prefix string) (iter.Seq2[string, string], error)

	// Close releases any resources the backend holds open.
	Close() error
}

// ErrorKind classifies a constants-backend failure.
type ErrorKind string

const (
	KindConnect     ErrorKind = "connect"
	KindQuery       ErrorKind = "query"
	KindUnsupported ErrorKind = "unsupported_backend"
)

// Error is the tagged error type returned by this package.
type Error struct {
	Kind    ErrorKind
	Backend string
	Err     error
}

func (e *Error) Error() string {
	return "constants: " + string(e.Kind) + " (" + e.Backend + "): " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
