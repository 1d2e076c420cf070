package config

import "fmt"

// ErrorKind classifies a configuration failure for retry/fatal routing
// upstream in pkg/pipeline.
type ErrorKind string

const (
	KindMissingFile    ErrorKind = "missing_file"
	KindInvalidYAML    ErrorKind = "invalid_yaml"
	KindUnknownKey     ErrorKind = "unknown_key"
	KindSecretInYAML   ErrorKind = "secret_in_yaml"
	KindMissingField   ErrorKind = "missing_field"
	KindUnknownTenant  ErrorKind = "unknown_tenant"
	KindUnknownTable   ErrorKind = "unknown_table"
	KindSecretCache    ErrorKind = "secret_cache"
)

// Error is the tagged configuration error type returned by this package.
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config: %s (%s): %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("config: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether err is a config.Error of the given kind.
func Is(err error, kind ErrorKind) bool {
	var ce *Error
	for err != nil {
		if c, ok := err.(*Error); ok {
			ce = c
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ce != nil && ce.Kind == kind
}

func newErr(kind ErrorKind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}
