package crawler

import "errors"

var (
	// ErrInvalidBase is returned when the base location cannot be parsed or
	// is not http(s).
	ErrInvalidBase = errors.New("invalid base location")

	// ErrUnsupportedScheme is returned by Normalize for non-http(s) references.
	ErrUnsupportedScheme = errors.New("unsupported scheme")

	// ErrInvalidPattern is returned when a scope glob pattern does not compile.
	ErrInvalidPattern = errors.New("invalid scope pattern")
)
