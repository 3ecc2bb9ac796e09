package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedStatus is wrapped by errors for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected status code")

	// ErrInvalidLocation is returned when a request cannot be built for a location.
	ErrInvalidLocation = errors.New("invalid location")
)

// Kind classifies a fetch failure.
type Kind int

const (
	// KindTransient covers timeouts, connection errors, 5xx and 429 responses.
	KindTransient Kind = iota

	// KindPermanent covers 4xx responses and requests that cannot be built.
	KindPermanent
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Error is a classified fetch failure.
type Error struct {
	// Location is the address that failed.
	Location string

	// Attempts is how many attempts were made. A single HTTPFetcher call reports 1.
	Attempts int

	// Kind is the failure class of the last attempt.
	Kind Kind

	// StatusCode is the HTTP status of the last attempt, 0 when no response was received.
	StatusCode int

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s failed after %d attempt(s): status %d: %v", e.Location, e.Attempts, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.Location, e.Attempts, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Temporary reports whether the failure is transient.
func (e *Error) Temporary() bool {
	return e.Kind == KindTransient
}

// classifyStatus returns the failure kind for a non-2xx status.
func classifyStatus(code int) Kind {
	if code == 429 || code >= 500 {
		return KindTransient
	}
	return KindPermanent
}
