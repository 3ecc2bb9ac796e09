package upload

import (
	"context"
	"errors"
)

// ErrUploadFailed is returned when the destination answers with a non-2xx status.
var ErrUploadFailed = errors.New("upload failed")

// ErrNoEndpoint is returned by NewHTTPSink when no endpoint is given.
var ErrNoEndpoint = errors.New("upload endpoint is required")

// Delivery is one document to hand off.
type Delivery struct {
	// Path is the compact document on disk.
	Path string

	// CorrelationToken is the client token echoed to the destination.
	CorrelationToken string

	// SiteID identifies the destination site. It may be empty.
	SiteID string
}

// Receipt is what the destination answered.
type Receipt struct {
	// StatusCode is the HTTP status, or 0 for local sinks.
	StatusCode int `json:"status_code,omitempty"`

	// Body is the response body, or the written path for local sinks.
	Body string `json:"body"`
}

// Sink delivers documents.
type Sink interface {
	Deliver(ctx context.Context, d Delivery) (*Receipt, error)
}
