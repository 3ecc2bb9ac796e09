package config

import "errors"

// Configuration validation errors returned by Config.Validate.
//
// Design decision: Package-level sentinels let callers use errors.Is while the
// messages stay human-readable.
var (
	// ErrInvalidTimeout is returned when the per-fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidWorkers is returned when the worker pool size is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidMaxAttempts is returned when the attempt budget is not positive.
	ErrInvalidMaxAttempts = errors.New("invalid max attempts: must be positive")

	// ErrInvalidRetryDelay is returned when the retry delay is negative.
	ErrInvalidRetryDelay = errors.New("invalid retry delay: must be non-negative")

	// ErrInvalidRate is returned when the request rate is negative.
	ErrInvalidRate = errors.New("invalid requests per second: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidLimit is returned when max pages or max depth is negative.
	ErrInvalidLimit = errors.New("invalid crawl limit: max pages and max depth must be non-negative")

	// ErrInvalidImageQuality is returned when the image quality is outside 1-100.
	ErrInvalidImageQuality = errors.New("invalid image quality: must be between 1 and 100")

	// ErrNoWorkDir is returned when no artifact work directory is configured.
	ErrNoWorkDir = errors.New("no work directory configured")

	// ErrInvalidJobConcurrency is returned when the job concurrency is not positive.
	ErrInvalidJobConcurrency = errors.New("invalid job concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown are set.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrUnsupportedDomain is returned when no upload destination is mapped for a domain.
	ErrUnsupportedDomain = errors.New("unsupported domain")

	// ErrInvalidDestination is returned when a destination has no endpoint.
	ErrInvalidDestination = errors.New("invalid destination: endpoint is required")
)
