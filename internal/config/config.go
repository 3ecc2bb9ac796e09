package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultTimeout bounds a single fetch attempt. There is no timeout on the
	// crawl as a whole.
	DefaultTimeout = 10 * time.Second

	// DefaultWorkers is the size of the per-wave worker pool.
	DefaultWorkers = 10

	// DefaultMaxAttempts is the total number of fetch attempts per location.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the fixed wait between fetch attempts.
	DefaultRetryDelay = 2 * time.Second

	// DefaultRequestsPerSecond of 0 disables the politeness limiter.
	DefaultRequestsPerSecond = 0

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultUserAgent is a desktop browser User-Agent. Many sites serve
	// reduced or challenge pages to unknown agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"

	// DefaultImageQuality is the JPEG quality used when re-encoding images.
	DefaultImageQuality = 30

	// DefaultListenAddress is the address the submission API binds to.
	DefaultListenAddress = ":8080"

	// DefaultJobConcurrency is the number of jobs the server runs at once.
	DefaultJobConcurrency = 2

	// AppName is the application name used for XDG directory paths.
	AppName = "pagebinder"
)

// Config holds all runtime options for pagebinder.
// It is populated from CLI flags and passed down explicitly; nothing reads
// global state.
//
// Design decision: We keep a single flat struct, as the number of options is
// manageable. Per-site knobs (cookies, headers, patterns) live in File instead
// because they are keyed by host.
type Config struct {
	// Timeout is the per-fetch timeout.
	Timeout time.Duration

	// Workers is the number of concurrent fetches within one wave.
	Workers int

	// MaxAttempts is the total number of attempts per location, including the first.
	MaxAttempts int

	// RetryDelay is the fixed delay between attempts.
	RetryDelay time.Duration

	// RequestsPerSecond throttles fetches across all workers. 0 disables it.
	RequestsPerSecond float64

	// MaxBodySize is the maximum number of response bytes read per page.
	MaxBodySize int64

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxPages caps the number of fetched locations. 0 means unlimited.
	MaxPages int

	// MaxDepth caps the number of waves after the base location. 0 means unlimited.
	MaxDepth int

	// ImageQuality is the JPEG quality (1-100) used by the size reducer.
	ImageQuality int

	// WorkDir is the root under which each job gets its own artifact directory.
	WorkDir string

	// DBDir is the directory of the job ledger. Empty disables the ledger.
	DBDir string

	// ListenAddress is the bind address for `pagebinder serve`.
	ListenAddress string

	// JobConcurrency is the number of jobs the server runs at once.
	JobConcurrency int

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the explicit configuration file path, if any.
	ConfigFilePath string

	// Settings holds the loaded configuration file. It is never nil after
	// the CLI has resolved configuration.
	Settings *File

	// JSONReport and MarkdownReport select the job summary format.
	// They are mutually exclusive.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile writes the job summary to a file instead of stdout.
	ReportFile string
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor instead of zero values because most
// defaults are non-zero. This also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:           DefaultTimeout,
		Workers:           DefaultWorkers,
		MaxAttempts:       DefaultMaxAttempts,
		RetryDelay:        DefaultRetryDelay,
		RequestsPerSecond: DefaultRequestsPerSecond,
		MaxBodySize:       DefaultMaxBodySize,
		UserAgent:         DefaultUserAgent,
		ImageQuality:      DefaultImageQuality,
		WorkDir:           XDGJobsDir(),
		DBDir:             XDGDataDir(),
		ListenAddress:     DefaultListenAddress,
		JobConcurrency:    DefaultJobConcurrency,
		Settings:          NewFile(),
	}
}

// XDGDataDir returns the XDG data directory for pagebinder.
// On Linux: ~/.local/share/pagebinder
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pagebinder.
// On Linux: ~/.config/pagebinder
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for pagebinder.
// On Linux: ~/.cache/pagebinder
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// XDGJobsDir returns the default root for per-job artifact directories.
func XDGJobsDir() string {
	return filepath.Join(XDGCacheDir(), "jobs")
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	if c.RetryDelay < 0 {
		return ErrInvalidRetryDelay
	}

	if c.RequestsPerSecond < 0 {
		return ErrInvalidRate
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.MaxPages < 0 || c.MaxDepth < 0 {
		return ErrInvalidLimit
	}

	if c.ImageQuality < 1 || c.ImageQuality > 100 {
		return ErrInvalidImageQuality
	}

	if c.WorkDir == "" {
		return ErrNoWorkDir
	}

	if c.JobConcurrency <= 0 {
		return ErrInvalidJobConcurrency
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
