package model

import (
	"time"

	"github.com/google/uuid"
)

// Job is one request to crawl a site and deliver the resulting document.
// The pipeline steps fill in the outcome fields as they run.
type Job struct {
	// ID uniquely identifies the job. It also namespaces the job's artifacts.
	ID string `json:"id"`

	// Target is the base location the crawl starts from.
	Target Location `json:"target"`

	// CorrelationToken is the opaque client-supplied token forwarded to the sink.
	CorrelationToken string `json:"ssa"`

	// SiteID is the optional destination-site identifier forwarded to the sink.
	SiteID string `json:"site_id,omitempty"`

	// Domain is the key used to resolve the upload destination.
	Domain string `json:"domain_name,omitempty"`

	// Status is the current lifecycle state.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was accepted.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the pipeline began executing.
	StartedAt time.Time `json:"started_at,omitzero"`

	// FinishedAt is when the job reached a terminal status.
	FinishedAt time.Time `json:"finished_at,omitzero"`

	// Records holds the crawl output. It is not persisted.
	Records []PageRecord `json:"-"`

	// Stats summarizes the crawl.
	Stats CrawlStats `json:"stats"`

	// RawPath is the synthesized document path while the job runs.
	RawPath string `json:"-"`

	// CompactPath is the size-reduced document path. It stays set after a
	// failed delivery, when the file is kept for inspection.
	CompactPath string `json:"compact_path,omitempty"`

	// RawSize and CompactSize are the artifact sizes in bytes.
	RawSize     int64 `json:"raw_size,omitempty"`
	CompactSize int64 `json:"compact_size,omitempty"`

	// ImagesReplaced counts the images the reducer re-encoded.
	ImagesReplaced int `json:"images_replaced,omitempty"`

	// SegmentsFailed counts text segments that could not be rendered.
	SegmentsFailed int `json:"segments_failed,omitempty"`

	// UploadStatus and UploadResponse carry the sink's answer.
	UploadStatus   int    `json:"upload_status,omitempty"`
	UploadResponse string `json:"upload_response,omitempty"`

	// Steps lists the pipeline steps that ran, in order.
	Steps []string `json:"steps,omitempty"`

	// FailedStep names the step that failed, if any.
	FailedStep string `json:"failed_step,omitempty"`

	// Error is the job-level failure, if any.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewJob creates a queued job with a fresh identifier.
func NewJob(target Location, correlationToken, siteID, domain string) *Job {
	return &Job{
		ID:               uuid.NewString(),
		Target:           target,
		CorrelationToken: correlationToken,
		SiteID:           siteID,
		Domain:           domain,
		Status:           JobQueued,
		CreatedAt:        time.Now().UTC(),
	}
}

// Fail records a job-level failure.
func (j *Job) Fail(err error) {
	j.Error = err
	if err != nil {
		j.ErrorMessage = err.Error()
	}
}

// Failed reports whether a job-level failure was recorded.
func (j *Job) Failed() bool {
	return j.Error != nil || j.ErrorMessage != ""
}

// Duration returns the time between start and finish, or zero if not finished.
func (j *Job) Duration() time.Duration {
	if j.StartedAt.IsZero() || j.FinishedAt.IsZero() {
		return 0
	}
	return j.FinishedAt.Sub(j.StartedAt)
}
