package report

import (
	"io"

	"github.com/nao1215/pagebinder/internal/model"
)

// Writer defines the interface for report output.
// Implementations write job summaries in various formats.
type Writer interface {
	// Write outputs the job summary to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(job *model.Job) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the job to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(job *model.Job) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(job)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText is the one-line outcome shared by the text formats.
func statusText(job *model.Job) string {
	switch {
	case job.Failed() && job.FailedStep != "":
		return "FAILED at " + job.FailedStep + " - " + job.ErrorMessage
	case job.Failed():
		return "FAILED - " + job.ErrorMessage
	case job.Status == model.JobSucceeded:
		return "Delivered"
	default:
		return job.Status.String()
	}
}

type outcomeCount struct {
	label string
	n     int
}

// outcomeCounts lists crawl outcome counts in a fixed order.
func outcomeCounts(s model.CrawlStats) []outcomeCount {
	return []outcomeCount{
		{"Recorded", s.Recorded},
		{"Empty", s.Empty},
		{"Challenged", s.Challenged},
		{"Fetch failed", s.FetchFailed},
		{"Parse failed", s.ParseFailed},
		{"Links out of scope", s.OutOfScope},
	}
}
