package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/pagebinder/internal/model"
)

// SimpleWriter outputs human-readable text summaries for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors so the output pipes cleanly to files or other tools.
type SimpleWriter struct {
	baseWriter

	// verbose adds the steps and the full upload response.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the job summary in human-readable format.
func (w *SimpleWriter) Write(job *model.Job) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, job)
	w.writeCrawl(&sb, job)
	w.writeDocument(&sb, job)
	w.writeDelivery(&sb, job)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

func rule(sb *strings.Builder, c string) {
	sb.WriteString(strings.Repeat(c, 70))
	sb.WriteString("\n")
}

func section(sb *strings.Builder, title string) {
	rule(sb, "-")
	sb.WriteString(title + "\n")
	rule(sb, "-")
	sb.WriteString("\n")
}

// writeHeader writes the job identity and status.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, job *model.Job) {
	sb.WriteString("\n")
	rule(sb, "=")
	sb.WriteString("                        PAGEBINDER JOB SUMMARY\n")
	rule(sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(sb, "Job:      %s\n", job.ID)
	fmt.Fprintf(sb, "Target:   %s\n", job.Target)
	if job.SiteID != "" {
		fmt.Fprintf(sb, "Site ID:  %s\n", job.SiteID)
	}
	fmt.Fprintf(sb, "Created:  %s\n", job.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if d := job.Duration(); d > 0 {
		fmt.Fprintf(sb, "Elapsed:  %s\n", d.Round(1e6))
	}
	fmt.Fprintf(sb, "Status:   %s\n", statusText(job))
	sb.WriteString("\n")
}

// writeCrawl writes the crawl outcome counts.
func (w *SimpleWriter) writeCrawl(sb *strings.Builder, job *model.Job) {
	section(sb, "CRAWL")
	fmt.Fprintf(sb, "  Waves:              %d\n", job.Stats.Waves)
	fmt.Fprintf(sb, "  Visited:            %d\n", job.Stats.Visited)
	for _, c := range outcomeCounts(job.Stats) {
		fmt.Fprintf(sb, "  %-19s %d\n", c.label+":", c.n)
	}
	sb.WriteString("\n")
}

// writeDocument writes artifact sizes.
func (w *SimpleWriter) writeDocument(sb *strings.Builder, job *model.Job) {
	section(sb, "DOCUMENT")
	fmt.Fprintf(sb, "  Raw size:           %d bytes\n", job.RawSize)
	fmt.Fprintf(sb, "  Compact size:       %d bytes\n", job.CompactSize)
	fmt.Fprintf(sb, "  Images re-encoded:  %d\n", job.ImagesReplaced)
	if job.SegmentsFailed > 0 {
		fmt.Fprintf(sb, "  Segments lost:      %d\n", job.SegmentsFailed)
	}
	if job.CompactPath != "" {
		fmt.Fprintf(sb, "  Kept at:            %s\n", job.CompactPath)
	}
	sb.WriteString("\n")
}

// writeDelivery writes the sink's answer.
func (w *SimpleWriter) writeDelivery(sb *strings.Builder, job *model.Job) {
	if job.UploadStatus == 0 && job.UploadResponse == "" && !w.verbose {
		return
	}
	section(sb, "DELIVERY")
	if job.UploadStatus != 0 {
		fmt.Fprintf(sb, "  Status:             %d\n", job.UploadStatus)
	}
	if job.UploadResponse != "" {
		resp := job.UploadResponse
		if !w.verbose {
			resp = truncateString(resp, 200)
		}
		fmt.Fprintf(sb, "  Response:           %s\n", resp)
	}
	if w.verbose && len(job.Steps) > 0 {
		fmt.Fprintf(sb, "  Steps:              %s\n", strings.Join(job.Steps, " > "))
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	rule(sb, "=")
}
