package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/pagebinder/internal/model"
)

// MarkdownWriter outputs job summaries in Markdown format.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation, which gives tables, alerts, details blocks and mermaid charts
// without hand-built escaping.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the job summary in Markdown format.
func (w *MarkdownWriter) Write(job *model.Job) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, job)
	w.writeCrawl(md, job)
	w.writeDocument(md, job)
	w.writeDelivery(md, job)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the summary table and the status alert.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, job *model.Job) {
	md.H1("pagebinder Job Summary")
	md.PlainText("")

	rows := [][]string{
		{"Job", "`" + job.ID + "`"},
		{"Target", job.Target.String()},
		{"Created", job.CreatedAt.Format("2006-01-02 15:04:05 MST")},
		{"Status", statusText(job)},
	}
	if job.SiteID != "" {
		rows = append(rows, []string{"Site ID", job.SiteID})
	}
	if d := job.Duration(); d > 0 {
		rows = append(rows, []string{"Elapsed", d.Round(1e6).String()})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeAlert(md, job)
}

// writeAlert writes an alert matching the job outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, job *model.Job) {
	switch {
	case job.Failed() && job.FailedStep == "deliver":
		md.Warningf("Delivery failed. The compact document was kept at `%s`.", job.CompactPath)
	case job.Failed():
		md.Cautionf("Job failed at %s: %s", job.FailedStep, job.ErrorMessage)
	case job.Stats.Recorded == 0:
		md.Important("No page produced content.")
	case job.SegmentsFailed > 0:
		md.Notef("%d text segment(s) could not be rendered.", job.SegmentsFailed)
	default:
		md.Tip("Document built and delivered.")
	}
	md.PlainText("")
}

// writeCrawl writes the crawl outcome table and chart.
func (w *MarkdownWriter) writeCrawl(md *markdown.Markdown, job *model.Job) {
	md.H2("Crawl")
	md.PlainText("")

	rows := [][]string{
		{"Waves", strconv.Itoa(job.Stats.Waves)},
		{"Visited", strconv.Itoa(job.Stats.Visited)},
	}
	for _, c := range outcomeCounts(job.Stats) {
		rows = append(rows, []string{c.label, strconv.Itoa(c.n)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if job.Stats.Visited > 0 {
		w.writePieChart(md, job.Stats)
	}
}

// writePieChart writes a mermaid pie chart of page outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s model.CrawlStats) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Outcomes"),
		piechart.WithShowData(true),
	)
	for _, c := range outcomeCounts(s) {
		if c.n > 0 && c.label != "Links out of scope" {
			chart.LabelAndIntValue(c.label, uint64(c.n)) //nolint:gosec // counts are never negative
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeDocument writes artifact sizes.
func (w *MarkdownWriter) writeDocument(md *markdown.Markdown, job *model.Job) {
	md.H2("Document")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Raw size", strconv.FormatInt(job.RawSize, 10) + " bytes"},
			{"Compact size", strconv.FormatInt(job.CompactSize, 10) + " bytes"},
			{"Images re-encoded", strconv.Itoa(job.ImagesReplaced)},
			{"Segments lost", strconv.Itoa(job.SegmentsFailed)},
		},
	})
	md.PlainText("")
}

// writeDelivery writes the upload response in a details block.
func (w *MarkdownWriter) writeDelivery(md *markdown.Markdown, job *model.Job) {
	if job.UploadStatus == 0 && job.UploadResponse == "" {
		return
	}
	md.H2("Delivery")
	md.PlainText("")
	if job.UploadStatus != 0 {
		md.PlainTextf("Status: **%d**", job.UploadStatus)
		md.PlainText("")
	}
	if job.UploadResponse != "" {
		md.Details("Response", strings.TrimSpace(job.UploadResponse))
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Summary generated by [pagebinder](https://github.com/nao1215/pagebinder)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
