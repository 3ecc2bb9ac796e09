// Package report provides job summary output.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - MarkdownWriter: Markdown for sharing or saving next to the document
//   - JSONWriter: Structured JSON output for tool integration
//
// Design decision: We separate report writing from the job data structure
// (which is in the model package). This allows adding new output formats
// without modifying the core data structures.
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
