// Package document assembles page records into one paginated PDF.
//
// Each record becomes a header line naming its source, followed by its text
// split into styled segments, and records are divided by a horizontal rule.
//
// # Segments
//
// Text is represented as a sequence of (Style, text) pairs produced by a
// Classifier. The default classifier tags emoticons, pictographs, transport
// symbols and regional indicators as StyleSymbol and everything else as
// StyleText. Concatenating the segments always gives back the input.
//
// Design decision: Segmentation is a generic rich-text model rather than an
// emoji special case. Adding a glyph class means adding a RangeClass and a
// face for its Style; the synthesizer does not change.
//
// # Rendering
//
// The Synthesizer drives a Renderer. PDFRenderer is the production
// implementation on go-pdf/fpdf. A segment that fails to render is logged
// and skipped; only a failure to write the document aborts synthesis.
package document
