// Package extract turns a fetched page into cleaned text and raw links.
//
// Extraction scans a fixed priority list of content-bearing tags (article,
// section, div, pre, code, p, li, h1, h2, h3) in that order and collects the
// visible text of every match. Text nodes inside one element are joined by a
// newline and elements are joined by a blank line. Nested matches are
// collected again by each matching ancestor, so the same sentence can
// appear more than once. A page with no matching text falls back to the
// whole document's visible text.
//
// Design decision: We use goquery (on top of golang.org/x/net/html) for
// parsing and selection because it tolerates malformed markup and keeps the
// selector list readable.
package extract
