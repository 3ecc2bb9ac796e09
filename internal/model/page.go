package model

// PageRecord is the cleaned text extracted from one successfully processed page.
// Records are created once and never modified; the document synthesizer only
// reads them.
type PageRecord struct {
	// Location is the page the content came from.
	Location Location `json:"location"`

	// Content is the cleaned text. The crawler never records an empty one.
	Content string `json:"content"`
}

// IsEmpty reports whether the record carries no content.
func (r PageRecord) IsEmpty() bool {
	return len(r.Content) == 0
}
