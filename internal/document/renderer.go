package document

import "github.com/nao1215/pagebinder/internal/model"

// Renderer writes one document. Calls arrive in order: for each record a
// Header, zero or more Segments, and a Separator between records, then
// exactly one Close.
type Renderer interface {
	// Header starts a record with a line naming its source.
	Header(loc model.Location)

	// Segment renders one styled run. An error means only this segment was lost.
	Segment(seg Segment) error

	// Separator divides two records.
	Separator()

	// Close writes the document to path.
	Close(path string) error
}

// RendererFactory creates a fresh Renderer for each document.
type RendererFactory func() (Renderer, error)
