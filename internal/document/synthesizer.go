package document

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/nao1215/pagebinder/internal/model"
)

// Artifact describes a synthesized document on disk.
type Artifact struct {
	// Path is the document file.
	Path string

	// Records is the number of records rendered.
	Records int

	// Segments is the number of segments attempted.
	Segments int

	// FailedSegments is the number of segments that could not be rendered.
	FailedSegments int

	// Size is the file size in bytes.
	Size int64
}

// Synthesizer turns page records into a document.
type Synthesizer struct {
	factory    RendererFactory
	classifier *Classifier
	logger     *slog.Logger
}

// SynthesizerOption configures a Synthesizer.
type SynthesizerOption func(*Synthesizer)

// WithClassifier replaces the segment classifier.
func WithClassifier(c *Classifier) SynthesizerOption {
	return func(s *Synthesizer) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithSynthesizerLogger sets the logger.
func WithSynthesizerLogger(logger *slog.Logger) SynthesizerOption {
	return func(s *Synthesizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSynthesizer creates a Synthesizer that renders through factory.
func NewSynthesizer(factory RendererFactory, opts ...SynthesizerOption) *Synthesizer {
	s := &Synthesizer{
		factory:    factory,
		classifier: DefaultClassifier(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize renders records in order and writes the document to path.
//
// Every record gets a header, including one with empty content. Segment
// failures are logged and skipped. Errors creating the renderer or writing
// the file are returned. Cancellation is checked between records.
func (s *Synthesizer) Synthesize(ctx context.Context, records []model.PageRecord, path string) (*Artifact, error) {
	r, err := s.factory()
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	art := &Artifact{Path: path}
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i > 0 {
			r.Separator()
		}
		r.Header(rec.Location)
		art.Records++

		for _, seg := range s.classifier.Split(rec.Content) {
			art.Segments++
			if err := r.Segment(seg); err != nil {
				art.FailedSegments++
				s.logger.Warn("segment render failed", "location", rec.Location, "style", seg.Style, "error", err)
			}
		}
	}

	if err := r.Close(path); err != nil {
		return nil, fmt.Errorf("failed to write document: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat document: %w", err)
	}
	art.Size = info.Size()

	s.logger.Debug("document synthesized", "path", path, "records", art.Records, "segments", art.Segments, "failed_segments", art.FailedSegments, "size", art.Size)
	return art, nil
}
