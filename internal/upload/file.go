package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileSink copies documents to a local path.
type FileSink struct {
	path string
}

// NewFileSink creates a sink that writes to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Deliver copies d.Path to the sink path, creating parent directories.
func (s *FileSink) Deliver(ctx context.Context, d Delivery) (receipt *Receipt, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	src, err := os.Open(d.Path) //nolint:gosec // path is built by the artifact workspace
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err := io.Copy(dst, src); err != nil {
		return nil, fmt.Errorf("failed to copy document: %w", err)
	}
	return &Receipt{Body: s.path}, nil
}
