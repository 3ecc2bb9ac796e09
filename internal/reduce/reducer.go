package reduce

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // register decoders for extracted images
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	_ "golang.org/x/image/tiff"
)

// DefaultQuality is the JPEG quality used when none is set.
const DefaultQuality = 30

var disableConfigDir sync.Once

// Stats summarizes one reduction.
type Stats struct {
	Images   int   `json:"images"`
	Replaced int   `json:"replaced"`
	Skipped  int   `json:"skipped"`
	Oriented int   `json:"oriented"`
	BytesIn  int64 `json:"bytes_in"`
	BytesOut int64 `json:"bytes_out"`
}

// Reducer re-encodes embedded images of a PDF.
type Reducer struct {
	quality int
	logger  *slog.Logger
}

// Option configures a Reducer.
type Option func(*Reducer)

// WithQuality sets the JPEG quality (1..100).
func WithQuality(q int) Option {
	return func(r *Reducer) {
		r.quality = q
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reducer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Reducer.
func New(opts ...Option) (*Reducer, error) {
	r := &Reducer{
		quality: DefaultQuality,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.quality < 1 || r.quality > 100 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuality, r.quality)
	}
	// pdfcpu otherwise creates a config dir under the user's home.
	disableConfigDir.Do(api.DisableConfigDir)
	return r, nil
}

// Quality returns the JPEG quality.
func (r *Reducer) Quality() int {
	return r.quality
}

type extracted struct {
	objNr    int
	pageNr   int
	name     string
	fileType string
	data     []byte
}

// Reduce reads the PDF at in and writes the reduced copy to out.
//
// An image that cannot be decoded or substituted keeps its original bytes.
// A document without images is copied unchanged.
func (r *Reducer) Reduce(ctx context.Context, in, out string) (*Stats, error) {
	if filepath.Clean(in) == filepath.Clean(out) {
		return nil, ErrSamePath
	}

	data, err := os.ReadFile(in) //nolint:gosec // path is built by the artifact workspace
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	stats := &Stats{BytesIn: int64(len(data))}

	conf := newConfiguration()
	images, err := r.extract(data, conf)
	if err != nil {
		return nil, err
	}
	stats.Images = len(images)

	current := data
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if img.fileType == "jpg" {
			if o := Orientation(img.data); o != 1 {
				stats.Oriented++
				r.logger.Debug("image carries exif orientation", "object", img.objNr, "page", img.pageNr, "orientation", o)
			}
		}

		encoded, err := r.reencode(img)
		if err != nil {
			stats.Skipped++
			r.logger.Warn("image kept as is", "object", img.objNr, "page", img.pageNr, "type", img.fileType, "error", err)
			continue
		}

		var buf bytes.Buffer
		if err := api.UpdateImages(bytes.NewReader(current), bytes.NewReader(encoded), &buf, img.objNr, 0, "", conf); err != nil {
			stats.Skipped++
			r.logger.Warn("image substitution failed", "object", img.objNr, "page", img.pageNr, "error", err)
			continue
		}
		current = buf.Bytes()
		stats.Replaced++
		r.logger.Debug("image replaced", "object", img.objNr, "page", img.pageNr, "before", len(img.data), "after", len(encoded))
	}

	if err := os.WriteFile(out, current, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write reduced document: %w", err)
	}
	stats.BytesOut = int64(len(current))

	r.logger.Debug("document reduced", "images", stats.Images, "replaced", stats.Replaced, "skipped", stats.Skipped, "bytes_in", stats.BytesIn, "bytes_out", stats.BytesOut)
	return stats, nil
}

// extract lists every image object once, in the order pdfcpu reports them.
func (r *Reducer) extract(data []byte, conf *pdfmodel.Configuration) ([]extracted, error) {
	seen := make(map[int]bool)
	var images []extracted
	digest := func(img pdfmodel.Image, _ bool, _ int) error {
		if seen[img.ObjNr] {
			return nil
		}
		seen[img.ObjNr] = true
		b, err := io.ReadAll(img)
		if err != nil {
			return err
		}
		images = append(images, extracted{
			objNr:    img.ObjNr,
			pageNr:   img.PageNr,
			name:     img.Name,
			fileType: img.FileType,
			data:     b,
		})
		return nil
	}
	if err := api.ExtractImages(bytes.NewReader(data), nil, digest, conf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtract, err)
	}
	return images, nil
}

// reencode decodes one image and returns it as an opaque JPEG of the same
// dimensions. Stored pixels are kept as decoded; PDF viewers do not apply
// EXIF orientation to embedded images.
func (r *Reducer) reencode(img extracted) ([]byte, error) {
	decoded, _, err := image.Decode(bytes.NewReader(img.data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", img.fileType, err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Flatten(decoded), &jpeg.Options{Quality: r.quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func newConfiguration() *pdfmodel.Configuration {
	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed
	return conf
}
