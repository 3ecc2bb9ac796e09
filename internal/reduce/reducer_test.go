package reduce

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// writePDF builds a one-page document, optionally embedding a noisy PNG.
func writePDF(t *testing.T, withImage bool) string {
	t.Helper()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	pdf.Write(10, "text that must survive")

	if withImage {
		img := image.NewRGBA(image.Rect(0, 0, 64, 64))
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				img.Set(x, y, color.RGBA{uint8(x * 4), uint8(y * 4), uint8((x * y) % 256), 255})
			}
		}
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, img))
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("noise", opts, &buf)
		pdf.ImageOptions("noise", 20, 40, 50, 50, false, opts, 0, "")
	}

	path := filepath.Join(t.TempDir(), "raw.pdf")
	require.NoError(t, pdf.OutputFileAndClose(path))
	return path
}

func TestNewValidatesQuality(t *testing.T) {
	t.Parallel()

	for _, q := range []int{0, -1, 101} {
		_, err := New(WithQuality(q))
		require.ErrorIs(t, err, ErrInvalidQuality)
	}

	r, err := New()
	require.NoError(t, err)
	assert.Equal(t, DefaultQuality, r.Quality())
}

func TestReduceWithoutImagesCopiesBytes(t *testing.T) {
	t.Parallel()

	in := writePDF(t, false)
	out := filepath.Join(t.TempDir(), "compact.pdf")

	r, err := New(quiet())
	require.NoError(t, err)
	stats, err := r.Reduce(context.Background(), in, out)
	require.NoError(t, err)

	raw, err := os.ReadFile(in)
	require.NoError(t, err)
	compact, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, raw, compact)
	assert.Zero(t, stats.Images)
	assert.Equal(t, stats.BytesIn, stats.BytesOut)
}

func TestReduceReplacesImages(t *testing.T) {
	t.Parallel()

	in := writePDF(t, true)
	before, err := os.ReadFile(in)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "compact.pdf")
	r, err := New(WithQuality(10), quiet())
	require.NoError(t, err)
	stats, err := r.Reduce(context.Background(), in, out)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Images)
	assert.Equal(t, 1, stats.Replaced)
	assert.Zero(t, stats.Skipped)

	after, err := os.ReadFile(in)
	require.NoError(t, err)
	assert.Equal(t, before, after, "input must not be modified")

	compact, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(compact, []byte("%PDF")))
	assert.EqualValues(t, len(compact), stats.BytesOut)
}

// rotatedJPEG encodes a w x h JPEG carrying an EXIF orientation tag.
func rotatedJPEG(t *testing.T, w, h int, orientation uint16) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 3), uint8(y * 6), 128, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))

	tiff := []byte{
		'M', 'M', 0x00, 0x2a, 0x00, 0x00, 0x00, 0x08, // header, IFD0 at 8
		0x00, 0x01, // one entry
		0x01, 0x12, 0x00, 0x03, 0x00, 0x00, 0x00, 0x01, // Orientation, SHORT, count 1
		byte(orientation >> 8), byte(orientation), 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, // no next IFD
	}
	payload := append([]byte("Exif\x00\x00"), tiff...)
	size := len(payload) + 2
	app1 := append([]byte{0xff, 0xe1, byte(size >> 8), byte(size)}, payload...)

	raw := buf.Bytes()
	out := append([]byte{}, raw[:2]...)
	out = append(out, app1...)
	return append(out, raw[2:]...)
}

func TestOrientationReadsExif(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 6, Orientation(rotatedJPEG(t, 8, 4, 6)))
	assert.Equal(t, 3, Orientation(rotatedJPEG(t, 8, 4, 3)))
}

func TestReduceKeepsStoredOrientation(t *testing.T) {
	t.Parallel()

	for _, orientation := range []uint16{2, 6, 8} {
		pdf := fpdf.New("P", "mm", "A4", "")
		pdf.AddPage()
		opts := fpdf.ImageOptions{ImageType: "JPG"}
		pdf.RegisterImageOptionsReader("photo", opts, bytes.NewReader(rotatedJPEG(t, 80, 40, orientation)))
		pdf.ImageOptions("photo", 20, 40, 80, 40, false, opts, 0, "")

		dir := t.TempDir()
		in := filepath.Join(dir, "raw.pdf")
		require.NoError(t, pdf.OutputFileAndClose(in))
		out := filepath.Join(dir, "compact.pdf")

		r, err := New(WithQuality(30), quiet())
		require.NoError(t, err)
		stats, err := r.Reduce(context.Background(), in, out)
		require.NoError(t, err)

		assert.Equal(t, 1, stats.Replaced, "orientation %d", orientation)
		assert.Zero(t, stats.Skipped, "orientation %d", orientation)
		assert.Equal(t, 1, stats.Oriented, "orientation %d", orientation)

		compact, err := os.ReadFile(out)
		require.NoError(t, err)
		var sizes []image.Point
		digest := func(img pdfmodel.Image, _ bool, _ int) error {
			cfg, _, err := image.DecodeConfig(img)
			if err != nil {
				return err
			}
			sizes = append(sizes, image.Pt(cfg.Width, cfg.Height))
			return nil
		}
		require.NoError(t, api.ExtractImages(bytes.NewReader(compact), nil, digest, newConfiguration()))
		assert.Equal(t, []image.Point{image.Pt(80, 40)}, sizes, "orientation %d", orientation)
	}
}

func TestReduceErrors(t *testing.T) {
	t.Parallel()

	r, err := New(quiet())
	require.NoError(t, err)

	t.Run("same path", func(t *testing.T) {
		t.Parallel()
		_, err := r.Reduce(context.Background(), "a.pdf", "./a.pdf")
		require.ErrorIs(t, err, ErrSamePath)
	})

	t.Run("missing input", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		_, err := r.Reduce(context.Background(), filepath.Join(dir, "none.pdf"), filepath.Join(dir, "out.pdf"))
		require.Error(t, err)
	})

	t.Run("not a pdf", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		in := filepath.Join(dir, "junk.pdf")
		require.NoError(t, os.WriteFile(in, []byte("plain text"), 0o600))
		_, err := r.Reduce(context.Background(), in, filepath.Join(dir, "out.pdf"))
		require.ErrorIs(t, err, ErrExtract)
	})
}
