package document

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/nao1215/pagebinder/internal/model"
)

// Face family names registered with fpdf.
const (
	textFamily   = "pagebinder-text"
	symbolFamily = "pagebinder-symbol"
	coreFamily   = "Helvetica"
)

// ErrFontLoad is returned when a configured font file cannot be read.
var ErrFontLoad = errors.New("failed to load font")

// pdfConfig is shared by every renderer a factory creates.
type pdfConfig struct {
	textFont    []byte
	symbolFont  []byte
	textPath    string
	symbolPath  string
	fontSize    float64
	lineHeight  float64
	compression bool
	title       string
}

// PDFOption configures PDF rendering.
type PDFOption func(*pdfConfig)

// WithTextFont sets a UTF-8 TrueType file for StyleText. Without one the
// core Helvetica face is used and text is re-encoded to cp1252.
func WithTextFont(path string) PDFOption {
	return func(c *pdfConfig) {
		c.textPath = path
	}
}

// WithSymbolFont sets a TrueType file for StyleSymbol. Without one, symbols
// are written as their code points ("U+1F600") in the text face.
func WithSymbolFont(path string) PDFOption {
	return func(c *pdfConfig) {
		c.symbolPath = path
	}
}

// WithTextFontBytes sets the StyleText face from memory.
func WithTextFontBytes(data []byte) PDFOption {
	return func(c *pdfConfig) {
		c.textFont = data
	}
}

// WithSymbolFontBytes sets the StyleSymbol face from memory.
func WithSymbolFontBytes(data []byte) PDFOption {
	return func(c *pdfConfig) {
		c.symbolFont = data
	}
}

// WithCompression toggles stream compression. It is on by default.
func WithCompression(on bool) PDFOption {
	return func(c *pdfConfig) {
		c.compression = on
	}
}

// WithFontSize sets the font size in points.
func WithFontSize(pt float64) PDFOption {
	return func(c *pdfConfig) {
		if pt > 0 {
			c.fontSize = pt
		}
	}
}

// WithLineHeight sets the line height in millimetres.
func WithLineHeight(mm float64) PDFOption {
	return func(c *pdfConfig) {
		if mm > 0 {
			c.lineHeight = mm
		}
	}
}

// WithTitle sets the document title metadata.
func WithTitle(title string) PDFOption {
	return func(c *pdfConfig) {
		c.title = title
	}
}

// NewPDFFactory loads the configured fonts once and returns a factory that
// creates one PDFRenderer per document.
func NewPDFFactory(opts ...PDFOption) (RendererFactory, error) {
	cfg := &pdfConfig{
		fontSize:    12,
		lineHeight:  10,
		compression: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.textPath != "" && cfg.textFont == nil {
		data, err := os.ReadFile(cfg.textPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrFontLoad, cfg.textPath, err)
		}
		cfg.textFont = data
	}
	if cfg.symbolPath != "" && cfg.symbolFont == nil {
		data, err := os.ReadFile(cfg.symbolPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrFontLoad, cfg.symbolPath, err)
		}
		cfg.symbolFont = data
	}

	return func() (Renderer, error) {
		return newPDFRenderer(cfg)
	}, nil
}

// face is how one Style is drawn.
type face struct {
	family string
	// utf8 is false for core fonts, whose text must be cp1252 bytes.
	utf8 bool
	// codepoints writes each rune as "U+XXXX" instead of its glyph.
	codepoints bool
}

// PDFRenderer renders one A4 portrait document with fpdf.
type PDFRenderer struct {
	pdf        *fpdf.Fpdf
	cfg        *pdfConfig
	faces      map[Style]face
	current    string
	headerFace face
}

func newPDFRenderer(cfg *pdfConfig) (*PDFRenderer, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(cfg.compression)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetCreator("pagebinder", false)
	if cfg.title != "" {
		pdf.SetTitle(cfg.title, true)
	}

	r := &PDFRenderer{
		pdf:   pdf,
		cfg:   cfg,
		faces: make(map[Style]face),
	}

	text := face{family: coreFamily}
	if cfg.textFont != nil {
		pdf.AddUTF8FontFromBytes(textFamily, "", cfg.textFont)
		text = face{family: textFamily, utf8: true}
	}
	r.faces[StyleText] = text
	r.headerFace = text

	symbol := text
	symbol.codepoints = true
	if cfg.symbolFont != nil {
		pdf.AddUTF8FontFromBytes(symbolFamily, "", cfg.symbolFont)
		symbol = face{family: symbolFamily, utf8: true}
	}
	r.faces[StyleSymbol] = symbol

	if pdf.Err() {
		return nil, fmt.Errorf("%w: %w", ErrFontLoad, pdf.Error())
	}

	pdf.AddPage()
	r.use(text)
	return r, nil
}

// use switches the active font when needed.
func (r *PDFRenderer) use(f face) {
	if r.current == f.family {
		return
	}
	r.pdf.SetFont(f.family, "", r.cfg.fontSize)
	r.current = f.family
}

// encode prepares text for a face.
func (r *PDFRenderer) encode(f face, s string) string {
	if f.codepoints {
		s = codepoints(s)
	}
	if f.utf8 {
		return s
	}
	return toCP1252(s)
}

// Header writes "Scraped content from: <location>" on its own line.
func (r *PDFRenderer) Header(loc model.Location) {
	r.use(r.headerFace)
	r.pdf.MultiCell(0, r.cfg.lineHeight, r.encode(r.headerFace, "Scraped content from: "+loc.String()), "", "L", false)
}

// Segment writes one run inline, wrapping at the right margin.
// A failed segment leaves the document usable for the next one.
func (r *PDFRenderer) Segment(seg Segment) error {
	f, ok := r.faces[seg.Style]
	if !ok {
		f = r.faces[StyleText]
	}
	r.use(f)
	r.pdf.Write(r.cfg.lineHeight, r.encode(f, seg.Text))
	if r.pdf.Err() {
		err := r.pdf.Error()
		r.pdf.ClearError()
		r.current = ""
		return fmt.Errorf("render %s segment: %w", seg.Style, err)
	}
	return nil
}

// Separator ends the current line and draws a horizontal rule across the
// text area.
func (r *PDFRenderer) Separator() {
	r.pdf.Ln(r.cfg.lineHeight)
	left, _, right, _ := r.pdf.GetMargins()
	width, _ := r.pdf.GetPageSize()
	y := r.pdf.GetY() + r.cfg.lineHeight/4
	r.pdf.Line(left, y, width-right, y)
	r.pdf.Ln(r.cfg.lineHeight / 2)
}

// Close writes the document to path.
func (r *PDFRenderer) Close(path string) (err error) {
	if r.pdf.Err() {
		return r.pdf.Error()
	}
	f, err := os.Create(path) //nolint:gosec // path is built by the artifact workspace
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return r.pdf.Output(f)
}

// codepoints spells every rune of s as U+XXXX, space separated.
func codepoints(s string) string {
	parts := make([]string, 0, len(s)/4)
	for _, c := range s {
		parts = append(parts, fmt.Sprintf("U+%04X", c))
	}
	return strings.Join(parts, " ")
}

// toCP1252 re-encodes s for the core fonts. Runes outside cp1252 become '?'.
func toCP1252(s string) string {
	out := make([]byte, 0, len(s))
	for _, c := range s {
		b, ok := charmap.Windows1252.EncodeRune(c)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return string(out)
}
