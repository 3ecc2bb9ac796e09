package document

import (
	"unicode/utf8"
)

// Style names the face a segment is rendered with.
type Style int

const (
	// StyleText is ordinary text.
	StyleText Style = iota

	// StyleSymbol is pictographic text that needs a symbol face.
	StyleSymbol
)

// String returns the style name.
func (s Style) String() string {
	switch s {
	case StyleText:
		return "text"
	case StyleSymbol:
		return "symbol"
	default:
		return "unknown"
	}
}

// Segment is a maximal run of text sharing one Style.
type Segment struct {
	Style Style
	Text  string
}

// Range is an inclusive code point range.
type Range struct {
	Lo, Hi rune
}

// Contains reports whether r is inside the range.
func (rg Range) Contains(r rune) bool {
	return r >= rg.Lo && r <= rg.Hi
}

// RangeClass assigns a Style to a set of code point ranges.
type RangeClass struct {
	Style  Style
	Ranges []Range
}

// Classifier maps code points to styles. Classes are checked in order and
// code points outside every class fall back to StyleText.
type Classifier struct {
	classes []RangeClass
}

// NewClassifier creates a classifier from an ordered list of classes.
func NewClassifier(classes ...RangeClass) *Classifier {
	return &Classifier{classes: classes}
}

// DefaultClassifier tags emoticons, miscellaneous symbols and pictographs,
// transport and map symbols, and regional indicator letters as StyleSymbol.
func DefaultClassifier() *Classifier {
	return NewClassifier(RangeClass{
		Style: StyleSymbol,
		Ranges: []Range{
			{0x1F600, 0x1F64F}, // emoticons
			{0x1F300, 0x1F5FF}, // symbols & pictographs
			{0x1F680, 0x1F6FF}, // transport & map symbols
			{0x1F1E0, 0x1F1FF}, // regional indicators (flags)
		},
	})
}

// Classify returns the style of one code point.
func (c *Classifier) Classify(r rune) Style {
	for _, class := range c.classes {
		for _, rg := range class.Ranges {
			if rg.Contains(r) {
				return class.Style
			}
		}
	}
	return StyleText
}

// Split cuts s into maximal runs of equal style. Bytes are never changed,
// so joining the segment texts reproduces s exactly, including invalid UTF-8.
func (c *Classifier) Split(s string) []Segment {
	if s == "" {
		return nil
	}

	var segments []Segment
	start := 0
	current := StyleText
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		style := c.Classify(r)
		if i == 0 {
			current = style
		} else if style != current {
			segments = append(segments, Segment{Style: current, Text: s[start:i]})
			start = i
			current = style
		}
		i += size
	}
	return append(segments, Segment{Style: current, Text: s[start:]})
}
