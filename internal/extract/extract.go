package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// DefaultTags is the priority list of content-bearing tags.
var DefaultTags = []string{"article", "section", "div", "pre", "code", "p", "li", "h1", "h2", "h3"}

// invisible lists elements whose text is never shown to a reader.
var invisible = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// Parse parses an HTML body into a document tree.
func Parse(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// IsChallenge reports whether the document's text contains any of the
// bot-challenge markers. Matching is a case-sensitive substring search.
func IsChallenge(doc *goquery.Document, markers []string) bool {
	if doc == nil || len(markers) == 0 {
		return false
	}
	text := doc.Text()
	for _, m := range markers {
		if m != "" && strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// Extractor collects cleaned text from content-bearing elements.
type Extractor struct {
	tags []string
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithTags replaces the tag priority list.
func WithTags(tags ...string) ExtractorOption {
	return func(e *Extractor) {
		if len(tags) > 0 {
			e.tags = tags
		}
	}
}

// NewExtractor creates an Extractor using DefaultTags.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{tags: DefaultTags}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the cleaned text of the document. An empty string means
// the page has no meaningful content.
func (e *Extractor) Extract(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}

	var blocks []string
	for _, tag := range e.tags {
		doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
			if text := visibleText(s.Nodes...); text != "" {
				blocks = append(blocks, text)
			}
		})
	}

	text := strings.Join(blocks, "\n\n")
	if text == "" {
		text = visibleText(doc.Nodes...)
	}
	return Clean(text)
}

// Clean drops every line that is empty after trimming and normalizes the
// result to NFC. Kept lines are not trimmed.
func Clean(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	return norm.NFC.String(strings.Join(kept, "\n"))
}

// Links returns the raw href values of every anchor, in document order.
// Resolution and scoping are left to the caller.
func Links(doc *goquery.Document) []string {
	if doc == nil {
		return nil
	}
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			if href = strings.TrimSpace(href); href != "" {
				links = append(links, href)
			}
		}
	})
	return links
}

// visibleText joins the trimmed, non-empty text nodes under the given nodes
// with newlines, skipping invisible elements.
func visibleText(nodes ...*html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.ElementNode:
			if invisible[n.Data] {
				return
			}
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return strings.Join(parts, "\n")
}
