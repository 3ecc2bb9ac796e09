package crawler

import (
	"fmt"
	"net/url"
	"strings"

	whatwgUrl "github.com/nlnwa/whatwg-url/url"

	"github.com/nao1215/pagebinder/internal/model"
)

// urlParser resolves references the way browsers do.
var urlParser = whatwgUrl.NewParser(whatwgUrl.WithPercentEncodeSinglePercentSign())

// Normalize resolves ref against base and returns its canonical Location.
//
// The canonical form drops the fragment, lowercases scheme and host, and
// turns an empty path into "/". Trailing slashes on other paths are kept.
// Only http and https are accepted. An empty base parses ref on its own.
func Normalize(base, ref string) (model.Location, error) {
	ref = strings.TrimSpace(ref)

	var (
		parsed *whatwgUrl.Url
		err    error
	)
	if base == "" {
		parsed, err = urlParser.Parse(ref)
	} else {
		parsed, err = urlParser.ParseRef(base, ref)
	}
	if err != nil {
		return "", fmt.Errorf("cannot resolve %q: %w", ref, err)
	}

	u, err := url.Parse(parsed.Href(true))
	if err != nil {
		return "", fmt.Errorf("cannot resolve %q: %w", ref, err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	u.Host = strings.ToLower(u.Host)
	if u.Host == "" {
		return "", fmt.Errorf("cannot resolve %q: empty host", ref)
	}
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}

	return model.Location(u.String()), nil
}
