package fetch

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// Response is a successful fetch.
type Response struct {
	// Location is the requested address.
	Location string

	// FinalLocation is the address after redirects.
	FinalLocation string

	// StatusCode is the HTTP status (always 2xx).
	StatusCode int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is the decoded, UTF-8 converted body, at most MaxBodySize bytes.
	Body []byte
}

// Fetcher retrieves a single location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) (*Response, error)
}

// HTTPFetcher performs one HTTP GET per Fetch call.
type HTTPFetcher struct {
	// client performs requests. Cookies and per-site headers are injected by
	// the transport package.
	client *http.Client

	// userAgent is sent with every request.
	userAgent string

	// headers are added to every request after the defaults.
	headers map[string]string

	// maxBodySize limits how many decoded bytes are read.
	maxBodySize int64

	// limiter throttles requests across all workers; nil disables it.
	limiter *rate.Limiter

	logger *slog.Logger
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithHeaders adds headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(f *HTTPFetcher) {
		for k, v := range headers {
			f.headers[k] = v
		}
	}
}

// WithMaxBodySize sets the maximum body size. Values <= 0 keep the default.
func WithMaxBodySize(size int64) Option {
	return func(f *HTTPFetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithRateLimit limits requests per second across all callers.
// A rate <= 0 disables limiting.
func WithRateLimit(rps float64) Option {
	return func(f *HTTPFetcher) {
		if rps <= 0 {
			f.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *HTTPFetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewHTTPFetcher creates a fetcher on top of the given client.
func NewHTTPFetcher(client *http.Client, opts ...Option) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	f := &HTTPFetcher{
		client:      client,
		userAgent:   "pagebinder",
		headers:     make(map[string]string),
		maxBodySize: 10 * 1024 * 1024, // 10MB
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads a single location.
// Any non-2xx status is a failure; the body of failed responses is discarded.
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) (*Response, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, &Error{Location: location, Attempts: 1, Kind: KindTransient, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, &Error{Location: location, Attempts: 1, Kind: KindPermanent, Err: fmt.Errorf("%w: %w", ErrInvalidLocation, err)}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{Location: location, Attempts: 1, Kind: KindTransient, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // drain for connection reuse
		return nil, &Error{
			Location:   location,
			Attempts:   1,
			Kind:       classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Err:        ErrUnexpectedStatus,
		}
	}

	contentType := resp.Header.Get("Content-Type")
	body, err := f.readBody(resp.Body, resp.Header.Get("Content-Encoding"), contentType)
	if err != nil {
		return nil, &Error{Location: location, Attempts: 1, Kind: KindTransient, StatusCode: resp.StatusCode, Err: err}
	}

	final := location
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	return &Response{
		Location:      location,
		FinalLocation: final,
		StatusCode:    resp.StatusCode,
		ContentType:   contentType,
		Body:          body,
	}, nil
}

// readBody decodes the content encoding, truncates to maxBodySize and
// converts textual bodies to UTF-8.
func (f *HTTPFetcher) readBody(r io.Reader, encoding, contentType string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip":
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		defer gz.Close()
		r = gz
	case "deflate":
		fl := flate.NewReader(r)
		defer fl.Close()
		r = fl
	case "br":
		r = brotli.NewReader(r)
	}

	raw, err := io.ReadAll(io.LimitReader(r, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if !isText(contentType) {
		return raw, nil
	}

	utf8Reader, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		f.logger.Debug("charset detection failed, using raw body", "content_type", contentType, "error", err)
		return raw, nil
	}
	decoded, err := io.ReadAll(utf8Reader)
	if err != nil {
		return raw, nil //nolint:nilerr // undecodable bytes fall back to the raw body
	}
	return decoded, nil
}

// isText reports whether a content type carries markup or text.
// An empty content type is sniffed as text.
func isText(contentType string) bool {
	ct := strings.ToLower(contentType)
	return ct == "" || strings.HasPrefix(ct, "text/") || strings.Contains(ct, "html") || strings.Contains(ct, "xml")
}
