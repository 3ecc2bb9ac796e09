package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	// FileField is the multipart field carrying the document.
	FileField = "files"

	// TokenField is the multipart field carrying the correlation token.
	TokenField = "ssa"

	// SiteField is the multipart field carrying the site identifier.
	SiteField = "site_id"

	maxResponseBody = 1 << 20
	defaultTimeout  = 60 * time.Second
)

// HTTPSink posts documents to an HTTP endpoint.
type HTTPSink struct {
	endpoint string
	token    string
	client   *http.Client
	logger   *slog.Logger
}

// HTTPOption configures an HTTPSink.
type HTTPOption func(*HTTPSink)

// WithClient sets the HTTP client.
func WithClient(c *http.Client) HTTPOption {
	return func(s *HTTPSink) {
		if c != nil {
			s.client = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(s *HTTPSink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHTTPSink creates a sink for endpoint authenticated with token.
func NewHTTPSink(endpoint, token string, opts ...HTTPOption) (*HTTPSink, error) {
	if endpoint == "" {
		return nil, ErrNoEndpoint
	}
	s := &HTTPSink{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: defaultTimeout},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Endpoint returns the destination URL.
func (s *HTTPSink) Endpoint() string {
	return s.endpoint
}

// Deliver uploads d. A non-2xx answer returns the receipt together with an
// error wrapping ErrUploadFailed.
func (s *HTTPSink) Deliver(ctx context.Context, d Delivery) (*Receipt, error) {
	body, contentType, err := buildForm(d)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}
	receipt := &Receipt{StatusCode: resp.StatusCode, Body: string(data)}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Warn("upload rejected", "endpoint", s.endpoint, "status", resp.StatusCode)
		return receipt, fmt.Errorf("%w: status %d", ErrUploadFailed, resp.StatusCode)
	}
	s.logger.Info("document uploaded", "endpoint", s.endpoint, "status", resp.StatusCode)
	return receipt, nil
}

func buildForm(d Delivery) (*bytes.Buffer, string, error) {
	f, err := os.Open(d.Path) //nolint:gosec // path is built by the artifact workspace
	if err != nil {
		return nil, "", fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(FileField, filepath.Base(d.Path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("failed to read document: %w", err)
	}
	if err := w.WriteField(TokenField, d.CorrelationToken); err != nil {
		return nil, "", err
	}
	if err := w.WriteField(SiteField, d.SiteID); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
