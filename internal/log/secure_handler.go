package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// secretKeys are attribute keys whose values never reach the output: the
// upload sink credentials, site cookies and the client correlation token.
var secretKeys = map[string]bool{
	"authorization":     true,
	"cookie":            true,
	"set-cookie":        true,
	"ssa":               true,
	"correlation_token": true,
}

var (
	// credentialValue matches an Authorization header value.
	credentialValue = regexp.MustCompile(`(?i)^(bearer|basic)\s+\S+`)

	// userinfoPattern matches credentials embedded in a URL.
	userinfoPattern = regexp.MustCompile(`(?i)^([a-z][a-z0-9+.-]*://)[^/@\s]+@`)
)

// isSecretKey reports whether values under key must be masked. Any key ending
// in "token" or "cookie" counts, so "upload_token" and "site_cookie" are covered.
func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	return secretKeys[key] || strings.HasSuffix(key, "token") || strings.HasSuffix(key, "cookie")
}

// redact returns the attribute with secrets masked. Groups are walked.
func redact(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = redact(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	if isSecretKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}
	if a.Value.Kind() != slog.KindString {
		return a
	}
	v := a.Value.String()
	switch {
	case credentialValue.MatchString(v):
		return slog.String(a.Key, MaskValue)
	case userinfoPattern.MatchString(v):
		return slog.String(a.Key, userinfoPattern.ReplaceAllString(v, "${1}"+MaskValue+"@"))
	}
	return a
}

// SecureHandler wraps an slog.Handler and masks secrets in every attribute
// before the record reaches the wrapped handler.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler wraps handler. A nil handler falls back to slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled reports whether the wrapped handler handles records at level.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(redact(a))
		return true
	})
	return h.handler.Handle(ctx, masked)
}

// WithAttrs masks attrs before handing them to the wrapped handler.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = redact(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(masked)}
}

// WithGroup returns a handler that nests later attributes under name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

// Level returns Debug when verbose, else quiet.
func Level(verbose bool, quiet slog.Level) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return quiet
}

// NewSecureLogger creates a masking text logger at Debug when verbose, else Warn.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return NewSecureLoggerWithLevel(w, Level(verbose, slog.LevelWarn))
}

// NewSecureLoggerWithLevel creates a masking text logger at a fixed level.
func NewSecureLoggerWithLevel(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// NewSecureJSONLogger creates a masking JSON logger for the server, at Debug
// when verbose, else Info.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: Level(verbose, slog.LevelInfo)}
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, opts)))
}
