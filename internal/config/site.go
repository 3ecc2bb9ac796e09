package config

import (
	"fmt"
	"strings"
)

// SiteConfig holds per-host crawl settings.
type SiteConfig struct {
	// Cookie is an HTTP cookie to send to this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// IgnorePatterns are glob patterns matched against the URL path.
	// Matching locations are never fetched.
	IgnorePatterns []string `yaml:"ignore_patterns,omitempty"`

	// FollowPatterns are glob patterns matched against the URL path.
	// If specified, only matching locations are fetched (the base location
	// is always fetched).
	FollowPatterns []string `yaml:"follow_patterns,omitempty"`

	// MaxPages overrides the global page limit for this site.
	MaxPages int `yaml:"max_pages,omitempty"`

	// MaxDepth overrides the global depth limit for this site.
	MaxDepth int `yaml:"max_depth,omitempty"`
}

// Destination is an upload endpoint for one target domain.
type Destination struct {
	// Endpoint is the URL the compact document is POSTed to.
	Endpoint string `yaml:"endpoint"`

	// Token is the bearer token for this endpoint. When empty, File.UploadToken is used.
	Token string `yaml:"token,omitempty"`
}

// Fonts holds TTF paths for the document faces.
type Fonts struct {
	// Text is the general-purpose text face. Empty falls back to a core font.
	Text string `yaml:"text,omitempty"`

	// Symbol is the pictograph face. Empty renders code points as text.
	Symbol string `yaml:"symbol,omitempty"`
}

// File represents the structure of the .pagebinder.yaml configuration file.
type File struct {
	// Destinations maps a domain name (e.g. "example.com") to its upload endpoint.
	Destinations map[string]Destination `yaml:"destinations,omitempty"`

	// UploadToken is the default bearer token for destinations without one.
	UploadToken string `yaml:"upload_token,omitempty"`

	// Fonts configures the document faces.
	Fonts Fonts `yaml:"fonts,omitempty"`

	// ChallengeMarkers are substrings that identify bot-challenge pages.
	ChallengeMarkers []string `yaml:"challenge_markers,omitempty"`

	// RespectRobots enables robots.txt filtering.
	RespectRobots bool `yaml:"respect_robots,omitempty"`

	// Proxy is an optional SOCKS5 proxy address ("host:port").
	Proxy string `yaml:"proxy,omitempty"`

	// Sites maps hosts to their site-specific configurations.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains site configuration applied to all sites
	// unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// DefaultChallengeMarkers returns the markers used when none are configured.
func DefaultChallengeMarkers() []string {
	return []string{"Cloudflare"}
}

// NewFile returns an empty settings file with defaults applied.
func NewFile() *File {
	return &File{
		Destinations:     make(map[string]Destination),
		ChallengeMarkers: DefaultChallengeMarkers(),
		Sites:            make(map[string]SiteConfig),
	}
}

// GetSiteConfig returns the configuration for a host.
// It merges the site-specific configuration with defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	if cf.Defaults.Headers != nil {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	siteConfig, ok := cf.Sites[strings.ToLower(host)]
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.MaxPages != 0 {
		result.MaxPages = siteConfig.MaxPages
	}
	if siteConfig.MaxDepth != 0 {
		result.MaxDepth = siteConfig.MaxDepth
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range siteConfig.Headers {
			result.Headers[k] = v
		}
	}
	if len(siteConfig.IgnorePatterns) > 0 {
		result.IgnorePatterns = siteConfig.IgnorePatterns
	}
	if len(siteConfig.FollowPatterns) > 0 {
		result.FollowPatterns = siteConfig.FollowPatterns
	}

	return result
}

// Destination resolves the upload endpoint for a domain.
// The lookup is case-insensitive and retries without a leading "www.".
// The returned destination always carries a token when one is configured.
func (cf *File) Destination(domain string) (Destination, error) {
	key := strings.ToLower(strings.TrimSpace(domain))
	dest, ok := cf.Destinations[key]
	if !ok {
		dest, ok = cf.Destinations[strings.TrimPrefix(key, "www.")]
	}
	if !ok || key == "" {
		return Destination{}, fmt.Errorf("%w: %q", ErrUnsupportedDomain, domain)
	}
	if dest.Token == "" {
		dest.Token = cf.UploadToken
	}
	return dest, nil
}
