package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// Changes to defaults must be intentional; these tests fail otherwise.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Timeout is 10 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 10*time.Second {
			t.Errorf("expected Timeout to be 10s, got %v", cfg.Timeout)
		}
	})

	t.Run("default Workers is 10", func(t *testing.T) {
		t.Parallel()
		if cfg.Workers != 10 {
			t.Errorf("expected Workers to be 10, got %d", cfg.Workers)
		}
	})

	t.Run("default retry policy is 3 attempts 2 seconds apart", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxAttempts != 3 {
			t.Errorf("expected MaxAttempts to be 3, got %d", cfg.MaxAttempts)
		}
		if cfg.RetryDelay != 2*time.Second {
			t.Errorf("expected RetryDelay to be 2s, got %v", cfg.RetryDelay)
		}
	})

	t.Run("default crawl is unlimited", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxPages != 0 || cfg.MaxDepth != 0 {
			t.Errorf("expected unlimited crawl, got pages=%d depth=%d", cfg.MaxPages, cfg.MaxDepth)
		}
	})

	t.Run("default ImageQuality is 30", func(t *testing.T) {
		t.Parallel()
		if cfg.ImageQuality != 30 {
			t.Errorf("expected ImageQuality to be 30, got %d", cfg.ImageQuality)
		}
	})

	t.Run("default WorkDir is under XDG cache", func(t *testing.T) {
		t.Parallel()
		if !strings.HasPrefix(cfg.WorkDir, XDGCacheDir()) {
			t.Errorf("expected WorkDir under %s, got %s", XDGCacheDir(), cfg.WorkDir)
		}
	})

	t.Run("default settings carry challenge markers", func(t *testing.T) {
		t.Parallel()
		if cfg.Settings == nil || len(cfg.Settings.ChallengeMarkers) == 0 {
			t.Error("expected default challenge markers")
		}
	})

	t.Run("default config is valid", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, ErrInvalidTimeout},
		{"zero workers", func(c *Config) { c.Workers = 0 }, ErrInvalidWorkers},
		{"zero attempts", func(c *Config) { c.MaxAttempts = 0 }, ErrInvalidMaxAttempts},
		{"negative retry delay", func(c *Config) { c.RetryDelay = -1 }, ErrInvalidRetryDelay},
		{"zero retry delay is valid", func(c *Config) { c.RetryDelay = 0 }, nil},
		{"negative rate", func(c *Config) { c.RequestsPerSecond = -1 }, ErrInvalidRate},
		{"negative body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"negative max pages", func(c *Config) { c.MaxPages = -1 }, ErrInvalidLimit},
		{"negative max depth", func(c *Config) { c.MaxDepth = -1 }, ErrInvalidLimit},
		{"quality zero", func(c *Config) { c.ImageQuality = 0 }, ErrInvalidImageQuality},
		{"quality above 100", func(c *Config) { c.ImageQuality = 101 }, ErrInvalidImageQuality},
		{"quality 100 is valid", func(c *Config) { c.ImageQuality = 100 }, nil},
		{"empty work dir", func(c *Config) { c.WorkDir = "" }, ErrNoWorkDir},
		{"zero job concurrency", func(c *Config) { c.JobConcurrency = 0 }, ErrInvalidJobConcurrency},
		{"json and markdown", func(c *Config) { c.JSONReport = true; c.MarkdownReport = true }, ErrConflictingReportFormats},
		{"markdown only is valid", func(c *Config) { c.MarkdownReport = true }, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := NewConfig()
			tc.modify(cfg)
			err := cfg.Validate()
			if tc.want == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

// TestFileGetSiteConfig tests merging of site-specific configuration over defaults.
func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	t.Run("returns defaults when site not found", func(t *testing.T) {
		t.Parallel()
		cf := &File{
			Defaults: SiteConfig{Cookie: "a=b", MaxPages: 5},
			Sites:    map[string]SiteConfig{},
		}
		got := cf.GetSiteConfig("example.com")
		if got.Cookie != "a=b" || got.MaxPages != 5 {
			t.Errorf("unexpected config %+v", got)
		}
	})

	t.Run("site values override defaults", func(t *testing.T) {
		t.Parallel()
		cf := &File{
			Defaults: SiteConfig{Cookie: "a=b", MaxDepth: 2, IgnorePatterns: []string{"/tmp/*"}},
			Sites: map[string]SiteConfig{
				"example.com": {Cookie: "c=d", MaxDepth: 4, IgnorePatterns: []string{"/admin/**"}},
			},
		}
		got := cf.GetSiteConfig("Example.com")
		if got.Cookie != "c=d" {
			t.Errorf("expected site cookie, got %q", got.Cookie)
		}
		if got.MaxDepth != 4 {
			t.Errorf("expected depth 4, got %d", got.MaxDepth)
		}
		if len(got.IgnorePatterns) != 1 || got.IgnorePatterns[0] != "/admin/**" {
			t.Errorf("unexpected ignore patterns %v", got.IgnorePatterns)
		}
	})

	t.Run("merges headers without mutating defaults", func(t *testing.T) {
		t.Parallel()
		cf := &File{
			Defaults: SiteConfig{Headers: map[string]string{"X-A": "1"}},
			Sites: map[string]SiteConfig{
				"example.com": {Headers: map[string]string{"X-B": "2"}},
			},
		}
		got := cf.GetSiteConfig("example.com")
		if got.Headers["X-A"] != "1" || got.Headers["X-B"] != "2" {
			t.Errorf("unexpected headers %v", got.Headers)
		}
		if _, ok := cf.Defaults.Headers["X-B"]; ok {
			t.Error("defaults must not be mutated by a merge")
		}
	})

	t.Run("nil sites map", func(t *testing.T) {
		t.Parallel()
		cf := &File{Defaults: SiteConfig{Cookie: "x=y"}}
		if got := cf.GetSiteConfig("example.com"); got.Cookie != "x=y" {
			t.Errorf("expected default cookie, got %q", got.Cookie)
		}
	})
}

// TestFileDestination tests upload destination resolution.
func TestFileDestination(t *testing.T) {
	t.Parallel()

	cf := &File{
		UploadToken: "default-token",
		Destinations: map[string]Destination{
			"example.com": {Endpoint: "https://upload.example.net/a"},
			"other.org":   {Endpoint: "https://upload.example.net/b", Token: "own"},
		},
	}

	t.Run("exact domain uses default token", func(t *testing.T) {
		t.Parallel()
		dest, err := cf.Destination("example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dest.Endpoint != "https://upload.example.net/a" || dest.Token != "default-token" {
			t.Errorf("unexpected destination %+v", dest)
		}
	})

	t.Run("own token wins", func(t *testing.T) {
		t.Parallel()
		dest, err := cf.Destination("other.org")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dest.Token != "own" {
			t.Errorf("expected own token, got %q", dest.Token)
		}
	})

	t.Run("www prefix falls back", func(t *testing.T) {
		t.Parallel()
		if _, err := cf.Destination("WWW.Example.com"); err != nil {
			t.Errorf("expected fallback to example.com, got %v", err)
		}
	})

	t.Run("unknown domain is unsupported", func(t *testing.T) {
		t.Parallel()
		_, err := cf.Destination("unknown.com")
		if !errors.Is(err, ErrUnsupportedDomain) {
			t.Errorf("expected ErrUnsupportedDomain, got %v", err)
		}
	})

	t.Run("empty domain is unsupported", func(t *testing.T) {
		t.Parallel()
		_, err := cf.Destination("")
		if !errors.Is(err, ErrUnsupportedDomain) {
			t.Errorf("expected ErrUnsupportedDomain, got %v", err)
		}
	})
}

// TestLoadConfigFile tests loading settings from YAML.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `
upload_token: secret
destinations:
  example.com:
    endpoint: https://upload.example.net/files
fonts:
  text: /fonts/DejaVuSans.ttf
respect_robots: true
defaults:
  max_pages: 50
sites:
  example.com:
    cookie: session=abc
    ignore_patterns:
      - /logout
`
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.UploadToken != "secret" {
			t.Errorf("expected upload token, got %q", cf.UploadToken)
		}
		if cf.Destinations["example.com"].Endpoint != "https://upload.example.net/files" {
			t.Errorf("unexpected destinations %v", cf.Destinations)
		}
		if cf.Fonts.Text != "/fonts/DejaVuSans.ttf" {
			t.Errorf("unexpected text font %q", cf.Fonts.Text)
		}
		if !cf.RespectRobots {
			t.Error("expected respect_robots to be true")
		}
		if len(cf.ChallengeMarkers) != 1 || cf.ChallengeMarkers[0] != "Cloudflare" {
			t.Errorf("expected default challenge markers, got %v", cf.ChallengeMarkers)
		}
		site := cf.GetSiteConfig("example.com")
		if site.Cookie != "session=abc" || site.MaxPages != 50 {
			t.Errorf("unexpected site config %+v", site)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("destinations: [\n"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("rejects destination without endpoint", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "dest.yaml")
		content := "destinations:\n  example.com:\n    token: x\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		_, err := LoadConfigFile(path)
		if !errors.Is(err, ErrInvalidDestination) {
			t.Errorf("expected ErrInvalidDestination, got %v", err)
		}
	})

	t.Run("initializes nil maps", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "empty.yaml")
		if err := os.WriteFile(path, []byte("upload_token: x\n"), 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Sites == nil || cf.Destinations == nil {
			t.Error("expected maps to be initialized")
		}
	})
}

// TestFindConfigFile tests configuration file discovery.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte{}, 0o600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()
		if got := FindConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); got != "" {
			t.Errorf("expected empty path, got %s", got)
		}
	})
}

// TestXDGDirs tests that XDG directories are namespaced by application name.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
		"cache":  XDGCacheDir(),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if filepath.Base(dir) != AppName {
				t.Errorf("expected %s to end with %s", dir, AppName)
			}
		})
	}

	if filepath.Base(XDGJobsDir()) != "jobs" {
		t.Errorf("unexpected jobs dir %s", XDGJobsDir())
	}
}
