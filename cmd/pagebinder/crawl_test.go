package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nao1215/pagebinder/internal/config"
	"github.com/nao1215/pagebinder/internal/log"
	"github.com/nao1215/pagebinder/internal/model"
	"github.com/nao1215/pagebinder/internal/report"
)

// newTestSite serves a two-page site with one off-host link.
func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><h1>Welcome</h1><p>Front page text.</p>
<a href="/about">About</a> <a href="https://elsewhere.invalid/x">Elsewhere</a></body></html>`)
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><p>About us.</p><a href="/">Home</a></body></html>`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// writeSettings writes a configuration file and returns its path.
func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pagebinder.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func testJob() *model.Job {
	job := model.NewJob("https://example.com/", "token", "7", "example.com")
	job.Status = model.JobSucceeded
	job.Stats = model.CrawlStats{Waves: 2, Visited: 3, Recorded: 2, Empty: 1}
	return job
}

func executeRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// TestCrawlCmdWritesDocument runs a full job against a local site.
func TestCrawlCmdWritesDocument(t *testing.T) {
	site := newTestSite(t)
	dir := t.TempDir()
	output := filepath.Join(dir, "site.pdf")
	workDir := filepath.Join(dir, "work")

	stdout, stderr, err := executeRoot(t, "crawl",
		"--config", writeSettings(t, "respect_robots: false\n"),
		"--work-dir", workDir,
		"--db-dir", dir,
		"--retry-delay", "0s",
		"--json",
		"-o", output,
		site.URL+"/",
	)
	if err != nil {
		t.Fatalf("crawl failed: %v\nstderr: %s", err, stderr)
	}

	content, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("expected document at %s: %v", output, err)
	}
	if !bytes.HasPrefix(content, []byte("%PDF")) {
		t.Error("output is not a PDF")
	}

	var got report.JSONReport
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("summary is not JSON: %v\n%s", err, stdout)
	}
	if got.Job.Status.String() != "succeeded" {
		t.Errorf("status = %s, want succeeded", got.Job.Status)
	}
	if got.Job.Stats.Recorded != 2 {
		t.Errorf("recorded = %d, want 2", got.Job.Stats.Recorded)
	}
	if got.Job.Stats.OutOfScope == 0 {
		t.Error("expected the off-host link to be counted as out of scope")
	}

	entries, err := os.ReadDir(workDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected job workspace to be removed, found %d entries", len(entries))
	}
}

// TestCrawlCmdFailsWithoutContent checks that an empty crawl is a job failure.
func TestCrawlCmdFailsWithoutContent(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body></body></html>`)
	}))
	t.Cleanup(site.Close)
	dir := t.TempDir()

	stdout, _, err := executeRoot(t, "crawl",
		"--config", writeSettings(t, "{}\n"),
		"--work-dir", filepath.Join(dir, "work"),
		"--db-dir", "",
		"-o", filepath.Join(dir, "out.pdf"),
		site.URL,
	)
	if err == nil || !strings.Contains(err.Error(), "synthesize") {
		t.Fatalf("expected failure at synthesize, got %v", err)
	}
	if !strings.Contains(stdout, "FAILED at synthesize") {
		t.Errorf("expected summary to report failure, got %q", stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, "out.pdf")); !os.IsNotExist(err) {
		t.Error("expected no document to be written")
	}
}

// TestCrawlCmdUpload checks delivery to a configured destination.
func TestCrawlCmdUpload(t *testing.T) {
	var uploads atomic.Int32
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.FormValue("ssa") != "client-1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		uploads.Add(1)
		_, _ = io.WriteString(w, `{"ok":true}`) //nolint:errcheck // test server
	}))
	t.Cleanup(sink.Close)

	site := newTestSite(t)
	settings := fmt.Sprintf("destinations:\n  127.0.0.1:\n    endpoint: %q\n    token: secret\n", sink.URL)
	dir := t.TempDir()

	_, stderr, err := executeRoot(t, "crawl",
		"--config", writeSettings(t, settings),
		"--work-dir", filepath.Join(dir, "work"),
		"--db-dir", "",
		"--upload", "--ssa", "client-1",
		site.URL,
	)
	if err != nil {
		t.Fatalf("crawl failed: %v\nstderr: %s", err, stderr)
	}
	if uploads.Load() != 1 {
		t.Errorf("uploads = %d, want 1", uploads.Load())
	}
}

func TestBuildCrawlOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "defaults", args: nil},
		{name: "upload needs ssa", args: []string{"--upload"}, wantErr: "--ssa"},
		{name: "empty output", args: []string{"-o", ""}, wantErr: "--output"},
		{name: "upload with ssa", args: []string{"--upload", "--ssa", "t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd := NewCrawlCmd()
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatal(err)
			}
			_, err := buildCrawlOptions(cmd, config.NewConfig())
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRunCrawlRejectsUnknownDestination(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.WorkDir = t.TempDir()
	cfg.DBDir = ""
	opts := &crawlOptions{upload: true, ssa: "t"}

	_, err := runCrawl(t.Context(), cfg, opts, "https://example.com/", log.NewSecureLogger(io.Discard, false))
	if err == nil || !strings.Contains(err.Error(), config.ErrUnsupportedDomain.Error()) {
		t.Fatalf("expected unsupported domain, got %v", err)
	}
}

func TestOutputReportFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		set  func(*config.Config)
		want string
	}{
		{name: "simple", set: func(*config.Config) {}, want: "PAGEBINDER JOB SUMMARY"},
		{name: "markdown", set: func(c *config.Config) { c.MarkdownReport = true }, want: "# pagebinder Job Summary"},
		{name: "json", set: func(c *config.Config) { c.JSONReport = true }, want: `"job"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.NewConfig()
			tt.set(cfg)
			job := testJob()
			var buf bytes.Buffer
			if err := outputReport(&buf, cfg, job); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("expected %q in output:\n%s", tt.want, buf.String())
			}
		})
	}

	t.Run("report file", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.ReportFile = filepath.Join(t.TempDir(), "reports", "job.txt")
		if err := outputReport(io.Discard, cfg, testJob()); err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(cfg.ReportFile); err != nil {
			t.Errorf("expected report file: %v", err)
		}
	})
}
