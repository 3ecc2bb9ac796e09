package main

import (
	"io"
	"strings"
	"testing"

	"github.com/nao1215/pagebinder/internal/config"
	"github.com/nao1215/pagebinder/internal/log"
)

func TestNewServeCmd(t *testing.T) {
	t.Parallel()

	cmd := NewServeCmd()
	for name, def := range map[string]string{
		"listen":      config.DefaultListenAddress,
		"concurrency": "2",
		"queue-size":  "100",
		"json-log":    "false",
		"workers":     "10",
	} {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			t.Errorf("expected %s flag", name)
			continue
		}
		if flag.DefValue != def {
			t.Errorf("%s default = %q, want %q", name, flag.DefValue, def)
		}
	}
}

func TestRunServeRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.WorkDir = t.TempDir()
	cfg.DBDir = ""
	cfg.JobConcurrency = 0

	err := runServe(t.Context(), cfg, 1, log.NewSecureLogger(io.Discard, false))
	if err == nil || !strings.Contains(err.Error(), "job concurrency") {
		t.Fatalf("expected job concurrency error, got %v", err)
	}
}
