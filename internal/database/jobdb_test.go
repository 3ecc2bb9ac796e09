package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/pagebinder/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *JobDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("Path() = %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("reopens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		job := model.NewJob("https://example.com/", "tok", "", "")
		if err := db.SaveJob(context.Background(), job); err != nil {
			t.Fatalf("SaveJob() error = %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()
		got, err := db.GetJob(context.Background(), job.ID)
		if err != nil || got == nil {
			t.Fatalf("GetJob() = %v, %v", got, err)
		}
	})
}

// TestJobLifecycle tests saving, updating and reading a job.
func TestJobLifecycle(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	job := model.NewJob("https://example.com/", "token-1", "42", "example.com")
	if err := db.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob() error = %v", err)
	}

	got, err := db.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got.Status != model.JobQueued || got.CorrelationToken != "token-1" || got.SiteID != "42" {
		t.Errorf("GetJob() = %+v", got)
	}

	job.Status = model.JobFailed
	job.StartedAt = time.Now().UTC()
	job.FinishedAt = job.StartedAt.Add(time.Second)
	job.Stats.Recorded = 3
	job.UploadStatus = 500
	job.Fail(errors.New("upload failed: status 500"))
	if err := db.UpdateJob(ctx, job); err != nil {
		t.Fatalf("UpdateJob() error = %v", err)
	}

	got, err = db.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got.Status != model.JobFailed {
		t.Errorf("Status = %v, want failed", got.Status)
	}
	if got.Stats.Recorded != 3 || got.UploadStatus != 500 {
		t.Errorf("outcome not persisted: %+v", got)
	}
	if got.ErrorMessage != "upload failed: status 500" {
		t.Errorf("ErrorMessage = %q", got.ErrorMessage)
	}
	if got.Duration() != time.Second {
		t.Errorf("Duration() = %v", got.Duration())
	}
}

// TestGetJobMissing tests that an unknown ID returns nil without error.
func TestGetJobMissing(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	got, err := db.GetJob(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if got != nil {
		t.Errorf("GetJob() = %+v, want nil", got)
	}
}

// TestUpdateJobMissing tests that updating an unknown job fails.
func TestUpdateJobMissing(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	if err := db.UpdateJob(context.Background(), model.NewJob("https://a.test/", "t", "", "")); err == nil {
		t.Error("expected error")
	}
	if err := db.SaveJob(context.Background(), nil); !errors.Is(err, ErrNilJob) {
		t.Errorf("SaveJob(nil) error = %v", err)
	}
}

// TestListJobs tests ordering, limits and status counts.
func TestListJobs(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := range 3 {
		job := model.NewJob("https://example.com/", "t", "", "")
		job.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if i == 2 {
			job.Status = model.JobSucceeded
		}
		if err := db.SaveJob(ctx, job); err != nil {
			t.Fatalf("SaveJob() error = %v", err)
		}
		ids = append(ids, job.ID)
	}

	all, err := db.ListJobs(ctx, 0)
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	if len(all) != 3 || all[0].ID != ids[2] || all[2].ID != ids[0] {
		t.Errorf("ListJobs() order wrong")
	}

	limited, err := db.ListJobs(ctx, 2)
	if err != nil {
		t.Fatalf("ListJobs() error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("ListJobs(2) returned %d jobs", len(limited))
	}

	counts, err := db.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus() error = %v", err)
	}
	if counts[model.JobQueued] != 2 || counts[model.JobSucceeded] != 1 {
		t.Errorf("CountByStatus() = %v", counts)
	}
}
