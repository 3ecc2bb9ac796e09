package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/pagebinder/internal/model"
)

// FileName is the ledger file inside the database directory.
const FileName = "pagebinder.db"

// ErrNilJob is returned when a nil job is saved.
var ErrNilJob = errors.New("job is nil")

// JobDB is the SQLite job ledger.
type JobDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures JobDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for concurrent readers.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a JobDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*JobDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	jdb := &JobDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := jdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return jdb, nil
}

// Path returns the database file path.
func (jdb *JobDB) Path() string {
	return jdb.dbPath
}

// Close closes the database connection.
func (jdb *JobDB) Close() error {
	return jdb.db.Close()
}

func (jdb *JobDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		target TEXT NOT NULL,
		correlation_token TEXT NOT NULL,
		site_id TEXT,
		domain TEXT,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		started_at TEXT,
		finished_at TEXT,
		job_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
	CREATE INDEX IF NOT EXISTS idx_jobs_created ON jobs(created_at);
	`
	_, err := jdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveJob inserts a job, replacing any row with the same ID.
func (jdb *JobDB) SaveJob(ctx context.Context, job *model.Job) error {
	if job == nil {
		return ErrNilJob
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to serialize job: %w", err)
	}

	query := `
	INSERT INTO jobs (id, target, correlation_token, site_id, domain, status, created_at, started_at, finished_at, job_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		status = excluded.status,
		started_at = excluded.started_at,
		finished_at = excluded.finished_at,
		job_json = excluded.job_json
	`
	_, err = jdb.db.ExecContext(ctx, query,
		job.ID,
		job.Target.String(),
		job.CorrelationToken,
		job.SiteID,
		job.Domain,
		job.Status.String(),
		formatTimestamp(job.CreatedAt),
		formatTimestamp(job.StartedAt),
		formatTimestamp(job.FinishedAt),
		string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

// UpdateJob writes the current status and outcome of an existing job.
func (jdb *JobDB) UpdateJob(ctx context.Context, job *model.Job) error {
	if job == nil {
		return ErrNilJob
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to serialize job: %w", err)
	}

	query := `
	UPDATE jobs SET status = ?, started_at = ?, finished_at = ?, job_json = ?
	WHERE id = ?
	`
	result, err := jdb.db.ExecContext(ctx, query,
		job.Status.String(),
		formatTimestamp(job.StartedAt),
		formatTimestamp(job.FinishedAt),
		string(data),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update job: %s not found", job.ID)
	}
	return nil
}

// GetJob returns the job with the given ID, or nil if there is none.
func (jdb *JobDB) GetJob(ctx context.Context, id string) (*model.Job, error) {
	var data string
	err := jdb.db.QueryRowContext(ctx, `SELECT job_json FROM jobs WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	var job model.Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("failed to parse job: %w", err)
	}
	return &job, nil
}

// ListJobs returns the most recent jobs first. A limit of 0 returns all.
func (jdb *JobDB) ListJobs(ctx context.Context, limit int) ([]*model.Job, error) {
	query := `SELECT job_json FROM jobs ORDER BY created_at DESC, id`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := jdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		var job model.Job
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			continue // Skip malformed rows
		}
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}

// CountByStatus returns how many jobs are in each status.
func (jdb *JobDB) CountByStatus(ctx context.Context) (map[model.JobStatus]int, error) {
	rows, err := jdb.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.JobStatus]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		status, err := model.ParseJobStatus(name)
		if err != nil {
			continue
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// formatTimestamp stores times as RFC3339 text, empty for the zero time.
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
