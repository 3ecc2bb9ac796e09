package pipeline

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/nao1215/pagebinder/internal/model"
)

// JobStore records job status transitions.
//
// database.JobDB implements it for the server. MemoryStore is used by the
// crawl command and in tests.
type JobStore interface {
	SaveJob(ctx context.Context, job *model.Job) error
	UpdateJob(ctx context.Context, job *model.Job) error
	GetJob(ctx context.Context, id string) (*model.Job, error)
}

// MemoryStore is an in-process JobStore. It keeps snapshots, so readers
// never share memory with a running job.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*model.Job)}
}

// SaveJob stores a snapshot of job.
func (s *MemoryStore) SaveJob(_ context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = snapshot(job)
	return nil
}

// UpdateJob replaces the snapshot of an existing job.
func (s *MemoryStore) UpdateJob(_ context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; !ok {
		return fmt.Errorf("failed to update job: %s not found", job.ID)
	}
	s.jobs[job.ID] = snapshot(job)
	return nil
}

// GetJob returns a copy of the job, or nil if there is none.
func (s *MemoryStore) GetJob(_ context.Context, id string) (*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	return snapshot(job), nil
}

func snapshot(job *model.Job) *model.Job {
	c := *job
	c.Records = nil
	c.Steps = slices.Clone(job.Steps)
	return &c
}
