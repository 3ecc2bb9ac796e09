package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pagebinder/internal/model"
)

var (
	// ErrQueueFull is returned by Submit when the backlog is at capacity.
	ErrQueueFull = errors.New("job queue is full")

	// ErrDispatcherClosed is returned by Submit after Shutdown.
	ErrDispatcherClosed = errors.New("dispatcher is shut down")
)

// Dispatcher runs submitted jobs in the background.
//
// Design decision: a fixed set of workers started with errgroup drains a
// buffered queue. Submit never blocks, so the API can acknowledge a job
// immediately; a full queue is reported instead of stalling the caller.
type Dispatcher struct {
	// pipelineFactory creates a new pipeline for each job.
	pipelineFactory func() *Pipeline

	// store records status transitions.
	store JobStore

	// concurrency is the maximum number of jobs running at once.
	concurrency int

	// queueSize is the number of jobs that may wait for a worker.
	queueSize int

	logger *slog.Logger

	queue   chan *model.Job
	group   *errgroup.Group
	cancel  context.CancelFunc
	pending sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets a custom logger for the dispatcher.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent jobs.
// Default is 2 if not specified.
func WithConcurrency(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithQueueSize sets how many jobs may wait for a worker. Default is 100.
func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queueSize = n
		}
	}
}

// NewDispatcher creates a Dispatcher and starts its workers.
//
// The pipelineFactory function is called for each job so pipeline state
// never leaks between jobs. Workers stop when ctx is cancelled or after
// Shutdown.
func NewDispatcher(ctx context.Context, pipelineFactory func() *Pipeline, store JobStore, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		pipelineFactory: pipelineFactory,
		store:           store,
		concurrency:     2,
		queueSize:       100,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}

	ctx, d.cancel = context.WithCancel(ctx)
	d.queue = make(chan *model.Job, d.queueSize)
	d.group, ctx = errgroup.WithContext(ctx)
	for i := range d.concurrency {
		d.group.Go(func() error {
			d.work(ctx, i)
			return nil
		})
	}
	return d
}

// Submit records job as queued and hands it to a worker. It returns
// without waiting for the job to run.
func (d *Dispatcher) Submit(ctx context.Context, job *model.Job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	job.Status = model.JobQueued
	if err := d.store.SaveJob(ctx, job); err != nil {
		return err
	}

	d.pending.Add(1)
	select {
	case d.queue <- job:
		d.logger.Info("job queued", "job", job.ID, "target", job.Target)
		return nil
	default:
		d.pending.Done()
		job.Fail(ErrQueueFull)
		d.finish(ctx, job)
		return ErrQueueFull
	}
}

// Wait blocks until every submitted job has finished.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

// Shutdown stops accepting jobs and waits for queued and running jobs.
// If ctx ends first, running jobs are cancelled and Shutdown returns
// ctx.Err() once the workers have exited.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = d.group.Wait() //nolint:errcheck // workers never return errors
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

func (d *Dispatcher) work(ctx context.Context, worker int) {
	for job := range d.queue {
		d.run(ctx, job, worker)
		d.pending.Done()
	}
}

func (d *Dispatcher) run(ctx context.Context, job *model.Job, worker int) {
	job.Status = model.JobRunning
	job.StartedAt = time.Now().UTC()
	if err := d.store.UpdateJob(context.WithoutCancel(ctx), job); err != nil {
		d.logger.Warn("failed to record job start", "job", job.ID, "error", err)
	}

	d.logger.Info("job started", "job", job.ID, "worker", worker)
	_ = d.pipelineFactory().Execute(ctx, job) //nolint:errcheck // Error is stored in job
	d.finish(ctx, job)
}

// finish sets the terminal status and records it.
func (d *Dispatcher) finish(ctx context.Context, job *model.Job) {
	job.FinishedAt = time.Now().UTC()
	if job.Failed() {
		job.Status = model.JobFailed
		d.logger.Warn("job failed", "job", job.ID, "step", job.FailedStep, "error", job.ErrorMessage)
	} else {
		job.Status = model.JobSucceeded
		d.logger.Info("job succeeded", "job", job.ID, "elapsed", job.Duration())
	}
	if err := d.store.UpdateJob(context.WithoutCancel(ctx), job); err != nil {
		d.logger.Warn("failed to record job outcome", "job", job.ID, "error", err)
	}
}
