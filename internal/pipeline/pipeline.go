package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/pagebinder/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each receiving the job as left by the
// previous steps.
type Step interface {
	// Do executes the pipeline step.
	// Returns an error only for job-level failures; page-level problems
	// are recorded on the job and return nil.
	Do(ctx context.Context, job *model.Job) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// finalizers run after the steps, even after a failure or cancellation.
	finalizers []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. The first failure stays recorded on the job.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps:           make([]Step, 0),
		continueOnError: false,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// AddFinalizer appends a step that always runs after the others.
func (p *Pipeline) AddFinalizer(step Step) {
	p.finalizers = append(p.finalizers, step)
}

// Execute runs all pipeline steps in sequence, then the finalizers.
//
// Context cancellation is checked before each step. Finalizers run with a
// context that is never cancelled, so cleanup completes after a shutdown.
// Returns the first job-level error, which is also recorded on the job.
func (p *Pipeline) Execute(ctx context.Context, job *model.Job) error {
	err := p.run(ctx, job)

	final := context.WithoutCancel(ctx)
	for _, step := range p.finalizers {
		if ferr := step.Do(final, job); ferr != nil {
			p.logger.Warn("finalizer failed", "step", step.Name(), "job", job.ID, "error", ferr)
		}
		job.Steps = append(job.Steps, step.Name())
	}
	return err
}

func (p *Pipeline) run(ctx context.Context, job *model.Job) error {
	var first error
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled", "step", step.Name(), "job", job.ID, "reason", err)
			if first == nil {
				p.fail(job, step, err)
				first = err
			}
			return first
		}

		p.logger.Info("executing step", "step", step.Name(), "job", job.ID, "target", job.Target)

		if err := step.Do(ctx, job); err != nil {
			p.logger.Error("step failed", "step", step.Name(), "job", job.ID, "error", err)
			if first == nil {
				p.fail(job, step, err)
				first = err
			}
			if !p.continueOnError {
				return first
			}
		} else {
			p.logger.Debug("step completed", "step", step.Name(), "job", job.ID)
		}

		job.Steps = append(job.Steps, step.Name())
	}
	return first
}

func (p *Pipeline) fail(job *model.Job, step Step, err error) {
	job.Fail(err)
	job.FailedStep = step.Name()
}

// StepCount returns the number of steps in the pipeline, finalizers excluded.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps and finalizers in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, len(p.steps)+len(p.finalizers))
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	for _, step := range p.finalizers {
		names = append(names, step.Name())
	}
	return names
}
