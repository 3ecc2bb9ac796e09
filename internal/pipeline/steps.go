package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/nao1215/pagebinder/internal/artifact"
	"github.com/nao1215/pagebinder/internal/crawler"
	"github.com/nao1215/pagebinder/internal/document"
	"github.com/nao1215/pagebinder/internal/model"
	"github.com/nao1215/pagebinder/internal/reduce"
	"github.com/nao1215/pagebinder/internal/upload"
)

// Step names, recorded in Job.Steps and Job.FailedStep.
const (
	StepPrepare    = "prepare"
	StepCrawl      = "crawl"
	StepSynthesize = "synthesize"
	StepReduce     = "reduce"
	StepDeliver    = "deliver"
	StepCleanup    = "cleanup"
)

// ErrNoRecords is returned by the synthesize step when the crawl found no content.
var ErrNoRecords = errors.New("crawl produced no content")

// Crawler crawls one site.
type Crawler interface {
	Crawl(ctx context.Context, base string) (*crawler.Result, error)
}

// CrawlerFactory builds a crawler for a job, so per-site settings apply.
type CrawlerFactory func(job *model.Job) (Crawler, error)

// Synthesizer renders page records into a document.
type Synthesizer interface {
	Synthesize(ctx context.Context, records []model.PageRecord, path string) (*document.Artifact, error)
}

// Reducer writes a size-reduced copy of a document.
type Reducer interface {
	Reduce(ctx context.Context, in, out string) (*reduce.Stats, error)
}

// SinkResolver picks where a job's document goes.
type SinkResolver func(job *model.Job) (upload.Sink, error)

// PrepareStep creates the job's artifact workspace.
type PrepareStep struct {
	root string
}

// NewPrepareStep creates a PrepareStep that places workspaces under root.
func NewPrepareStep(root string) *PrepareStep {
	return &PrepareStep{root: root}
}

// Name returns the step name.
func (s *PrepareStep) Name() string { return StepPrepare }

// Do creates the workspace and sets the artifact paths on the job.
func (s *PrepareStep) Do(_ context.Context, job *model.Job) error {
	ws, err := artifact.NewWorkspace(s.root, job.CorrelationToken, job.ID)
	if err != nil {
		return err
	}
	job.RawPath = ws.RawPath()
	job.CompactPath = ws.CompactPath()
	return nil
}

// CrawlStep crawls the job's target.
type CrawlStep struct {
	factory CrawlerFactory
	logger  *slog.Logger
}

// NewCrawlStep creates a CrawlStep.
func NewCrawlStep(factory CrawlerFactory, logger *slog.Logger) *CrawlStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CrawlStep{factory: factory, logger: logger}
}

// Name returns the step name.
func (s *CrawlStep) Name() string { return StepCrawl }

// Do runs the crawl. Page failures never fail the step; only an invalid
// target or cancellation does.
func (s *CrawlStep) Do(ctx context.Context, job *model.Job) error {
	c, err := s.factory(job)
	if err != nil {
		return fmt.Errorf("failed to build crawler: %w", err)
	}

	result, err := c.Crawl(ctx, job.Target.String())
	if result != nil {
		job.Records = result.Records
		job.Stats = result.Stats
	}
	if err != nil {
		return err
	}

	s.logger.Info("crawl finished",
		"job", job.ID,
		"target", job.Target,
		"visited", job.Stats.Visited,
		"recorded", job.Stats.Recorded,
		"waves", job.Stats.Waves,
	)
	return nil
}

// SynthesizeStep renders the crawl records into the raw document.
type SynthesizeStep struct {
	synth Synthesizer
}

// NewSynthesizeStep creates a SynthesizeStep.
func NewSynthesizeStep(synth Synthesizer) *SynthesizeStep {
	return &SynthesizeStep{synth: synth}
}

// Name returns the step name.
func (s *SynthesizeStep) Name() string { return StepSynthesize }

// Do writes the raw document to job.RawPath.
func (s *SynthesizeStep) Do(ctx context.Context, job *model.Job) error {
	if len(job.Records) == 0 {
		return ErrNoRecords
	}
	art, err := s.synth.Synthesize(ctx, job.Records, job.RawPath)
	if err != nil {
		return err
	}
	job.RawSize = art.Size
	job.SegmentsFailed = art.FailedSegments
	return nil
}

// ReduceStep writes the compact document.
type ReduceStep struct {
	reducer Reducer
}

// NewReduceStep creates a ReduceStep.
func NewReduceStep(reducer Reducer) *ReduceStep {
	return &ReduceStep{reducer: reducer}
}

// Name returns the step name.
func (s *ReduceStep) Name() string { return StepReduce }

// Do reduces job.RawPath into job.CompactPath.
func (s *ReduceStep) Do(ctx context.Context, job *model.Job) error {
	stats, err := s.reducer.Reduce(ctx, job.RawPath, job.CompactPath)
	if err != nil {
		return err
	}
	job.CompactSize = stats.BytesOut
	job.ImagesReplaced = stats.Replaced
	return nil
}

// DeliverStep hands the compact document to its sink.
type DeliverStep struct {
	sinks SinkResolver
}

// NewDeliverStep creates a DeliverStep.
func NewDeliverStep(sinks SinkResolver) *DeliverStep {
	return &DeliverStep{sinks: sinks}
}

// Name returns the step name.
func (s *DeliverStep) Name() string { return StepDeliver }

// Do delivers the document and records the sink's answer.
func (s *DeliverStep) Do(ctx context.Context, job *model.Job) error {
	sink, err := s.sinks(job)
	if err != nil {
		return err
	}
	receipt, err := sink.Deliver(ctx, upload.Delivery{
		Path:             job.CompactPath,
		CorrelationToken: job.CorrelationToken,
		SiteID:           job.SiteID,
	})
	if receipt != nil {
		job.UploadStatus = receipt.StatusCode
		job.UploadResponse = receipt.Body
	}
	return err
}

// CleanupStep removes the job's artifacts. It is meant to run as a finalizer.
type CleanupStep struct {
	logger *slog.Logger
}

// NewCleanupStep creates a CleanupStep.
func NewCleanupStep(logger *slog.Logger) *CleanupStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupStep{logger: logger}
}

// Name returns the step name.
func (s *CleanupStep) Name() string { return StepCleanup }

// Do removes everything after a delivery or an early failure. After a
// failed delivery the compact document is kept.
func (s *CleanupStep) Do(_ context.Context, job *model.Job) error {
	if job.RawPath == "" {
		return nil
	}
	ws := artifact.Open(filepath.Dir(job.RawPath))

	outcome := Outcome(job)
	if err := ws.Cleanup(outcome); err != nil {
		return err
	}
	job.RawPath = ""
	if outcome != artifact.OutcomeDeliveryFailed {
		job.CompactPath = ""
	} else {
		s.logger.Warn("compact document kept after failed delivery", "job", job.ID, "path", job.CompactPath)
	}
	return nil
}

// Outcome maps a finished job onto the cleanup policy.
func Outcome(job *model.Job) artifact.Outcome {
	switch {
	case !job.Failed():
		return artifact.OutcomeDelivered
	case job.FailedStep == StepDeliver:
		return artifact.OutcomeDeliveryFailed
	default:
		return artifact.OutcomeFailed
	}
}

// Deps are the collaborators of a job pipeline.
type Deps struct {
	// WorkDir is where job workspaces are created.
	WorkDir string

	Crawlers    CrawlerFactory
	Synthesizer Synthesizer
	Reducer     Reducer
	Sinks       SinkResolver

	Logger *slog.Logger
}

// NewJobPipeline builds prepare, crawl, synthesize, reduce and deliver
// with cleanup as the finalizer.
func NewJobPipeline(d Deps) *Pipeline {
	p := New(WithLogger(d.Logger))
	p.AddSteps(
		NewPrepareStep(d.WorkDir),
		NewCrawlStep(d.Crawlers, d.Logger),
		NewSynthesizeStep(d.Synthesizer),
		NewReduceStep(d.Reducer),
		NewDeliverStep(d.Sinks),
	)
	p.AddFinalizer(NewCleanupStep(d.Logger))
	return p
}
