package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/pagebinder/internal/artifact"
	"github.com/nao1215/pagebinder/internal/crawler"
	"github.com/nao1215/pagebinder/internal/document"
	"github.com/nao1215/pagebinder/internal/model"
	"github.com/nao1215/pagebinder/internal/reduce"
	"github.com/nao1215/pagebinder/internal/upload"
)

type fakeCrawler struct {
	records []model.PageRecord
	err     error
}

func (c *fakeCrawler) Crawl(_ context.Context, _ string) (*crawler.Result, error) {
	return &crawler.Result{
		Records: c.records,
		Stats:   model.CrawlStats{Visited: len(c.records), Recorded: len(c.records)},
	}, c.err
}

type fakeSynthesizer struct{ err error }

func (s *fakeSynthesizer) Synthesize(_ context.Context, records []model.PageRecord, path string) (*document.Artifact, error) {
	if s.err != nil {
		return nil, s.err
	}
	if err := os.WriteFile(path, []byte("%PDF raw"), 0o600); err != nil {
		return nil, err
	}
	return &document.Artifact{Path: path, Records: len(records), Size: 8}, nil
}

type fakeReducer struct{ err error }

func (r *fakeReducer) Reduce(_ context.Context, in, out string) (*reduce.Stats, error) {
	if r.err != nil {
		return nil, r.err
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(out, data[:4], 0o600); err != nil {
		return nil, err
	}
	return &reduce.Stats{BytesIn: int64(len(data)), BytesOut: 4, Replaced: 1}, nil
}

type fakeSink struct {
	got     upload.Delivery
	receipt *upload.Receipt
	err     error
}

func (s *fakeSink) Deliver(_ context.Context, d upload.Delivery) (*upload.Receipt, error) {
	s.got = d
	return s.receipt, s.err
}

func testDeps(t *testing.T, c Crawler, synth Synthesizer, red Reducer, sink upload.Sink) Deps {
	t.Helper()
	return Deps{
		WorkDir:     t.TempDir(),
		Crawlers:    func(*model.Job) (Crawler, error) { return c, nil },
		Synthesizer: synth,
		Reducer:     red,
		Sinks:       func(*model.Job) (upload.Sink, error) { return sink, nil },
		Logger:      quietLogger(),
	}
}

var twoRecords = []model.PageRecord{
	{Location: "https://example.com/", Content: "home"},
	{Location: "https://example.com/a", Content: "Hello"},
}

// TestJobPipelineSuccess tests a delivered job and its cleanup.
func TestJobPipelineSuccess(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{receipt: &upload.Receipt{StatusCode: 200, Body: `{"ok":true}`}}
	deps := testDeps(t, &fakeCrawler{records: twoRecords}, &fakeSynthesizer{}, &fakeReducer{}, sink)

	job := newTestJob()
	if err := NewJobPipeline(deps).Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := []string{StepPrepare, StepCrawl, StepSynthesize, StepReduce, StepDeliver, StepCleanup}
	if len(job.Steps) != len(want) {
		t.Fatalf("Steps = %v", job.Steps)
	}
	for i := range want {
		if job.Steps[i] != want[i] {
			t.Errorf("Steps[%d] = %q, want %q", i, job.Steps[i], want[i])
		}
	}
	if job.Stats.Recorded != 2 || job.RawSize != 8 || job.CompactSize != 4 || job.ImagesReplaced != 1 {
		t.Errorf("outcome not recorded: %+v", job)
	}
	if job.UploadStatus != 200 || job.UploadResponse != `{"ok":true}` {
		t.Errorf("upload not recorded: %d %q", job.UploadStatus, job.UploadResponse)
	}
	if sink.got.CorrelationToken != "token" || sink.got.SiteID != "1" {
		t.Errorf("delivery = %+v", sink.got)
	}
	if job.RawPath != "" || job.CompactPath != "" {
		t.Error("artifact paths should be cleared after cleanup")
	}
	entries, err := os.ReadDir(deps.WorkDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("work dir not cleaned: %v", entries)
	}
}

// TestJobPipelineDeliveryFailure tests that the compact document is kept.
func TestJobPipelineDeliveryFailure(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{receipt: &upload.Receipt{StatusCode: 500, Body: "oops"}, err: upload.ErrUploadFailed}
	deps := testDeps(t, &fakeCrawler{records: twoRecords}, &fakeSynthesizer{}, &fakeReducer{}, sink)

	job := newTestJob()
	err := NewJobPipeline(deps).Execute(context.Background(), job)
	if !errors.Is(err, upload.ErrUploadFailed) {
		t.Fatalf("Execute() error = %v", err)
	}
	if job.FailedStep != StepDeliver || job.UploadStatus != 500 {
		t.Errorf("failure not recorded: %+v", job)
	}
	if job.CompactPath == "" {
		t.Fatal("compact path should be kept")
	}
	if _, err := os.Stat(job.CompactPath); err != nil {
		t.Errorf("compact document missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(job.CompactPath), artifact.RawName)); !os.IsNotExist(err) {
		t.Error("raw document should be removed")
	}
}

// TestJobPipelineEarlyFailures tests cleanup after synthesis and reduction failures.
func TestJobPipelineEarlyFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		synth Synthesizer
		red   Reducer
		crawl *fakeCrawler
		step  string
	}{
		{name: "synthesis fails", synth: &fakeSynthesizer{err: errors.New("render")}, red: &fakeReducer{}, crawl: &fakeCrawler{records: twoRecords}, step: StepSynthesize},
		{name: "reduction fails", synth: &fakeSynthesizer{}, red: &fakeReducer{err: errors.New("reduce")}, crawl: &fakeCrawler{records: twoRecords}, step: StepReduce},
		{name: "no records", synth: &fakeSynthesizer{}, red: &fakeReducer{}, crawl: &fakeCrawler{}, step: StepSynthesize},
		{name: "crawl cancelled", synth: &fakeSynthesizer{}, red: &fakeReducer{}, crawl: &fakeCrawler{records: twoRecords, err: context.Canceled}, step: StepCrawl},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sink := &fakeSink{receipt: &upload.Receipt{StatusCode: 200}}
			deps := testDeps(t, tt.crawl, tt.synth, tt.red, sink)

			job := newTestJob()
			if err := NewJobPipeline(deps).Execute(context.Background(), job); err == nil {
				t.Fatal("expected error")
			}
			if job.FailedStep != tt.step {
				t.Errorf("FailedStep = %q, want %q", job.FailedStep, tt.step)
			}
			if sink.got.Path != "" {
				t.Error("sink should not be called")
			}
			entries, err := os.ReadDir(deps.WorkDir)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 0 {
				t.Errorf("work dir not cleaned: %v", entries)
			}
		})
	}
}

// TestOutcome tests the mapping from job state to cleanup policy.
func TestOutcome(t *testing.T) {
	t.Parallel()

	job := newTestJob()
	if Outcome(job) != artifact.OutcomeDelivered {
		t.Error("successful job should be delivered")
	}
	job.Fail(errors.New("x"))
	job.FailedStep = StepDeliver
	if Outcome(job) != artifact.OutcomeDeliveryFailed {
		t.Error("delivery failure should keep the compact document")
	}
	job.FailedStep = StepReduce
	if Outcome(job) != artifact.OutcomeFailed {
		t.Error("reduce failure should remove everything")
	}
}
