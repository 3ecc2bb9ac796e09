package main

import (
	"fmt"
	"log/slog"

	"github.com/nao1215/pagebinder/internal/config"
	"github.com/nao1215/pagebinder/internal/crawler"
	"github.com/nao1215/pagebinder/internal/database"
	"github.com/nao1215/pagebinder/internal/document"
	"github.com/nao1215/pagebinder/internal/fetch"
	"github.com/nao1215/pagebinder/internal/model"
	"github.com/nao1215/pagebinder/internal/pipeline"
	"github.com/nao1215/pagebinder/internal/reduce"
	"github.com/nao1215/pagebinder/internal/transport"
	"github.com/nao1215/pagebinder/internal/upload"
)

// app holds the collaborators shared by every job of one process.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	client      *transport.Client
	synthesizer *document.Synthesizer
	reducer     *reduce.Reducer
}

// newApp validates cfg and builds the shared collaborators.
func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	client, err := transport.NewClient(
		transport.WithProxy(cfg.Settings.Proxy),
		transport.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	pdfOpts := []document.PDFOption{document.WithTitle("Scraped content")}
	if cfg.Settings.Fonts.Text != "" {
		pdfOpts = append(pdfOpts, document.WithTextFont(cfg.Settings.Fonts.Text))
	}
	if cfg.Settings.Fonts.Symbol != "" {
		pdfOpts = append(pdfOpts, document.WithSymbolFont(cfg.Settings.Fonts.Symbol))
	}
	factory, err := document.NewPDFFactory(pdfOpts...)
	if err != nil {
		return nil, err
	}

	reducer, err := reduce.New(
		reduce.WithQuality(cfg.ImageQuality),
		reduce.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:         cfg,
		logger:      logger,
		client:      client,
		synthesizer: document.NewSynthesizer(factory, document.WithSynthesizerLogger(logger)),
		reducer:     reducer,
	}, nil
}

// newCrawler builds a crawl engine for one job, applying the settings of
// the target's host.
func (a *app) newCrawler(job *model.Job) (pipeline.Crawler, error) {
	site := a.cfg.Settings.GetSiteConfig(job.Target.Hostname())

	fetcher := fetch.NewHTTPFetcher(
		a.client.HTTPClientWithConfig(site.Cookie, nil),
		fetch.WithUserAgent(a.cfg.UserAgent),
		fetch.WithHeaders(site.Headers),
		fetch.WithMaxBodySize(a.cfg.MaxBodySize),
		fetch.WithRateLimit(a.cfg.RequestsPerSecond),
		fetch.WithLogger(a.logger),
	)
	retrier := fetch.NewRetrier(fetcher,
		fetch.WithMaxAttempts(a.cfg.MaxAttempts),
		fetch.WithDelay(a.cfg.RetryDelay),
		fetch.WithRetryLogger(a.logger),
	)

	maxPages := a.cfg.MaxPages
	if site.MaxPages > 0 {
		maxPages = site.MaxPages
	}
	maxDepth := a.cfg.MaxDepth
	if site.MaxDepth > 0 {
		maxDepth = site.MaxDepth
	}

	opts := []crawler.EngineOption{
		crawler.WithWorkers(a.cfg.Workers),
		crawler.WithChallengeMarkers(a.cfg.Settings.ChallengeMarkers),
		crawler.WithMaxPages(maxPages),
		crawler.WithMaxDepth(maxDepth),
		crawler.WithIgnorePatterns(site.IgnorePatterns),
		crawler.WithFollowPatterns(site.FollowPatterns),
		crawler.WithCrawlLogger(a.logger),
	}
	if a.cfg.Settings.RespectRobots {
		opts = append(opts, crawler.WithRobots(fetcher, a.cfg.UserAgent))
	}
	return crawler.NewEngine(retrier, opts...), nil
}

// destinationSink resolves the upload endpoint mapped to the job's domain.
func (a *app) destinationSink(job *model.Job) (upload.Sink, error) {
	dest, err := a.cfg.Settings.Destination(job.Domain)
	if err != nil {
		return nil, err
	}
	return upload.NewHTTPSink(dest.Endpoint, dest.Token, upload.WithLogger(a.logger))
}

// pipelineFactory returns a constructor for fresh job pipelines that
// deliver through sinks.
func (a *app) pipelineFactory(sinks pipeline.SinkResolver) func() *pipeline.Pipeline {
	return func() *pipeline.Pipeline {
		return pipeline.NewJobPipeline(pipeline.Deps{
			WorkDir:     a.cfg.WorkDir,
			Crawlers:    a.newCrawler,
			Synthesizer: a.synthesizer,
			Reducer:     a.reducer,
			Sinks:       sinks,
			Logger:      a.logger,
		})
	}
}

// jobStore is a JobStore that may need closing.
type jobStore interface {
	pipeline.JobStore
	Close() error
}

// memoryLedger adapts MemoryStore to jobStore.
type memoryLedger struct {
	*pipeline.MemoryStore
}

func (memoryLedger) Close() error { return nil }

// openStore opens the job ledger, or an in-memory store when dbDir is empty.
func openStore(dbDir string, logger *slog.Logger) (jobStore, error) {
	if dbDir == "" {
		return memoryLedger{pipeline.NewMemoryStore()}, nil
	}
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open job ledger: %w", err)
	}
	logger.Info("job ledger opened", "path", db.Path())
	return db, nil
}
