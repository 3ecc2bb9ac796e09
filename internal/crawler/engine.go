package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pagebinder/internal/extract"
	"github.com/nao1215/pagebinder/internal/fetch"
	"github.com/nao1215/pagebinder/internal/model"
)

// Result is the output of one crawl.
type Result struct {
	// Records holds one entry per page with non-empty text, in completion order.
	Records []model.PageRecord

	// Stats counts outcomes.
	Stats model.CrawlStats
}

// Engine runs wave-based breadth-first crawls.
// An Engine holds no per-crawl state and may run several crawls at once.
type Engine struct {
	fetcher   fetch.Fetcher
	extractor *extract.Extractor
	workers   int
	markers   []string
	maxPages  int
	maxDepth  int
	ignore    []string
	follow    []string

	robotsFetcher fetch.Fetcher
	robotsAgent   string

	logger *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithWorkers sets the number of concurrent fetches per wave.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithChallengeMarkers sets the substrings that identify challenge pages.
func WithChallengeMarkers(markers []string) EngineOption {
	return func(e *Engine) {
		e.markers = markers
	}
}

// WithMaxPages caps the number of fetched locations. 0 means unlimited.
func WithMaxPages(n int) EngineOption {
	return func(e *Engine) {
		if n >= 0 {
			e.maxPages = n
		}
	}
}

// WithMaxDepth caps the number of waves after the base location.
// 0 means unlimited.
func WithMaxDepth(n int) EngineOption {
	return func(e *Engine) {
		if n >= 0 {
			e.maxDepth = n
		}
	}
}

// WithIgnorePatterns sets glob path patterns that are never fetched.
func WithIgnorePatterns(patterns []string) EngineOption {
	return func(e *Engine) {
		e.ignore = patterns
	}
}

// WithFollowPatterns restricts discovered links to matching glob path patterns.
func WithFollowPatterns(patterns []string) EngineOption {
	return func(e *Engine) {
		e.follow = patterns
	}
}

// WithRobots enables robots.txt filtering. f fetches robots.txt once per
// crawl and should not retry; agent selects the robots group.
func WithRobots(f fetch.Fetcher, agent string) EngineOption {
	return func(e *Engine) {
		e.robotsFetcher = f
		e.robotsAgent = agent
	}
}

// WithExtractor replaces the content extractor.
func WithExtractor(x *extract.Extractor) EngineOption {
	return func(e *Engine) {
		if x != nil {
			e.extractor = x
		}
	}
}

// WithCrawlLogger sets the logger.
func WithCrawlLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an Engine that fetches through f. f is normally a
// fetch.Retrier so the engine only sees final outcomes.
func NewEngine(f fetch.Fetcher, opts ...EngineOption) *Engine {
	e := &Engine{
		fetcher:   f,
		extractor: extract.NewExtractor(),
		workers:   10,
		markers:   []string{"Cloudflare"},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// crawlState is the per-crawl shared state handed to workers.
type crawlState struct {
	frontier *Frontier
	scope    *Scope

	mu      sync.Mutex
	records []model.PageRecord
	stats   model.CrawlStats
}

// record appends a page record and counts an outcome under the lock.
func (s *crawlState) record(rec *model.PageRecord, outcome PageOutcome, outOfScope int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec != nil {
		s.records = append(s.records, *rec)
	}
	s.stats.OutOfScope += outOfScope
	switch outcome {
	case OutcomeRecorded:
		s.stats.Recorded++
	case OutcomeEmpty:
		s.stats.Empty++
	case OutcomeChallenge:
		s.stats.Challenged++
	case OutcomeFetchFailed:
		s.stats.FetchFailed++
	case OutcomeParseFailed:
		s.stats.ParseFailed++
	case OutcomeSkipped:
	}
}

// Crawl walks the site rooted at base and returns every non-empty page record.
//
// It returns an error only for an invalid base location or scope pattern,
// or when ctx is cancelled; in the latter case the records collected so far
// are returned too.
func (e *Engine) Crawl(ctx context.Context, base string) (*Result, error) {
	start := time.Now()

	baseLoc, err := Normalize("", base)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBase, err)
	}

	scope, err := NewScope(baseLoc, e.ignore, e.follow)
	if err != nil {
		return nil, err
	}
	if e.robotsFetcher != nil {
		group, err := LoadRobots(ctx, e.robotsFetcher, baseLoc, e.robotsAgent)
		if err != nil {
			e.logger.Warn("robots.txt unavailable, allowing all paths", "location", baseLoc, "error", err)
		}
		scope.SetRobots(group)
	}

	state := &crawlState{
		frontier: NewFrontier(e.maxPages),
		scope:    scope,
	}
	state.frontier.Add(baseLoc)

	e.logger.Info("crawl started", "base", baseLoc, "workers", e.workers)

	var crawlErr error
	for depth := 0; ; depth++ {
		if err := ctx.Err(); err != nil {
			crawlErr = err
			break
		}

		wave := state.frontier.NextWave()
		if len(wave) == 0 {
			break
		}
		state.stats.Waves++

		discovered := e.runWave(ctx, state, wave, depth)

		if e.maxDepth > 0 && depth >= e.maxDepth {
			e.logger.Debug("depth limit reached", "depth", depth, "dropped", len(discovered))
			break
		}
		if state.frontier.Full() {
			e.logger.Debug("page limit reached", "limit", e.maxPages)
			break
		}
		// Add subtracts everything visited during this wave.
		state.frontier.Add(discovered...)
	}

	state.stats.Visited = state.frontier.VisitedCount()
	state.stats.Duration = time.Since(start)

	e.logger.Info("crawl finished",
		"base", baseLoc,
		"waves", state.stats.Waves,
		"visited", state.stats.Visited,
		"recorded", state.stats.Recorded,
		"fetch_failed", state.stats.FetchFailed,
		"duration", state.stats.Duration,
	)

	return &Result{Records: state.records, Stats: state.stats}, crawlErr
}

// runWave processes one wave on the worker pool and returns every in-scope
// link the workers discovered.
func (e *Engine) runWave(ctx context.Context, state *crawlState, wave []model.Location, depth int) []model.Location {
	e.logger.Debug("wave started", "depth", depth, "size", len(wave))

	var (
		mu         sync.Mutex
		discovered []model.Location
	)

	var g errgroup.Group
	g.SetLimit(e.workers)
	for _, loc := range wave {
		g.Go(func() error {
			links := e.process(ctx, state, loc)
			if len(links) > 0 {
				mu.Lock()
				discovered = append(discovered, links...)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers never return errors

	return discovered
}

// process handles one location and returns its in-scope, unvisited links.
func (e *Engine) process(ctx context.Context, state *crawlState, loc model.Location) []model.Location {
	if !state.frontier.Claim(loc) {
		state.record(nil, OutcomeSkipped, 0)
		return nil
	}

	resp, err := e.fetcher.Fetch(ctx, loc.String())
	if err != nil {
		e.logger.Warn("page fetch failed", "location", loc, "error", err)
		state.record(nil, OutcomeFetchFailed, 0)
		return nil
	}

	pageLoc, ok := e.redirectTarget(state, loc, resp.FinalLocation)
	if !ok {
		return nil
	}

	doc, err := extract.Parse(resp.Body)
	if err != nil {
		e.logger.Warn("page parse failed", "location", loc, "error", err)
		state.record(nil, OutcomeParseFailed, 0)
		return nil
	}

	if extract.IsChallenge(doc, e.markers) {
		e.logger.Info("challenge page skipped", "location", loc)
		state.record(nil, OutcomeChallenge, 0)
		return nil
	}

	var rec *model.PageRecord
	outcome := OutcomeEmpty
	if text := e.extractor.Extract(doc); text != "" {
		rec = &model.PageRecord{Location: pageLoc, Content: text}
		outcome = OutcomeRecorded
	} else {
		e.logger.Info("page has no content", "location", loc)
	}

	var links []model.Location
	outOfScope := 0
	for _, href := range extract.Links(doc) {
		target, err := Normalize(pageLoc.String(), href)
		if err != nil {
			continue
		}
		if verdict := state.scope.Check(target); verdict != InScope {
			outOfScope++
			continue
		}
		if state.frontier.Visited(target) {
			continue
		}
		links = append(links, target)
	}

	state.record(rec, outcome, outOfScope)
	return links
}

// redirectTarget returns the location a fetch of loc ended at. A target
// outside the scope drops the page. An in-scope target is marked visited so
// it is not fetched again; if it was already visited the page is dropped as
// a duplicate.
func (e *Engine) redirectTarget(state *crawlState, loc model.Location, final string) (model.Location, bool) {
	if final == "" || final == loc.String() {
		return loc, true
	}

	target, err := Normalize("", final)
	if err != nil {
		e.logger.Warn("redirect target invalid", "location", loc, "final", final, "error", err)
		state.record(nil, OutcomeSkipped, 0)
		return "", false
	}
	if target == loc {
		return loc, true
	}
	if verdict := state.scope.Check(target); verdict != InScope {
		e.logger.Warn("redirect left scope", "location", loc, "final", target, "verdict", verdict)
		state.record(nil, OutcomeSkipped, 1)
		return "", false
	}
	if !state.frontier.MarkVisited(target) {
		e.logger.Debug("redirect target already visited", "location", loc, "final", target)
		state.record(nil, OutcomeSkipped, 0)
		return "", false
	}
	return target, true
}
