// Package crawler walks a single site breadth-first and collects the cleaned
// text of every page it can reach.
//
// # Architecture
//
// The Engine drives a wave loop over a Frontier:
//
//  1. The frontier starts with the base location pending.
//  2. Each wave snapshots and clears the pending set, then processes every
//     location concurrently on a bounded worker pool.
//  3. A worker claims its location (marks it visited) before fetching, so no
//     location is ever fetched twice, even when siblings discover it at the
//     same time.
//  4. Links found by all workers are merged into the next wave, minus
//     anything already visited.
//  5. The loop ends when a wave discovers nothing new.
//
// Page-level failures (fetch, parse, challenge, empty text) never abort a
// crawl. They are counted per outcome in model.CrawlStats and logged once.
//
// # Components
//
//   - Engine: the wave loop and worker pool
//   - Frontier: the synchronized visited/pending sets
//   - Scope: host equality, glob path patterns and robots.txt rules
//   - Normalize: WHATWG reference resolution and canonical form
//
// # Usage
//
//	engine := crawler.NewEngine(retrier, crawler.WithWorkers(10))
//	result, err := engine.Crawl(ctx, "https://example.com/")
//
// Design decision: Records are appended in completion order. Callers must
// not depend on record ordering; it is not a deterministic crawl order.
package crawler
