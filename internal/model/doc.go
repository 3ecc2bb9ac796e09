// Package model defines the core data structures shared across pagebinder.
//
// This package contains the following main types:
//   - Location: A normalized absolute page address, the unit of crawl work
//   - PageRecord: Cleaned text extracted from one page
//   - CrawlStats: Per-outcome counters collected during a crawl
//   - Job: One crawl-synthesize-reduce-deliver request and its outcome
//
// Design decision: We keep models in their own package so the crawler,
// document, pipeline, database and report packages can share them without
// import cycles. The types are JSON-serializable because jobs are stored in
// the job ledger and returned by the submission API.
package model
