package model

import "time"

// CrawlStats summarizes what happened to every location a crawl touched.
//
// Design decision: We count outcomes instead of collecting per-page errors
// because page-level failures never abort a crawl and the caller only needs
// them for operability (logs and the job summary).
type CrawlStats struct {
	// Waves is the number of breadth-first waves processed.
	Waves int `json:"waves"`

	// Visited is the number of distinct locations that were claimed for fetching.
	Visited int `json:"visited"`

	// Recorded is the number of pages that produced a PageRecord.
	Recorded int `json:"recorded"`

	// Empty is the number of pages whose cleaned text was empty.
	Empty int `json:"empty"`

	// Challenged is the number of pages skipped as bot-challenge interstitials.
	Challenged int `json:"challenged"`

	// FetchFailed is the number of locations whose fetch failed after all attempts.
	FetchFailed int `json:"fetch_failed"`

	// ParseFailed is the number of pages whose body could not be parsed.
	ParseFailed int `json:"parse_failed"`

	// OutOfScope is the number of discovered links dropped by scoping rules.
	OutOfScope int `json:"out_of_scope"`

	// Duration is the wall time of the crawl.
	Duration time.Duration `json:"duration"`
}
