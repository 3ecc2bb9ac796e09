// Package fetch retrieves single pages over HTTP and retries failed fetches.
//
// # Components
//
//   - HTTPFetcher: one GET per call, with body decoding, charset conversion
//     and a size limit
//   - Retrier: wraps any Fetcher with a bounded attempt budget and a fixed,
//     cancellable delay between attempts
//   - Error: the classified failure returned by both
//
// Callers only ever see a successful Response or a final *Error; per-attempt
// failures are logged at debug level and never surfaced.
//
// Design decision: Every failure is retried by default, transient or not.
// Kind is still recorded on the error so the crawler can count failures by
// class, and WithRetryPermanent(false) stops retrying 4xx responses.
package fetch
