package crawler

// PageOutcome classifies what happened to one processed location.
type PageOutcome int

const (
	// OutcomeRecorded means a PageRecord was produced.
	OutcomeRecorded PageOutcome = iota

	// OutcomeEmpty means the page had no text after cleaning.
	OutcomeEmpty

	// OutcomeChallenge means the page was a bot-challenge interstitial.
	OutcomeChallenge

	// OutcomeFetchFailed means every fetch attempt failed.
	OutcomeFetchFailed

	// OutcomeParseFailed means the body could not be parsed.
	OutcomeParseFailed

	// OutcomeSkipped means the location was already claimed or the page limit was hit.
	OutcomeSkipped
)

// String returns the outcome name.
func (o PageOutcome) String() string {
	switch o {
	case OutcomeRecorded:
		return "recorded"
	case OutcomeEmpty:
		return "empty"
	case OutcomeChallenge:
		return "challenge"
	case OutcomeFetchFailed:
		return "fetch_failed"
	case OutcomeParseFailed:
		return "parse_failed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}
