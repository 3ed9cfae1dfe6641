// Package dash implements the dashboard refresh workflow: authenticate a
// browser session, list the sidebar feed entries and drive each entry's
// update control until it settles.
package dash

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// FeedItem is one subscription entry in the sidebar list. Items are rebuilt
// from the live document on every listing read and never reused across
// interactions.
type FeedItem struct {
	Title string
	Link  string
	Key   string
}

// Outcome is the result of one update attempt for one entry.
type Outcome int

const (
	// OutcomeSucceeded means the update control was observed busy and then
	// returned to its idle, interactable state.
	OutcomeSucceeded Outcome = iota
	// OutcomeTimedOut means a busy or settle wait exceeded its budget. The
	// run continues with the next entry.
	OutcomeTimedOut
	// OutcomeSkipped marks the synthetic "all entries" pseudo-entry or an
	// entry whose expected markup was absent.
	OutcomeSkipped
	// OutcomeFailed means the automation channel broke.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeTimedOut:
		return "timed_out"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrListChanged signals that a re-fetched listing no longer contains the
// requested index. The current cycle must stop: the document state no longer
// matches assumptions and continuing would operate on the wrong entries.
var ErrListChanged = errors.New("feed listing shrank during iteration")

// normalizeTitle trims and NFC-normalizes a title so CJK text read out of the
// document compares reliably against configured values.
func normalizeTitle(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
