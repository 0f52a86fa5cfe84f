// Package forum retrieves and parses pages from a XenForo-style discussion
// forum: a listing page of recently active threads, and per-thread pages
// whose latest message is the unit the pipeline analyzes.
package forum

import "errors"

// Failure kinds the orchestrator branches on. Transient source failures are
// retried next cycle; a gone thread stops being tracked; a page that no
// longer matches the expected structure is skipped and surfaced to operators.
var (
	// ErrSourceUnavailable marks transient fetch failures (network errors,
	// timeouts, upstream 5xx).
	ErrSourceUnavailable = errors.New("forum source unavailable")

	// ErrThreadNotFound marks a thread the source reports gone (404/410).
	ErrThreadNotFound = errors.New("thread not found")

	// ErrParse marks page content that does not match the expected forum
	// markup.
	ErrParse = errors.New("page structure not recognized")
)
