// Package services defines the application logic: the ingestion orchestrator
// that drives fetch -> extract -> classify -> upsert cycles, and the stats
// service behind the dashboard queries. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrEmptyText is returned when an ad-hoc analysis request contains no
	// analyzable text.
	ErrEmptyText = errors.New("text is empty")

	// ErrTextTooLong is returned when an ad-hoc analysis request exceeds the
	// configured maximum length.
	ErrTextTooLong = errors.New("text too long")

	// ErrCycleFailed wraps failures that abort a whole ingestion cycle
	// (listing unreachable or unparseable, storage down). Per-post failures
	// never carry this error; they are contained inside the cycle.
	ErrCycleFailed = errors.New("ingestion cycle failed")
)
