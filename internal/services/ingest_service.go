// Package services – IngestService
//
// This file implements the ingestion orchestrator. Each cycle walks the
// forum's listing page, and for every discovered thread runs the per-unit
// pipeline fetch -> extract -> classify -> upsert. Units run concurrently up
// to a bounded worker count; a unit's failure is recorded and never aborts
// the rest of the cycle. Only the listing itself (or storage being down) is
// cycle-fatal, and the scheduler simply retries on the next tick.
//
// Observability: the cycle and each unit are OpenTelemetry-instrumented, and
// outcomes feed the Prometheus counters in metrics.go.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/forumpulse/go-forum-pulse/internal/forum"
	"github.com/forumpulse/go-forum-pulse/internal/repo"
	"github.com/forumpulse/go-forum-pulse/internal/sentiment"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// UnitFailure describes one contained per-unit failure for operator
// visibility on the status endpoint.
type UnitFailure struct {
	ThreadID string `json:"thread_id"`
	Stage    string `json:"stage"`
	Error    string `json:"error"`
}

// CycleReport summarizes one ingestion cycle.
type CycleReport struct {
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Discovered int           `json:"discovered"`
	Inserted   int           `json:"inserted"`
	Replaced   int           `json:"replaced"`
	Stale      int           `json:"stale"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Failures   []UnitFailure `json:"failures,omitempty"`
}

// maxReportedFailures caps the failure list carried by a report; the full
// count is always in Failed.
const maxReportedFailures = 25

// IngestService drives recurring ingestion cycles.
type IngestService struct {
	DB         *gorm.DB
	Fetcher    forum.Fetcher
	Classifier sentiment.Classifier
	Log        zerolog.Logger

	// BaseURL resolves relative listing links.
	BaseURL string
	// Workers bounds per-thread concurrency within a cycle; values < 1 run
	// sequentially.
	Workers int

	// now is a test seam; defaults to time.Now.
	now func() time.Time

	idLocks keyedLocks

	mu   sync.Mutex
	last *CycleReport
}

// LastReport returns the most recent cycle report, or nil before the first
// cycle completes.
func (s *IngestService) LastReport() *CycleReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	cp := *s.last
	cp.Failures = append([]UnitFailure(nil), s.last.Failures...)
	return &cp
}

// RunCycle executes one ingestion cycle. The caller bounds it with a
// deadline; workers observe cancellation between pipeline stages, so a
// cancelled unit either never reaches the store or completes its single
// upsert transaction. Either way no partial record becomes visible.
//
// Running the same cycle twice against an unchanged forum is a no-op: every
// snapshot ID already exists, so units short-circuit as stale.
func (s *IngestService) RunCycle(ctx context.Context) (*CycleReport, error) {
	tr := otel.Tracer("services/IngestService")
	ctx, span := tr.Start(ctx, "RunCycle")
	defer span.End()

	start := s.clock()()
	report := &CycleReport{StartedAt: start}

	listing, err := s.Fetcher.FetchListing(ctx)
	if err != nil {
		ingestCycles.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: listing fetch: %v", ErrCycleFailed, err)
	}
	refs, err := forum.ParseListing(listing, s.BaseURL)
	if err != nil {
		ingestCycles.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: listing parse: %v", ErrCycleFailed, err)
	}

	report.Discovered = len(refs)
	span.SetAttributes(attribute.Int("cycle.discovered", len(refs)))

	workers := s.Workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	var (
		wg sync.WaitGroup
		rm sync.Mutex // guards report counters below
	)
	for _, ref := range refs {
		wg.Add(1)
		sem <- struct{}{}
		go func(ref forum.ThreadRef) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome, failure := s.processThread(ctx, tr, ref)

			rm.Lock()
			defer rm.Unlock()
			switch outcome {
			case unitInserted:
				report.Inserted++
			case unitReplaced:
				report.Replaced++
			case unitStale:
				report.Stale++
			case unitSkipped:
				report.Skipped++
			case unitFailed:
				report.Failed++
				if failure != nil && len(report.Failures) < maxReportedFailures {
					report.Failures = append(report.Failures, *failure)
				}
			}
		}(ref)
	}
	wg.Wait()

	report.Duration = s.clock()().Sub(start)
	ingestCycles.WithLabelValues("ok").Inc()
	ingestCycleDuration.Observe(report.Duration.Seconds())

	s.Log.Info().
		Int("discovered", report.Discovered).
		Int("inserted", report.Inserted).
		Int("replaced", report.Replaced).
		Int("stale", report.Stale).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Dur("duration", report.Duration).
		Msg("ingestion cycle complete")

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()
	return report, nil
}

type unitOutcome int

const (
	unitFailed unitOutcome = iota
	unitInserted
	unitReplaced
	unitStale
	unitSkipped
)

// processThread runs the per-unit pipeline for one discovered thread.
// Every failure path records the unit and returns; nothing here can abort
// the surrounding cycle.
func (s *IngestService) processThread(ctx context.Context, tr trace.Tracer, ref forum.ThreadRef) (unitOutcome, *UnitFailure) {
	ctx, span := tr.Start(ctx, "processThread",
		trace.WithAttributes(attribute.String("thread.id", ref.ThreadID)),
	)
	defer span.End()

	now := s.clock()()

	inactive, err := repo.IsThreadInactive(ctx, s.DB, ref.ThreadID)
	if err == nil && inactive {
		ingestPosts.WithLabelValues("skipped").Inc()
		return unitSkipped, nil
	}
	if err := repo.TouchThread(ctx, s.DB, ref.ThreadID, ref.URL, ref.Title, now.UTC()); err != nil {
		return s.fail(ctx, ref, "store", err)
	}

	page, err := s.Fetcher.FetchThread(ctx, ref.URL)
	if err != nil {
		if errors.Is(err, forum.ErrThreadNotFound) {
			// Thread is gone; stop tracking it rather than retrying forever.
			if merr := repo.MarkThreadInactive(ctx, s.DB, ref.ThreadID, err.Error()); merr != nil {
				s.Log.Error().Err(merr).Str("thread_id", ref.ThreadID).Msg("mark inactive")
			}
		}
		return s.fail(ctx, ref, "fetch", err)
	}

	post, err := forum.ParseLatestMessage(page, ref)
	if err != nil {
		return s.fail(ctx, ref, "extract", err)
	}

	// Known snapshot: the content is unchanged, so re-classifying would
	// only burn classifier budget to produce the same record.
	if _, err := repo.GetPost(ctx, s.DB, post.ID); err == nil {
		ingestPosts.WithLabelValues("stale").Inc()
		return unitStale, nil
	}

	if err := ctx.Err(); err != nil {
		return s.fail(ctx, ref, "classify", err)
	}
	scores, err := s.Classifier.Classify(ctx, post.MessageContent)
	if err != nil {
		return s.fail(ctx, ref, "classify", err)
	}

	// Scores and AnalyzedAt are set together; the record reaches the store
	// fully classified or not at all.
	post.PositiveScore = scores.Positive
	post.NegativeScore = scores.Negative
	post.NeutralScore = scores.Neutral
	post.AnalyzedAt = s.clock()().UTC()

	// Same-id writes are serialized here as well as by the store's
	// transaction, so concurrent workers cannot interleave on one record.
	unlock := s.idLocks.lock(post.ID)
	outcome, err := repo.UpsertPost(ctx, s.DB, post)
	unlock()
	if err != nil {
		return s.fail(ctx, ref, "store", err)
	}

	ingestPosts.WithLabelValues(outcome.String()).Inc()
	switch outcome {
	case repo.UpsertInserted:
		return unitInserted, nil
	case repo.UpsertReplaced:
		return unitReplaced, nil
	default:
		// A stale write is a logged no-op, not an error.
		s.Log.Debug().Str("post_id", post.ID).Msg("stale upsert ignored")
		return unitStale, nil
	}
}

func (s *IngestService) fail(ctx context.Context, ref forum.ThreadRef, stage string, err error) (unitOutcome, *UnitFailure) {
	ingestPosts.WithLabelValues("failed").Inc()
	ingestFailures.WithLabelValues(stage).Inc()

	s.Log.Warn().
		Err(err).
		Str("thread_id", ref.ThreadID).
		Str("stage", stage).
		Msg("post ingestion failed")

	if stage != "store" && !errors.Is(err, forum.ErrThreadNotFound) {
		if rerr := repo.RecordThreadError(ctx, s.DB, ref.ThreadID, err.Error()); rerr != nil {
			s.Log.Error().Err(rerr).Str("thread_id", ref.ThreadID).Msg("record thread error")
		}
	}
	return unitFailed, &UnitFailure{ThreadID: ref.ThreadID, Stage: stage, Error: err.Error()}
}

func (s *IngestService) clock() func() time.Time {
	if s.now != nil {
		return s.now
	}
	return time.Now
}

// keyedLocks hands out one mutex per post ID. Entries are reference-counted
// and removed once the last holder releases, so the map only ever holds the
// IDs currently being written, not every ID seen over the process lifetime.
type keyedLocks struct {
	mu sync.Mutex
	m  map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func (k *keyedLocks) lock(id string) (unlock func()) {
	k.mu.Lock()
	if k.m == nil {
		k.m = make(map[string]*keyedLock)
	}
	l, ok := k.m[id]
	if !ok {
		l = &keyedLock{}
		k.m[id] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.m, id)
		}
		k.mu.Unlock()
	}
}
