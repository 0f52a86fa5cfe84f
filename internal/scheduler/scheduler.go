// Package scheduler runs the ingestion loop on a fixed interval. It wraps
// robfig/cron so each run gets its own deadline and overlapping runs are
// skipped rather than stacked.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a single scheduled task. The context carries the per-run deadline.
type Job func(ctx context.Context) error

// Scheduler manages periodic jobs.
type Scheduler struct {
	cron    *cron.Cron
	log     zerolog.Logger
	timeout time.Duration
	jobs    map[string]cron.EntryID

	// immediate tracks RunNow launches, which cron's own waiter does not see.
	immediate sync.WaitGroup
}

// New builds a scheduler whose jobs each run under runTimeout. A run that is
// still in flight when its next tick arrives causes that tick to be skipped.
func New(log zerolog.Logger, runTimeout time.Duration) *Scheduler {
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	return &Scheduler{
		cron:    c,
		log:     log,
		timeout: runTimeout,
		jobs:    make(map[string]cron.EntryID),
	}
}

// AddIntervalJob schedules job to run every interval.
func (s *Scheduler) AddIntervalJob(name string, interval time.Duration, job Job) error {
	if interval <= 0 {
		return fmt.Errorf("schedule job %s: interval must be positive, got %s", name, interval)
	}
	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), s.wrap(name, job))
	if err != nil {
		return fmt.Errorf("schedule job %s: %w", name, err)
	}
	s.jobs[name] = entryID
	s.log.Info().Str("job", name).Dur("interval", interval).Msg("scheduled job")
	return nil
}

func (s *Scheduler) wrap(name string, job Job) func() {
	return func() {
		ctx := context.Background()
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}

		start := time.Now()
		if err := job(ctx); err != nil {
			s.log.Error().Err(err).Str("job", name).Dur("elapsed", time.Since(start)).Msg("job failed")
			return
		}
		s.log.Info().Str("job", name).Dur("elapsed", time.Since(start)).Msg("job completed")
	}
}

// RunNow triggers the named job in the background, outside its schedule.
// It runs through the job's own cron chain, so a tick that fires while the
// immediate run is still in flight gets skipped rather than stacked, and
// Stop waits for it. Reports whether the job is known. Used for the startup
// ingestion pass.
func (s *Scheduler) RunNow(name string) bool {
	entryID, ok := s.jobs[name]
	if !ok {
		return false
	}
	wrapped := s.cron.Entry(entryID).WrappedJob

	s.immediate.Add(1)
	go func() {
		defer s.immediate.Done()
		wrapped.Run()
	}()
	return true
}

// NextRun reports when the named job will fire next, or a zero time if the
// job is unknown or the scheduler has not started.
func (s *Scheduler) NextRun(name string) time.Time {
	entryID, ok := s.jobs[name]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(entryID).Next
}

// Start begins dispatching scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and returns a context that is done once all
// scheduled in-flight runs have finished. Immediate runs are waited on
// before returning.
func (s *Scheduler) Stop() context.Context {
	ctx := s.cron.Stop()
	s.immediate.Wait()
	return ctx
}
