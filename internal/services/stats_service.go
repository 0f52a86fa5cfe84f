// Package services – StatsService
//
// This file implements the read side consumed by the dashboard: the sentiment
// summary, the hourly breakdown, the recent-messages feed, and ad-hoc text
// analysis. All queries are pull-based; nothing here assumes a client polling
// cadence. Reads go straight to the store, whose transactional upsert is what
// guarantees a summary never reflects a half-written record.
package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/forumpulse/go-forum-pulse/internal/domain"
	"github.com/forumpulse/go-forum-pulse/internal/repo"
	"github.com/forumpulse/go-forum-pulse/internal/sentiment"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// StatsService answers aggregate and feed queries over the analyzed store.
type StatsService struct {
	DB         *gorm.DB
	Classifier sentiment.Classifier

	// MaxTextRunes caps ad-hoc analysis inputs; 0 applies a conservative
	// default.
	MaxTextRunes int

	// now is a test seam; defaults to time.Now.
	now func() time.Time
}

const defaultMaxTextRunes = 8000

// Summary returns the sentiment totals for the trailing window. A zero
// window means all stored records.
func (s *StatsService) Summary(ctx context.Context, window time.Duration) (domain.SentimentSummary, error) {
	tr := otel.Tracer("services/StatsService")
	ctx, span := tr.Start(ctx, "Summary",
		trace.WithAttributes(attribute.String("window", window.String())),
	)
	defer span.End()

	return repo.SummaryStats(ctx, s.DB, s.cutoff(window))
}

// Hourly returns the per-hour sentiment buckets for the trailing window,
// newest bucket first. A zero window means all stored records.
func (s *StatsService) Hourly(ctx context.Context, window time.Duration) ([]domain.HourlyBucket, error) {
	tr := otel.Tracer("services/StatsService")
	ctx, span := tr.Start(ctx, "Hourly",
		trace.WithAttributes(attribute.String("window", window.String())),
	)
	defer span.End()

	return repo.HourlyStats(ctx, s.DB, s.cutoff(window))
}

// RecentMessages returns the feed view: the most recently posted analyzed
// messages, newest first, with the derived sentiment label per record.
func (s *StatsService) RecentMessages(ctx context.Context, limit, offset int) ([]domain.RecentMessage, error) {
	tr := otel.Tracer("services/StatsService")
	ctx, span := tr.Start(ctx, "RecentMessages",
		trace.WithAttributes(attribute.Int("limit", limit), attribute.Int("offset", offset)),
	)
	defer span.End()

	if limit < 1 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	posts, err := repo.ListRecentPostsPage(ctx, s.DB, offset, limit)
	if err != nil {
		return nil, err
	}

	out := make([]domain.RecentMessage, 0, len(posts))
	for _, p := range posts {
		out = append(out, domain.RecentMessage{
			ID:             p.ID,
			ThreadTitle:    p.ThreadTitle,
			ThreadURL:      p.ThreadURL,
			LatestPoster:   p.LatestPoster,
			LatestPostTime: p.LatestPostTime,
			MessageContent: p.MessageContent,
			Sentiment:      p.SentimentLabel(),
			AnalyzedAt:     p.AnalyzedAt,
		})
	}
	return out, nil
}

// StoreCounts summarizes how much the store currently holds. Used by the
// ingestion status endpoint for operator visibility.
type StoreCounts struct {
	Posts         int64 `json:"posts"`
	Threads       int64 `json:"threads"`
	ActiveThreads int64 `json:"active_threads"`
}

// Counts reports the number of stored analyzed posts and tracked threads.
func (s *StatsService) Counts(ctx context.Context) (StoreCounts, error) {
	tr := otel.Tracer("services/StatsService")
	ctx, span := tr.Start(ctx, "Counts")
	defer span.End()

	posts, err := repo.CountPosts(ctx, s.DB)
	if err != nil {
		return StoreCounts{}, err
	}
	total, active, err := repo.ThreadStats(ctx, s.DB)
	if err != nil {
		return StoreCounts{}, err
	}
	return StoreCounts{Posts: posts, Threads: total, ActiveThreads: active}, nil
}

// AnalyzeText scores an arbitrary text with the configured classifier
// without persisting anything.
func (s *StatsService) AnalyzeText(ctx context.Context, text string) (sentiment.Scores, error) {
	tr := otel.Tracer("services/StatsService")
	ctx, span := tr.Start(ctx, "AnalyzeText")
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return sentiment.Scores{}, ErrEmptyText
	}
	max := s.MaxTextRunes
	if max <= 0 {
		max = defaultMaxTextRunes
	}
	if utf8.RuneCountInString(text) > max {
		return sentiment.Scores{}, ErrTextTooLong
	}
	return s.Classifier.Classify(ctx, text)
}

func (s *StatsService) cutoff(window time.Duration) time.Time {
	if window <= 0 {
		return time.Time{}
	}
	clock := s.now
	if clock == nil {
		clock = time.Now
	}
	return clock().UTC().Add(-window)
}
