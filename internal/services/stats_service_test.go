package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/forumpulse/go-forum-pulse/internal/domain"
	"github.com/forumpulse/go-forum-pulse/internal/repo"
)

func seedPost(t *testing.T, db *gorm.DB, id string, pos, neg, neu float64, analyzedAt time.Time) {
	t.Helper()
	post := &domain.AnalyzedPost{
		ID:             id,
		ThreadTitle:    "Thread " + id,
		ThreadURL:      testBaseURL + "/threads/t-" + id,
		LatestPoster:   "poster-" + id,
		LatestPostTime: analyzedAt.Add(-time.Minute),
		MessageContent: "content " + id,
		PositiveScore:  pos,
		NegativeScore:  neg,
		NeutralScore:   neu,
		AnalyzedAt:     analyzedAt,
	}
	if _, err := repo.UpsertPost(context.Background(), db, post); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestStatsService_SummaryWindow(t *testing.T) {
	db := newServiceDB(t)
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := &StatsService{DB: db, now: func() time.Time { return now }}

	seedPost(t, db, strings.Repeat("a", 32), 2.0, 0.5, 1.0, now.Add(-30*time.Minute))
	seedPost(t, db, strings.Repeat("b", 32), 0.0, 3.0, 0.2, now.Add(-3*time.Hour))

	all, err := svc.Summary(context.Background(), 0)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	want := domain.SentimentSummary{TotalPositive: 2.0, TotalNegative: 3.5, TotalNeutral: 1.2, TotalMessages: 2}
	if all != want {
		t.Fatalf("Summary() = %+v, want %+v", all, want)
	}

	lastHour, err := svc.Summary(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("Summary(1h): %v", err)
	}
	if lastHour.TotalMessages != 1 || lastHour.TotalPositive != 2.0 {
		t.Fatalf("windowed summary = %+v", lastHour)
	}
}

func TestStatsService_HourlyWindow(t *testing.T) {
	db := newServiceDB(t)
	now := time.Date(2025, 8, 1, 12, 30, 0, 0, time.UTC)
	svc := &StatsService{DB: db, now: func() time.Time { return now }}

	seedPost(t, db, strings.Repeat("a", 32), 1, 0, 0, now.Add(-5*time.Minute))
	seedPost(t, db, strings.Repeat("b", 32), 0, 1, 0, now.Add(-10*time.Minute))
	seedPost(t, db, strings.Repeat("c", 32), 0, 0, 1, now.Add(-90*time.Minute))

	buckets, err := svc.Hourly(context.Background(), 0)
	if err != nil {
		t.Fatalf("Hourly: %v", err)
	}
	if len(buckets) != 2 {
		t.Fatalf("got %d buckets, want 2: %+v", len(buckets), buckets)
	}
	// Newest bucket first.
	if !buckets[0].Bucket.After(buckets[1].Bucket) {
		t.Fatalf("buckets not newest-first: %+v", buckets)
	}
	if buckets[0].Messages != 2 {
		t.Fatalf("newest bucket count = %d, want 2", buckets[0].Messages)
	}

	recent, err := svc.Hourly(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("Hourly(1h): %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("windowed buckets = %+v", recent)
	}
}

func TestStatsService_RecentMessages(t *testing.T) {
	db := newServiceDB(t)
	svc := &StatsService{DB: db}
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	ids := []string{strings.Repeat("a", 32), strings.Repeat("b", 32), strings.Repeat("c", 32)}
	seedPost(t, db, ids[0], 0.8, 0.1, 0.1, now.Add(-2*time.Minute))
	seedPost(t, db, ids[1], 0.1, 0.8, 0.1, now.Add(-time.Minute))
	seedPost(t, db, ids[2], 0.1, 0.1, 0.8, now)

	msgs, err := svc.RecentMessages(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("RecentMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].ID != ids[2] || msgs[1].ID != ids[1] {
		t.Fatalf("wrong order: %s, %s", msgs[0].ID, msgs[1].ID)
	}
	if msgs[0].Sentiment != domain.SentimentNeutral || msgs[1].Sentiment != domain.SentimentNegative {
		t.Fatalf("wrong labels: %s, %s", msgs[0].Sentiment, msgs[1].Sentiment)
	}
	if msgs[0].LatestPoster == "" || msgs[0].ThreadTitle == "" || msgs[0].MessageContent == "" {
		t.Fatalf("message fields not mapped: %+v", msgs[0])
	}

	page2, err := svc.RecentMessages(context.Background(), 2, 2)
	if err != nil {
		t.Fatalf("RecentMessages offset: %v", err)
	}
	if len(page2) != 1 || page2[0].ID != ids[0] {
		t.Fatalf("pagination wrong: %+v", page2)
	}

	// Defaults and clamps instead of erroring on odd inputs.
	defaulted, err := svc.RecentMessages(context.Background(), 0, -5)
	if err != nil {
		t.Fatalf("RecentMessages defaults: %v", err)
	}
	if len(defaulted) != 3 {
		t.Fatalf("defaulted page = %d messages, want 3", len(defaulted))
	}
}

func TestStatsService_AnalyzeText(t *testing.T) {
	svc := &StatsService{DB: newServiceDB(t), Classifier: &fakeClassifier{}, MaxTextRunes: 20}

	scores, err := svc.AnalyzeText(context.Background(), "short and sweet")
	if err != nil {
		t.Fatalf("AnalyzeText: %v", err)
	}
	if scores.Positive != 0.5 {
		t.Fatalf("unexpected scores: %+v", scores)
	}

	if _, err := svc.AnalyzeText(context.Background(), "   \n\t "); !errors.Is(err, ErrEmptyText) {
		t.Fatalf("blank input err = %v, want ErrEmptyText", err)
	}
	if _, err := svc.AnalyzeText(context.Background(), strings.Repeat("x", 21)); !errors.Is(err, ErrTextTooLong) {
		t.Fatalf("oversized input err = %v, want ErrTextTooLong", err)
	}
}

func TestStatsService_Counts(t *testing.T) {
	db := newServiceDB(t)
	svc := &StatsService{DB: db}
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	empty, err := svc.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if empty != (StoreCounts{}) {
		t.Fatalf("empty store counts = %+v", empty)
	}

	seedPost(t, db, strings.Repeat("a", 32), 1, 0, 0, now)
	seedPost(t, db, strings.Repeat("b", 32), 0, 1, 0, now)
	if err := repo.TouchThread(context.Background(), db, "t1", testBaseURL+"/threads/t1", "T1", now); err != nil {
		t.Fatalf("TouchThread: %v", err)
	}
	if err := repo.TouchThread(context.Background(), db, "t2", testBaseURL+"/threads/t2", "T2", now); err != nil {
		t.Fatalf("TouchThread: %v", err)
	}
	if err := repo.MarkThreadInactive(context.Background(), db, "t2", "gone"); err != nil {
		t.Fatalf("MarkThreadInactive: %v", err)
	}

	counts, err := svc.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	want := StoreCounts{Posts: 2, Threads: 2, ActiveThreads: 1}
	if counts != want {
		t.Fatalf("Counts() = %+v, want %+v", counts, want)
	}
}
