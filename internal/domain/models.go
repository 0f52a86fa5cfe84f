// Package domain defines the persistence models for analyzed forum posts and
// tracked threads, plus the read-side view types served by the API. These
// types are mapped with GORM and form the core data layer of the application.
package domain

import (
	"time"
)

// Sentiment labels derived from a stored score distribution.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// AnalyzedPost is the unit of record: one scored snapshot of a thread's
// latest message. Re-ingesting the same snapshot reproduces the same ID, so
// writes are idempotent; a new reply to the thread produces a new ID.
//
// Fields:
//   - ID: md5 hex of "<threadID>_<latestPostTime>" (char(32)); primary key.
//   - ThreadTitle / ThreadURL / ThreadDate: denormalized parent-thread data
//     as observed at ingestion time.
//   - LatestPoster / LatestPostTime: author and timestamp of the message that
//     was analyzed. LatestPoster is "unknown" when the page omits it.
//   - MessageContent: the raw text body that was classified.
//   - PositiveScore / NegativeScore / NeutralScore: non-negative weights from
//     the classifier. They are relative weights, not a probability simplex.
//   - AnalyzedAt: when classification ran. Written atomically with the three
//     scores; an upsert carrying an AnalyzedAt not newer than the stored one
//     is a no-op.
type AnalyzedPost struct {
	ID             string    `json:"id"               gorm:"type:char(32);primaryKey"`
	ThreadTitle    string    `json:"thread_title"     gorm:"type:varchar(512);not null"`
	ThreadURL      string    `json:"thread_url"       gorm:"type:varchar(1024);not null"`
	ThreadDate     time.Time `json:"thread_date"`
	LatestPoster   string    `json:"latest_poster"    gorm:"type:varchar(128);not null;default:'unknown'"`
	LatestPostTime time.Time `json:"latest_post_time" gorm:"index:idx_posts_latest"`
	MessageContent string    `json:"message_content"  gorm:"type:text;not null"`
	PositiveScore  float64   `json:"positive_count"   gorm:"not null;check:positive_score >= 0"`
	NegativeScore  float64   `json:"negative_count"   gorm:"not null;check:negative_score >= 0"`
	NeutralScore   float64   `json:"neutral_count"    gorm:"not null;check:neutral_score >= 0"`
	AnalyzedAt     time.Time `json:"analyzed_at"      gorm:"not null;index:idx_posts_analyzed"`
}

// TableName returns the database table name for AnalyzedPost.
func (AnalyzedPost) TableName() string { return "analyzed_posts" }

// SentimentLabel returns the dominant class of the stored distribution.
// Ties resolve to neutral, matching how the dashboard renders them.
func (p AnalyzedPost) SentimentLabel() string {
	switch {
	case p.PositiveScore > p.NegativeScore && p.PositiveScore > p.NeutralScore:
		return SentimentPositive
	case p.NegativeScore > p.PositiveScore && p.NegativeScore > p.NeutralScore:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// TrackedThread records a thread discovered on the listing page. Threads that
// come back 404 are marked inactive and skipped by subsequent cycles.
//
// Fields:
//   - ThreadID: forum-native thread identifier; primary key.
//   - URL / Title: thread location and title as last observed.
//   - FirstSeen / LastSeen: discovery bookkeeping, UTC.
//   - Active: false once the source reports the thread gone.
//   - LastError: most recent per-unit failure for operator visibility,
//     empty after a successful pass.
type TrackedThread struct {
	ThreadID  string    `json:"thread_id"  gorm:"type:varchar(32);primaryKey"`
	URL       string    `json:"url"        gorm:"type:varchar(1024);not null"`
	Title     string    `json:"title"      gorm:"type:varchar(512);not null"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"  gorm:"index"`
	Active    bool      `json:"active"     gorm:"not null;default:true;index"`
	LastError string    `json:"last_error,omitempty" gorm:"type:varchar(1024)"`
}

// TableName returns the database table name for TrackedThread.
func (TrackedThread) TableName() string { return "tracked_threads" }

// SentimentSummary is the aggregate view over stored records: the sum of each
// score component plus the number of records that contributed.
type SentimentSummary struct {
	TotalPositive float64 `json:"total_positive"`
	TotalNegative float64 `json:"total_negative"`
	TotalNeutral  float64 `json:"total_neutral"`
	TotalMessages int64   `json:"total_messages"`
}

// HourlyBucket is one hour of aggregated sentiment, used by the dashboard's
// trailing-24h chart.
type HourlyBucket struct {
	Bucket   time.Time `json:"time_bucket"`
	Positive float64   `json:"positive_count"`
	Negative float64   `json:"negative_count"`
	Neutral  float64   `json:"neutral_count"`
	Messages int64     `json:"total_messages"`
}

// RecentMessage is the feed view served by the recent-messages query: a
// subset of AnalyzedPost fields plus the derived sentiment label.
type RecentMessage struct {
	ID             string    `json:"id"`
	ThreadTitle    string    `json:"thread_title"`
	ThreadURL      string    `json:"thread_url"`
	LatestPoster   string    `json:"latest_poster"`
	LatestPostTime time.Time `json:"latest_post_time"`
	MessageContent string    `json:"message_content"`
	Sentiment      string    `json:"sentiment"`
	AnalyzedAt     time.Time `json:"analyzed_at"`
}
