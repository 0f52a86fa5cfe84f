// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate queries behind the
// sentiment dashboard: the overall summary and the hourly breakdown. Each
// function is context-aware and safe to call from services or handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/forumpulse/go-forum-pulse/internal/domain"
)

// SummaryStats sums the per-post score components across stored records.
//
// A zero since means "all records"; otherwise only rows with
// analyzed_at >= since contribute. An empty table yields zero totals, not
// NULLs. Because every row is written in a single transaction, the sums can
// never include a half-updated record.
func SummaryStats(ctx context.Context, db *gorm.DB, since time.Time) (domain.SentimentSummary, error) {
	var out domain.SentimentSummary
	q := db.WithContext(ctx).Model(&domain.AnalyzedPost{})
	if !since.IsZero() {
		q = q.Where("analyzed_at >= ?", since)
	}
	err := q.Select(
		"COALESCE(SUM(positive_score), 0) AS total_positive, " +
			"COALESCE(SUM(negative_score), 0) AS total_negative, " +
			"COALESCE(SUM(neutral_score), 0) AS total_neutral, " +
			"COUNT(*) AS total_messages",
	).Scan(&out).Error
	return out, err
}

// HourlyStats groups records into hour buckets by analyzed_at, newest bucket
// first. since behaves as in SummaryStats.
func HourlyStats(ctx context.Context, db *gorm.DB, since time.Time) ([]domain.HourlyBucket, error) {
	type row struct {
		Bucket   string
		Positive float64
		Negative float64
		Neutral  float64
		Messages int64
	}

	var rows []row
	q := db.WithContext(ctx).Model(&domain.AnalyzedPost{})
	if !since.IsZero() {
		q = q.Where("analyzed_at >= ?", since)
	}
	err := q.Select(
		"strftime('%Y-%m-%d %H:00:00', analyzed_at) AS bucket, " +
			"COALESCE(SUM(positive_score), 0) AS positive, " +
			"COALESCE(SUM(negative_score), 0) AS negative, " +
			"COALESCE(SUM(neutral_score), 0) AS neutral, " +
			"COUNT(*) AS messages",
	).
		Group("bucket").
		Order("bucket DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.HourlyBucket, 0, len(rows))
	for _, r := range rows {
		// strftime emits UTC because timestamps are stored UTC.
		ts, err := time.ParseInLocation("2006-01-02 15:04:05", r.Bucket, time.UTC)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.HourlyBucket{
			Bucket:   ts,
			Positive: r.Positive,
			Negative: r.Negative,
			Neutral:  r.Neutral,
			Messages: r.Messages,
		})
	}
	return out, nil
}
