// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// AnalyzedPost model: the idempotent upsert and the read paths behind the
// recent-messages feed.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/forumpulse/go-forum-pulse/internal/domain"
)

// ErrInvalidPost is returned when a post is missing its ID or classification
// fields. A record is never stored partially scored.
var ErrInvalidPost = errors.New("post must carry id, scores and analyzed_at")

// UpsertOutcome describes what an UpsertPost call did.
type UpsertOutcome int

const (
	// UpsertInserted means no record existed for the ID and one was created.
	UpsertInserted UpsertOutcome = iota
	// UpsertReplaced means an existing record was fully replaced.
	UpsertReplaced
	// UpsertStale means the stored record carried an AnalyzedAt at least as
	// fresh as the incoming one; nothing was written. This is a reported
	// no-op, not an error.
	UpsertStale
)

// String returns the lowercase name of the outcome for logs and metrics.
func (o UpsertOutcome) String() string {
	switch o {
	case UpsertInserted:
		return "inserted"
	case UpsertReplaced:
		return "replaced"
	case UpsertStale:
		return "stale"
	default:
		return "unknown"
	}
}

// UpsertPost atomically inserts or fully replaces the record for post.ID.
//
// The whole decision runs in one transaction, so a concurrent reader observes
// either the previous record or the new one, never a mix. Freshness is
// enforced here: an incoming AnalyzedAt that does not strictly exceed the
// stored one leaves the row untouched and reports UpsertStale. Re-upserting
// an identical record is therefore a no-op, which is what makes ingestion
// cycles safe to repeat.
func UpsertPost(ctx context.Context, db *gorm.DB, post *domain.AnalyzedPost) (UpsertOutcome, error) {
	if post == nil || post.ID == "" || post.AnalyzedAt.IsZero() {
		return UpsertStale, ErrInvalidPost
	}
	if post.PositiveScore < 0 || post.NegativeScore < 0 || post.NeutralScore < 0 {
		return UpsertStale, ErrInvalidPost
	}

	outcome := UpsertStale
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur domain.AnalyzedPost
		err := tx.Select("id", "analyzed_at").Where("id = ?", post.ID).First(&cur).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			outcome = UpsertInserted
			return tx.Create(post).Error
		case err != nil:
			return err
		}

		if !post.AnalyzedAt.After(cur.AnalyzedAt) {
			outcome = UpsertStale
			return nil
		}

		outcome = UpsertReplaced
		// Save writes every column for the existing primary key: full
		// replace, not a partial field update.
		return tx.Save(post).Error
	})
	if err != nil {
		return UpsertStale, err
	}
	return outcome, nil
}

// GetPost fetches a post by ID.
func GetPost(ctx context.Context, db *gorm.DB, id string) (*domain.AnalyzedPost, error) {
	var p domain.AnalyzedPost
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CountPosts returns the total number of analyzed posts. A raw COUNT so a
// missing table surfaces as an error.
func CountPosts(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw("SELECT COUNT(*) FROM analyzed_posts").Scan(&total).Error
	return total, err
}

// ListRecentPosts returns the limit most recently posted records, newest
// first. Ties on latest_post_time break by ID ascending so the ordering is
// stable across calls.
func ListRecentPosts(ctx context.Context, db *gorm.DB, limit int) ([]domain.AnalyzedPost, error) {
	var out []domain.AnalyzedPost
	q := db.WithContext(ctx).Order("latest_post_time DESC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// ListRecentPostsPage returns a paginated slice of the recency-ordered feed.
func ListRecentPostsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.AnalyzedPost, error) {
	var out []domain.AnalyzedPost
	err := db.WithContext(ctx).
		Order("latest_post_time DESC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
