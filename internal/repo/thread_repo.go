// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// TrackedThread model, the bookkeeping behind "stop tracking threads the
// source says are gone".
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/forumpulse/go-forum-pulse/internal/domain"
)

// TouchThread records a sighting of a thread on the listing page. New
// threads are created active; known threads get their URL, title and
// LastSeen refreshed and any previous LastError cleared.
func TouchThread(ctx context.Context, db *gorm.DB, threadID, url, title string, seen time.Time) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur domain.TrackedThread
		err := tx.Where("thread_id = ?", threadID).First(&cur).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&domain.TrackedThread{
				ThreadID:  threadID,
				URL:       url,
				Title:     title,
				FirstSeen: seen,
				LastSeen:  seen,
				Active:    true,
			}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&domain.TrackedThread{}).
			Where("thread_id = ?", threadID).
			Updates(map[string]any{
				"url":        url,
				"title":      title,
				"last_seen":  seen,
				"active":     true,
				"last_error": "",
			}).Error
	})
}

// MarkThreadInactive flags a thread the source reports gone. Inactive
// threads are not retried by subsequent cycles.
func MarkThreadInactive(ctx context.Context, db *gorm.DB, threadID, reason string) error {
	return db.WithContext(ctx).Model(&domain.TrackedThread{}).
		Where("thread_id = ?", threadID).
		Updates(map[string]any{"active": false, "last_error": reason}).Error
}

// RecordThreadError notes a transient per-unit failure without deactivating
// the thread; it stays eligible for the next cycle.
func RecordThreadError(ctx context.Context, db *gorm.DB, threadID, reason string) error {
	return db.WithContext(ctx).Model(&domain.TrackedThread{}).
		Where("thread_id = ?", threadID).
		Update("last_error", reason).Error
}

// IsThreadInactive reports whether a thread is known and flagged inactive.
// Unknown threads are considered active so first sightings get processed.
func IsThreadInactive(ctx context.Context, db *gorm.DB, threadID string) (bool, error) {
	var t domain.TrackedThread
	err := db.WithContext(ctx).Select("active").Where("thread_id = ?", threadID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !t.Active, nil
}

// ThreadStats returns the number of tracked threads and how many are still
// active, for the status endpoint.
func ThreadStats(ctx context.Context, db *gorm.DB) (total, active int64, err error) {
	if err = db.WithContext(ctx).Model(&domain.TrackedThread{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err = db.WithContext(ctx).Model(&domain.TrackedThread{}).Where("active = ?", true).Count(&active).Error; err != nil {
		return 0, 0, err
	}
	return total, active, nil
}
