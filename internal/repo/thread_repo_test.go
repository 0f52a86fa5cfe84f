package repo

import (
	"context"
	"testing"
	"time"

	"github.com/forumpulse/go-forum-pulse/internal/domain"
)

func TestTouchThread_CreateThenRefresh(t *testing.T) {
	db := newPostRepoDB(t)
	ctx := context.Background()
	t0 := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)

	if err := TouchThread(ctx, db, "123", "https://forum.example/threads/foo.123/", "foo", t0); err != nil {
		t.Fatalf("TouchThread create: %v", err)
	}

	var got domain.TrackedThread
	if err := db.Where("thread_id = ?", "123").First(&got).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.Active || got.Title != "foo" || !got.FirstSeen.Equal(t0) {
		t.Fatalf("unexpected thread: %+v", got)
	}

	// Record an error, then a later sighting must clear it and bump LastSeen
	// while preserving FirstSeen.
	if err := RecordThreadError(ctx, db, "123", "fetch timeout"); err != nil {
		t.Fatalf("RecordThreadError: %v", err)
	}
	t1 := t0.Add(time.Hour)
	if err := TouchThread(ctx, db, "123", "https://forum.example/threads/foo.123/", "foo (renamed)", t1); err != nil {
		t.Fatalf("TouchThread refresh: %v", err)
	}
	if err := db.Where("thread_id = ?", "123").First(&got).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.LastError != "" || got.Title != "foo (renamed)" || !got.LastSeen.Equal(t1) || !got.FirstSeen.Equal(t0) {
		t.Fatalf("refresh did not behave: %+v", got)
	}
}

func TestMarkThreadInactive_AndStats(t *testing.T) {
	db := newPostRepoDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, id := range []string{"1", "2", "3"} {
		if err := TouchThread(ctx, db, id, "https://forum.example/t/"+id, "t"+id, now); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}
	if err := MarkThreadInactive(ctx, db, "2", "thread not found"); err != nil {
		t.Fatalf("MarkThreadInactive: %v", err)
	}

	inactive, err := IsThreadInactive(ctx, db, "2")
	if err != nil || !inactive {
		t.Fatalf("IsThreadInactive(2) = %v, %v; want true", inactive, err)
	}
	active, err := IsThreadInactive(ctx, db, "1")
	if err != nil || active {
		t.Fatalf("IsThreadInactive(1) = %v, %v; want false", active, err)
	}
	// Unknown threads count as active so first sightings are processed.
	unknown, err := IsThreadInactive(ctx, db, "nope")
	if err != nil || unknown {
		t.Fatalf("IsThreadInactive(unknown) = %v, %v; want false", unknown, err)
	}

	total, activeN, err := ThreadStats(ctx, db)
	if err != nil {
		t.Fatalf("ThreadStats: %v", err)
	}
	if total != 3 || activeN != 2 {
		t.Fatalf("ThreadStats = (%d, %d), want (3, 2)", total, activeN)
	}
}
