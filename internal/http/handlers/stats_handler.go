// Sentiment statistics HTTP handlers.
//
// This file exposes REST endpoints for aggregated sentiment:
//   - GET /stats/sentiment          (hourly buckets over a trailing window)
//   - GET /stats/sentiment/summary  (cumulative totals, optionally windowed)
//
// Handlers are transport-thin: they validate and normalize query inputs,
// delegate to the stats service, and shape the JSON envelope.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forumpulse/go-forum-pulse/internal/domain"
	"github.com/forumpulse/go-forum-pulse/internal/sentiment"
	"github.com/forumpulse/go-forum-pulse/internal/services"
	"github.com/forumpulse/go-forum-pulse/internal/utils"
)

// StatsService is the application-service surface the handlers depend on.
// *services.StatsService satisfies it; tests may substitute fakes.
type StatsService interface {
	Summary(ctx context.Context, window time.Duration) (domain.SentimentSummary, error)
	Hourly(ctx context.Context, window time.Duration) ([]domain.HourlyBucket, error)
	RecentMessages(ctx context.Context, limit, offset int) ([]domain.RecentMessage, error)
	AnalyzeText(ctx context.Context, text string) (sentiment.Scores, error)
	Counts(ctx context.Context) (services.StoreCounts, error)
}

// IngestStatus exposes the outcome of the most recent ingestion cycle.
// *services.IngestService satisfies it.
type IngestStatus interface {
	LastReport() *services.CycleReport
}

// Handlers bundles the service dependencies used by all endpoint methods.
type Handlers struct {
	stats   StatsService
	ingest  IngestStatus
	nextRun func() time.Time
}

// New constructs a Handlers instance bound to the given services. nextRun
// reports the next scheduled ingestion cycle and may be nil when no scheduler
// is running.
func New(stats StatsService, ingest IngestStatus, nextRun func() time.Time) *Handlers {
	return &Handlers{stats: stats, ingest: ingest, nextRun: nextRun}
}

//
// DTOs
//

// HourlyStatsResponse contains one bucket per hour that had analyzed messages,
// newest first, limited to the requested trailing window.
type HourlyStatsResponse struct {
	Hours   int                   `json:"hours"`
	Buckets []domain.HourlyBucket `json:"buckets"`
}

//
// Helpers
//

const (
	defaultHourlyWindowHours = 24
	maxWindowHours           = 24 * 365
)

// windowFromQuery reads the "hours" query parameter and converts it to a
// trailing window. hours <= 0 means "all time" (zero window); values are
// capped to one year to keep the strftime grouping bounded.
func windowFromQuery(c *gin.Context, defHours int) (time.Duration, int) {
	hours := utils.AtoiDefault(c.Query("hours"), defHours)
	hours = utils.Clamp(hours, 0, maxWindowHours)
	return time.Duration(hours) * time.Hour, hours
}

//
// Handlers
//

// HourlySentiment serves GET /stats/sentiment.
//
// Query parameters:
//   - hours: trailing window in hours (default 24; 0 = all time)
func (h *Handlers) HourlySentiment(c *gin.Context) {
	ctx := c.Request.Context()

	window, hours := windowFromQuery(c, defaultHourlyWindowHours)
	buckets, err := h.stats.Hourly(ctx, window)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeStatsFailed, err.Error())
		return
	}
	if buckets == nil {
		buckets = []domain.HourlyBucket{}
	}
	ok(c, http.StatusOK, HourlyStatsResponse{Hours: hours, Buckets: buckets})
}

// SentimentSummary serves GET /stats/sentiment/summary.
//
// Query parameters:
//   - hours: trailing window in hours (default 0 = all time)
func (h *Handlers) SentimentSummary(c *gin.Context) {
	ctx := c.Request.Context()

	window, _ := windowFromQuery(c, 0)
	summary, err := h.stats.Summary(ctx, window)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeStatsFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, summary)
}
