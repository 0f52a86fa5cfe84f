// Ingestion status HTTP handler.
//
// This file exposes:
//   - GET /ingest/status  (outcome of the most recent ingestion cycle)
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forumpulse/go-forum-pulse/internal/services"
)

// IngestStatusResponse reports the last completed cycle, current store
// counts, and, when a scheduler is running, the next scheduled cycle.
// LastCycle is null until the first cycle completes.
type IngestStatusResponse struct {
	LastCycle *services.CycleReport `json:"last_cycle"`
	Store     services.StoreCounts  `json:"store"`
	NextRun   *time.Time            `json:"next_run,omitempty"`
}

// IngestStatus serves GET /ingest/status.
func (h *Handlers) IngestStatus(c *gin.Context) {
	counts, err := h.stats.Counts(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeStatsFailed, err.Error())
		return
	}

	resp := IngestStatusResponse{Store: counts}
	if h.ingest != nil {
		resp.LastCycle = h.ingest.LastReport()
	}
	if h.nextRun != nil {
		if next := h.nextRun(); !next.IsZero() {
			resp.NextRun = &next
		}
	}
	ok(c, http.StatusOK, resp)
}
