// Ad-hoc analysis HTTP handler.
//
// This file exposes:
//   - POST /analyze/text  (score arbitrary text without storing it)
//
// The endpoint runs the same classifier as the ingestion pipeline, so clients
// can sanity-check how a given piece of text would be scored.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forumpulse/go-forum-pulse/internal/services"
)

// AnalyzeTextRequest is the JSON payload for ad-hoc sentiment analysis.
type AnalyzeTextRequest struct {
	// Text is the content to score. It must be non-empty after trimming.
	Text string `json:"text" binding:"required,min=1" example:"This update is fantastic, thanks!"`
}

// AnalyzeTextResponse carries the classifier scores plus the derived label.
type AnalyzeTextResponse struct {
	Positive  float64 `json:"positive"`
	Negative  float64 `json:"negative"`
	Neutral   float64 `json:"neutral"`
	Compound  float64 `json:"compound"`
	Sentiment string  `json:"sentiment"`
}

// AnalyzeText serves POST /analyze/text.
func (h *Handlers) AnalyzeText(c *gin.Context) {
	ctx := c.Request.Context()

	var req AnalyzeTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		return
	}

	scores, err := h.stats.AnalyzeText(ctx, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyText):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		case errors.Is(err, services.ErrTextTooLong):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text too long")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeAnalyzeFailed, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, AnalyzeTextResponse{
		Positive:  scores.Positive,
		Negative:  scores.Negative,
		Neutral:   scores.Neutral,
		Compound:  scores.Compound,
		Sentiment: scores.Label(),
	})
}
