// Recent-messages HTTP handler.
//
// This file exposes the feed endpoint:
//   - GET /messages/sentiment  (most recently posted analyzed messages)
//
// Ordering is by the forum's own post time (newest first), not by when the
// pipeline analyzed the message, so the feed mirrors the forum.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forumpulse/go-forum-pulse/internal/domain"
	"github.com/forumpulse/go-forum-pulse/internal/utils"
)

// RecentMessagesResponse contains a page of analyzed messages, the total
// number of stored messages (so clients can page past the current window),
// and the effective paging values after defaulting and clamping.
type RecentMessagesResponse struct {
	Messages []domain.RecentMessage `json:"messages"`
	Total    int64                  `json:"total"`
	Limit    int                    `json:"limit"`
	Offset   int                    `json:"offset"`
}

const (
	defaultFeedLimit = 10
	maxFeedLimit     = 100
)

// RecentMessages serves GET /messages/sentiment.
//
// Query parameters:
//   - limit:  number of messages to return (default 10, max 100)
//   - offset: number of messages to skip (default 0)
func (h *Handlers) RecentMessages(c *gin.Context) {
	ctx := c.Request.Context()

	limit := utils.Clamp(utils.AtoiDefault(c.Query("limit"), defaultFeedLimit), 1, maxFeedLimit)
	offset := utils.AtoiDefault(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	msgs, err := h.stats.RecentMessages(ctx, limit, offset)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeMessagesFailed, err.Error())
		return
	}
	if msgs == nil {
		msgs = []domain.RecentMessage{}
	}
	counts, err := h.stats.Counts(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeMessagesFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, RecentMessagesResponse{Messages: msgs, Total: counts.Posts, Limit: limit, Offset: offset})
}
