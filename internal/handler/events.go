package handler

import (
	"net/http"
	"time"

	"bet_wallet/internal/auth"
	"bet_wallet/internal/logger"

	"github.com/gin-gonic/gin"
)

var heartbeatInterval = 15 * time.Second

// StreamEvents sends the caller's ledger events as server-sent events until
// the client goes away.
func (h *Handler) StreamEvents(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	ctx := c.Request.Context()

	events, cancel := h.events.Subscribe(claims.PlayerID)
	defer cancel()
	logger.Info(ctx).Str("player_id", claims.PlayerID).Msg("event stream opened")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx).Str("player_id", claims.PlayerID).Msg("event stream closed")
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.SSEvent(string(ev.Type), ev)
			c.Writer.Flush()
		case t := <-heartbeat.C:
			c.SSEvent("ping", t.UTC().Format(time.RFC3339))
			c.Writer.Flush()
		}
	}
}
