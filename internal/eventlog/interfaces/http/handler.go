// Package http exposes the event log's read surface: GET /events filtered by
// aggregateType, aggregateId and an optional since timestamp. Append happens
// only by consuming the shared outbox; there is no write route.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rnrl/tradecore/internal/eventlog/application"
	"github.com/rnrl/tradecore/internal/platform/apierr"
	"github.com/rnrl/tradecore/internal/platform/authctx"
)

type Handler struct {
	queries *application.QueryService
}

func NewHandler(queries *application.QueryService) *Handler {
	return &Handler{queries: queries}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/events", authctx.RequireCapability(authctx.CapSupervise), h.read)
}

func (h *Handler) read(c *gin.Context) {
	aggregateType := c.Query("aggregateType")
	aggregateID := c.Query("aggregateId")
	if aggregateType == "" || aggregateID == "" {
		apierr.Respond(c, apierr.Validation("EVENT_QUERY_INVALID", "aggregateType and aggregateId are required"))
		return
	}
	since := time.Time{}
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apierr.Respond(c, apierr.Validation("EVENT_QUERY_INVALID", "since must be RFC3339"))
			return
		}
		since = parsed
	}
	events, err := h.queries.Read(c.Request.Context(), aggregateType, aggregateID, since)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}
