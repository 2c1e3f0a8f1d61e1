// Package http exposes the C4 HTTP surface: resolve a handle
// into a side-specific redacted view. Grounded on
// internal/requirement/interfaces/http/handler.go's RegisterRoutes shape.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rnrl/tradecore/internal/matchtoken/application"
	"github.com/rnrl/tradecore/internal/platform/apierr"
	"github.com/rnrl/tradecore/internal/platform/authctx"
)

type Handler struct {
	commands *application.CommandService
}

func NewHandler(commands *application.CommandService) *Handler {
	return &Handler{commands: commands}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/match-tokens")
	{
		g.GET("/:handle", h.resolve)
	}
}

// resolve implements the C4 contract's resolve(handle, actorPartnerId) ->
// view. The actor is the authenticated principal (authctx.FromGin), not a
// query parameter — cross-side probing can't be done by forging an actor id.
func (h *Handler) resolve(c *gin.Context) {
	p := authctx.FromGin(c)
	if p == nil {
		apierr.Respond(c, apierr.Authorization("UNAUTHENTICATED", "authentication required"))
		return
	}
	handle := c.Param("handle")
	if _, err := h.commands.ResolveRaw(c.Request.Context(), handle, p.PartnerID); err != nil {
		apierr.Respond(c, apierr.NotFound("MATCH_TOKEN_NOT_FOUND", "no match token resolves to this handle"))
		return
	}
	view, err := h.commands.Resolve(c.Request.Context(), handle)
	if err != nil {
		apierr.Respond(c, apierr.NotFound("MATCH_TOKEN_NOT_FOUND", "no match token resolves to this handle"))
		return
	}
	c.JSON(http.StatusOK, view)
}
