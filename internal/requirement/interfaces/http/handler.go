// Package http exposes the Requirement HTTP surface, grounded on
// internal/order/interfaces/http/handler.go's gin.RouterGroup shape,
// upgraded to apierr.Respond + authctx capability checks for the platform's
// error and auth conventions.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rnrl/tradecore/internal/platform/apierr"
	"github.com/rnrl/tradecore/internal/platform/authctx"
	"github.com/rnrl/tradecore/internal/requirement/application"
)

type Handler struct {
	commands *application.CommandService
	queries  *application.QueryService
}

func NewHandler(commands *application.CommandService, queries *application.QueryService) *Handler {
	return &Handler{commands: commands, queries: queries}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/requirements")
	{
		g.POST("", authctx.RequireCapability(authctx.CapBuy), h.Create)
		g.POST("/:id/publish", authctx.RequireCapability(authctx.CapBuy), h.Publish)
		g.POST("/:id/cancel", authctx.RequireCapability(authctx.CapBuy), h.Cancel)
		g.GET("/:id", h.Get)
		g.GET("", h.ListActiveByCommodity)
	}
	// the legacy full-text search surface is retired; matching is push-only.
	rg.GET("/requirements/search", authctx.GoneSearch)
}

func (h *Handler) Create(c *gin.Context) {
	var cmd application.CreateRequirementCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		apierr.Respond(c, apierr.Validation("REQUIREMENT_INVALID", err.Error()))
		return
	}
	req, err := h.commands.Create(c.Request.Context(), cmd)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (h *Handler) Publish(c *gin.Context) {
	req, err := h.commands.Publish(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *Handler) Cancel(c *gin.Context) {
	if err := h.commands.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Get(c *gin.Context) {
	req, err := h.queries.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *Handler) ListActiveByCommodity(c *gin.Context) {
	commodityID := c.Query("commodityId")
	if commodityID == "" {
		apierr.Respond(c, apierr.Validation("COMMODITY_ID_REQUIRED", "commodityId query parameter is required"))
		return
	}
	reqs, err := h.queries.ListActiveByCommodity(c.Request.Context(), commodityID)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}
