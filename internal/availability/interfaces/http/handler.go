// Package http exposes the Availability HTTP surface.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rnrl/tradecore/internal/availability/application"
	"github.com/rnrl/tradecore/internal/platform/apierr"
	"github.com/rnrl/tradecore/internal/platform/authctx"
)

type Handler struct {
	commands     *application.CommandService
	queries      *application.QueryService
	reservations *application.ReservationService
}

func NewHandler(commands *application.CommandService, queries *application.QueryService, reservations *application.ReservationService) *Handler {
	return &Handler{commands: commands, queries: queries, reservations: reservations}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/availabilities")
	{
		g.POST("", authctx.RequireCapability(authctx.CapSell), h.Create)
		g.POST("/:id/approve", authctx.RequireCapability(authctx.CapSupervise), h.Approve)
		g.POST("/:id/publish", authctx.RequireCapability(authctx.CapSell), h.Publish)
		g.POST("/:id/cancel", authctx.RequireCapability(authctx.CapSell), h.Cancel)
		g.POST("/:id/reserve", authctx.RequireCapability(authctx.CapBuy), h.Reserve)
		g.POST("/:id/release", authctx.RequireCapability(authctx.CapBuy), h.Release)
		g.POST("/:id/mark-sold", authctx.RequireCapability(authctx.CapSell), h.MarkSold)
		g.GET("/:id", h.Get)
		g.GET("", h.ListActiveByCommodity)
	}
	rg.GET("/availabilities/search", authctx.GoneSearch)
}

func (h *Handler) Create(c *gin.Context) {
	var cmd application.CreateAvailabilityCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		apierr.Respond(c, apierr.Validation("AVAILABILITY_INVALID", err.Error()))
		return
	}
	avail, err := h.commands.Create(c.Request.Context(), cmd)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, avail)
}

func (h *Handler) Approve(c *gin.Context) {
	var body struct {
		Approved bool `json:"approved"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apierr.Respond(c, apierr.Validation("APPROVAL_INVALID", err.Error()))
		return
	}
	avail, err := h.commands.Approve(c.Request.Context(), c.Param("id"), body.Approved)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, avail)
}

func (h *Handler) Publish(c *gin.Context) {
	avail, err := h.commands.Publish(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, avail)
}

func (h *Handler) Cancel(c *gin.Context) {
	if err := h.commands.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) MarkSold(c *gin.Context) {
	if err := h.commands.MarkSold(c.Request.Context(), c.Param("id")); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Reserve(c *gin.Context) {
	var cmd application.ReserveCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		apierr.Respond(c, apierr.Validation("RESERVE_INVALID", err.Error()))
		return
	}
	res, err := h.reservations.Reserve(c.Request.Context(), c.Param("id"), cmd.BuyerPartnerID, cmd.Quantity, cmd.HoldHours)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Release(c *gin.Context) {
	var cmd application.ReleaseCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		apierr.Respond(c, apierr.Validation("RELEASE_INVALID", err.Error()))
		return
	}
	if err := h.reservations.Release(c.Request.Context(), c.Param("id"), cmd.BuyerPartnerID, cmd.Reason); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Get(c *gin.Context) {
	avail, err := h.queries.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, avail)
}

func (h *Handler) ListActiveByCommodity(c *gin.Context) {
	commodityID := c.Query("commodityId")
	if commodityID == "" {
		apierr.Respond(c, apierr.Validation("COMMODITY_ID_REQUIRED", "commodityId query parameter is required"))
		return
	}
	avails, err := h.queries.ListActiveByCommodity(c.Request.Context(), commodityID)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, avails)
}
