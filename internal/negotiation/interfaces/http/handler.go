// Package http exposes the C5 HTTP surface, grounded on
// internal/requirement/interfaces/http/handler.go's RegisterRoutes shape.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rnrl/tradecore/internal/negotiation/application"
	"github.com/rnrl/tradecore/internal/platform/apierr"
	"github.com/rnrl/tradecore/internal/platform/authctx"
)

type Handler struct {
	commands *application.CommandService
	queries  *application.QueryService
}

func NewHandler(commands *application.CommandService, queries *application.QueryService) *Handler {
	return &Handler{commands: commands, queries: queries}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/negotiations")
	{
		g.POST("", authctx.RequireCapability(authctx.CapTrade), h.start)
		g.POST("/:id/offers", authctx.RequireCapability(authctx.CapTrade), h.makeOffer)
		g.POST("/:id/accept", authctx.RequireCapability(authctx.CapTrade), h.accept)
		g.POST("/:id/reject", authctx.RequireCapability(authctx.CapTrade), h.reject)
		g.POST("/:id/messages", authctx.RequireCapability(authctx.CapTrade), h.sendMessage)
		g.GET("/:id", h.get)
		g.GET("/:id/messages", h.listMessages)
	}
}

func (h *Handler) actor(c *gin.Context) string {
	p := authctx.FromGin(c)
	if p == nil {
		return ""
	}
	return p.PartnerID
}

func (h *Handler) start(c *gin.Context) {
	var cmd application.StartNegotiationCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		apierr.Respond(c, apierr.Validation("NEGOTIATION_INVALID", err.Error()))
		return
	}
	cmd.ActorPartnerID = h.actor(c)
	neg, err := h.commands.Start(c.Request.Context(), cmd)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, neg)
}

func (h *Handler) makeOffer(c *gin.Context) {
	var cmd application.MakeOfferCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		apierr.Respond(c, apierr.Validation("OFFER_INVALID", err.Error()))
		return
	}
	cmd.ActorPartnerID = h.actor(c)
	offer, err := h.commands.MakeOffer(c.Request.Context(), c.Param("id"), cmd)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, offer)
}

func (h *Handler) accept(c *gin.Context) {
	var cmd application.AcceptCommand
	_ = c.ShouldBindJSON(&cmd)
	cmd.ActorPartnerID = h.actor(c)
	neg, err := h.commands.Accept(c.Request.Context(), c.Param("id"), cmd)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, neg)
}

func (h *Handler) reject(c *gin.Context) {
	var cmd application.RejectCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		apierr.Respond(c, apierr.Validation("REJECT_INVALID", err.Error()))
		return
	}
	cmd.ActorPartnerID = h.actor(c)
	neg, err := h.commands.Reject(c.Request.Context(), c.Param("id"), cmd)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, neg)
}

func (h *Handler) sendMessage(c *gin.Context) {
	var cmd application.SendMessageCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		apierr.Respond(c, apierr.Validation("MESSAGE_INVALID", err.Error()))
		return
	}
	cmd.ActorPartnerID = h.actor(c)
	msg, err := h.commands.SendMessage(c.Request.Context(), c.Param("id"), cmd)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) get(c *gin.Context) {
	neg, err := h.queries.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, neg)
}

func (h *Handler) listMessages(c *gin.Context) {
	msgs, err := h.queries.ListMessages(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}
