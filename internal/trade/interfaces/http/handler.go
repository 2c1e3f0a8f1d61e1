// Package http exposes the trade engine's HTTP surface: validate, create,
// confirm-addresses, sign, amendments, get, contract.pdf. Grounded on
// internal/requirement/interfaces/http/handler.go's RegisterRoutes shape.
package http

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/rnrl/tradecore/internal/platform/apierr"
	"github.com/rnrl/tradecore/internal/platform/authctx"
	"github.com/rnrl/tradecore/internal/trade/application"
)

type Handler struct {
	commands *application.CommandService
	queries  *application.QueryService
}

func NewHandler(commands *application.CommandService, queries *application.QueryService) *Handler {
	return &Handler{commands: commands, queries: queries}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/trades")
	{
		g.POST("/validate/:negotiationId", authctx.RequireCapability(authctx.CapTrade), h.validate)
		g.POST("", authctx.RequireCapability(authctx.CapTrade), h.create)
		g.POST("/:id/confirm-addresses", authctx.RequireCapability(authctx.CapTrade), h.confirmAddresses)
		g.POST("/:id/sign", authctx.RequireCapability(authctx.CapTrade), h.sign)
		g.POST("/:id/amendments", authctx.RequireCapability(authctx.CapTrade), h.requestAmendment)
		g.GET("/:id/amendments", h.amendments)
		g.GET("/:id", h.get)
		g.GET("/:id/contract.pdf", h.contract)
	}
}

func (h *Handler) actor(c *gin.Context) string {
	p := authctx.FromGin(c)
	if p == nil {
		return ""
	}
	return p.PartnerID
}

func (h *Handler) validate(c *gin.Context) {
	missing, err := h.commands.Validate(c.Request.Context(), c.Param("negotiationId"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"complete": len(missing) == 0, "missing": missing})
}

type createRequest struct {
	NegotiationID string `json:"negotiationId" validate:"required"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.Respond(c, apierr.Validation("TRADE_INVALID", err.Error()))
		return
	}
	trade, err := h.commands.Create(c.Request.Context(), req.NegotiationID)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, trade)
}

func (h *Handler) confirmAddresses(c *gin.Context) {
	var cmd application.ConfirmAddressesCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		apierr.Respond(c, apierr.Validation("ADDRESSES_INVALID", err.Error()))
		return
	}
	cmd.ActorPartnerID = h.actor(c)
	trade, err := h.commands.ConfirmAddresses(c.Request.Context(), c.Param("id"), cmd)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, trade)
}

func (h *Handler) sign(c *gin.Context) {
	var cmd application.SignCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		apierr.Respond(c, apierr.Validation("SIGN_INVALID", err.Error()))
		return
	}
	cmd.ActorPartnerID = h.actor(c)
	trade, err := h.commands.Sign(c.Request.Context(), c.Param("id"), cmd)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, trade)
}

func (h *Handler) requestAmendment(c *gin.Context) {
	var cmd application.RequestAmendmentCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		apierr.Respond(c, apierr.Validation("AMENDMENT_INVALID", err.Error()))
		return
	}
	cmd.ActorPartnerID = h.actor(c)
	amendment, err := h.commands.RequestAmendment(c.Request.Context(), c.Param("id"), cmd)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, amendment)
}

func (h *Handler) amendments(c *gin.Context) {
	amendments, err := h.queries.Amendments(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, amendments)
}

func (h *Handler) get(c *gin.Context) {
	trade, err := h.queries.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, trade)
}

func (h *Handler) contract(c *gin.Context) {
	trade, err := h.queries.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	if trade.ContractPDFRef == "" {
		apierr.Respond(c, apierr.NotFound("CONTRACT_NOT_RENDERED", "contract document not yet rendered for trade "+trade.TradeID))
		return
	}
	if _, err := os.Stat(trade.ContractPDFRef); err != nil {
		apierr.Respond(c, apierr.NotFound("CONTRACT_NOT_RENDERED", "contract document missing for trade "+trade.TradeID))
		return
	}
	c.File(trade.ContractPDFRef)
}
