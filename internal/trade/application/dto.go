package application

import (
	"context"

	"github.com/rnrl/tradecore/internal/trade/domain"
)

// NegotiationSnapshot is C6's local view of an accepted C5 negotiation —
// mirrors the ResolvedToken/RequirementSide pattern used elsewhere so
// internal/trade never imports internal/negotiation/domain directly.
type NegotiationSnapshot struct {
	NegotiationID   string
	RequirementID   string
	AvailabilityID  string
	BuyerPartnerID  string
	SellerPartnerID string
	CommodityID     string
	Price           string
	Quantity        string
	Unit            string
	AgreedTermsJSON string
	Accepted        bool
}

// NegotiationReader is the C6→C5 port used by the validate dry-run and by
// trade creation to pull the agreed terms of an accepted negotiation.
type NegotiationReader interface {
	Get(ctx context.Context, negotiationID string) (*NegotiationSnapshot, error)
}

type ConfirmAddressesCommand struct {
	ActorPartnerID string `json:"-"`
	BuyerBranchID  string `json:"buyerBranchId"`
	SellerBranchID string `json:"sellerBranchId"`
}

type SignCommand struct {
	ActorPartnerID string             `json:"-"`
	Side           domain.SignatureSide `json:"side" validate:"required"`
}

type AddMilestoneCommand struct {
	Type domain.MilestoneType `json:"type" validate:"required"`
	Note string                `json:"note"`
}

type RequestAmendmentCommand struct {
	ActorPartnerID string `json:"-"`
	Description    string `json:"description" validate:"required"`
}
