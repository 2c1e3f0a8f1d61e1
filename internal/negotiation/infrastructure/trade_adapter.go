package infrastructure

import (
	"context"

	"github.com/rnrl/tradecore/internal/negotiation/application"
	"github.com/rnrl/tradecore/internal/negotiation/domain"
	tradeapp "github.com/rnrl/tradecore/internal/trade/application"
)

// NegotiationReaderAdapter satisfies internal/trade/application.NegotiationReader,
// translating C5's Negotiation aggregate into trade's local snapshot so
// internal/trade never imports internal/negotiation/domain directly — same
// composition pattern as internal/matchtoken's negotiation_adapter.go.
type NegotiationReaderAdapter struct {
	queries *application.QueryService
}

func NewNegotiationReaderAdapter(queries *application.QueryService) *NegotiationReaderAdapter {
	return &NegotiationReaderAdapter{queries: queries}
}

func (a *NegotiationReaderAdapter) Get(ctx context.Context, negotiationID string) (*tradeapp.NegotiationSnapshot, error) {
	neg, err := a.queries.Get(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	return &tradeapp.NegotiationSnapshot{
		NegotiationID:   neg.NegotiationID,
		RequirementID:   neg.RequirementID,
		AvailabilityID:  neg.AvailabilityID,
		BuyerPartnerID:  neg.BuyerPartnerID,
		SellerPartnerID: neg.SellerPartnerID,
		Price:           neg.CurrentPrice.String(),
		Quantity:        neg.CurrentQuantity.String(),
		Unit:            neg.CurrentUnit,
		AgreedTermsJSON: neg.AgreedTerms,
		Accepted:        neg.Status == domain.StatusAccepted,
	}, nil
}
