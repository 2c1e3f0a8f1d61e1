package infrastructure

import (
	"context"

	matchapp "github.com/rnrl/tradecore/internal/matching/application"
	negapp "github.com/rnrl/tradecore/internal/negotiation/application"
	negdomain "github.com/rnrl/tradecore/internal/negotiation/domain"
	rtapp "github.com/rnrl/tradecore/internal/realtime/application"
	"github.com/rnrl/tradecore/internal/realtime/domain"
	tradeapp "github.com/rnrl/tradecore/internal/trade/application"
	tradedomain "github.com/rnrl/tradecore/internal/trade/domain"
)

// FanoutAdapter builds each bounded context's own Fanout port on top of one
// shared Hub, so a requirement/availability/negotiation/trade event always
// lands in the negotiation (or requirement/availability) room it belongs to.
type FanoutAdapter struct {
	hub         *rtapp.Hub
	tradeReader *tradeapp.QueryService
}

func NewFanoutAdapter(hub *rtapp.Hub, tradeReader *tradeapp.QueryService) *FanoutAdapter {
	return &FanoutAdapter{hub: hub, tradeReader: tradeReader}
}

// negotiationRoomFor resolves a trade back to its originating negotiation's
// room; trade events surface there since no trade-specific room exists —
// rooms only exist for negotiation/availability/requirement aggregates.
func (a *FanoutAdapter) negotiationRoomFor(ctx context.Context, tradeID string) (string, bool) {
	trade, err := a.tradeReader.Get(ctx, tradeID)
	if err != nil || trade == nil {
		return "", false
	}
	return trade.NegotiationID, true
}

func (a *FanoutAdapter) publish(ctx context.Context, kind domain.RoomKind, aggregateID string, msgType domain.MessageType, payload any) {
	_ = a.hub.Publish(ctx, domain.NewRoomID(kind, aggregateID), msgType, payload, "")
}

// Matching builds the C3 Fanout port: match hits are pushed to both the
// requirement's and the availability's rooms.
func (a *FanoutAdapter) Matching() matchapp.Fanout {
	return matchapp.Fanout{
		NotifyMatchFound: func(ctx context.Context, requirementID, availabilityID, tokenID string) {
			payload := map[string]string{"requirementId": requirementID, "availabilityId": availabilityID, "tokenId": tokenID}
			a.publish(ctx, domain.RoomRequirement, requirementID, domain.MessageRequirementChanged, payload)
			a.publish(ctx, domain.RoomAvailability, availabilityID, domain.MessageAvailabilityChanged, payload)
		},
	}
}

// Negotiation builds the C5 Fanout port.
func (a *FanoutAdapter) Negotiation() negapp.Fanout {
	return negapp.Fanout{
		NotifyOfferMade: func(ctx context.Context, negotiationID string, offer *negdomain.Offer) {
			a.publish(ctx, domain.RoomNegotiation, negotiationID, domain.MessageOfferCreated, offer)
		},
		NotifyMessageSent: func(ctx context.Context, negotiationID string, msg *negdomain.Message) {
			a.publish(ctx, domain.RoomNegotiation, negotiationID, domain.MessageReceived, msg)
		},
		NotifyStatusChanged: func(ctx context.Context, negotiationID string, status negdomain.Status) {
			a.publish(ctx, domain.RoomNegotiation, negotiationID, domain.MessageNegotiationStatus, map[string]negdomain.Status{"status": status})
		},
	}
}

// Trade builds the C6 Fanout port; trade events are delivered on the
// originating negotiation's room, since C6 has no room of its own.
func (a *FanoutAdapter) Trade() tradeapp.Fanout {
	return tradeapp.Fanout{
		NotifyAddressSelectionNeeded: func(ctx context.Context, negotiationID, tradeID, suggestedBuyerBranch, suggestedSellerBranch string) {
			a.publish(ctx, domain.RoomNegotiation, negotiationID, domain.MessageNegotiationStatus, map[string]string{
				"tradeId": tradeID, "suggestedBuyerBranch": suggestedBuyerBranch, "suggestedSellerBranch": suggestedSellerBranch,
			})
		},
		NotifyStatusChanged: func(ctx context.Context, tradeID string, status tradedomain.Status) {
			negotiationID, ok := a.negotiationRoomFor(ctx, tradeID)
			if !ok {
				return
			}
			a.publish(ctx, domain.RoomNegotiation, negotiationID, domain.MessageNegotiationStatus, map[string]tradedomain.Status{"status": status})
		},
		NotifyMilestone: func(ctx context.Context, tradeID string, milestone tradedomain.MilestoneType) {
			negotiationID, ok := a.negotiationRoomFor(ctx, tradeID)
			if !ok {
				return
			}
			a.publish(ctx, domain.RoomNegotiation, negotiationID, domain.MessageNegotiationStatus, map[string]tradedomain.MilestoneType{"milestone": milestone})
		},
	}
}
