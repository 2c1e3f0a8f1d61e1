package application

import (
	"context"

	negdomain "github.com/rnrl/tradecore/internal/negotiation/domain"
)

// ResolvedToken is C5's local, self-contained view of a C4 Match Token —
// mirrors internal/matching/domain's RequirementSide/AvailabilitySide
// pattern, so internal/negotiation never imports internal/matchtoken's
// domain types directly.
type ResolvedToken struct {
	TokenID         string
	RequirementID   string
	AvailabilityID  string
	BuyerPartnerID  string
	SellerPartnerID string
	Expired         bool
}

// TokenResolver is the C5→C4 port: resolve a handle (validating start()'s
// "token resolvable by actor"), and bump disclosure on start/accept.
type TokenResolver interface {
	ResolveForActor(ctx context.Context, handle, actorPartnerID string) (*ResolvedToken, error)
	Reveal(ctx context.Context, tokenID, targetDisclosureLevel string) error
}

// AggregateLock is the C5 concurrency port: one lock per
// negotiation, acquired for every mutating operation and released after.
type AggregateLock interface {
	Acquire(ctx context.Context, negotiationID string) (release func(), err error)
}

// TradeTrigger is the C5→C6 port: ACCEPT triggers trade creation.
type TradeTrigger struct {
	OnAccepted func(ctx context.Context, n *negdomain.Negotiation) error
}

// Fanout is the C5→C7 port.
type Fanout struct {
	NotifyOfferMade     func(ctx context.Context, negotiationID string, offer *negdomain.Offer)
	NotifyMessageSent   func(ctx context.Context, negotiationID string, msg *negdomain.Message)
	NotifyStatusChanged func(ctx context.Context, negotiationID string, status negdomain.Status)
}

// AIAdvisor is the optional, never-blocking hint source.
type AIAdvisor interface {
	SuggestCounter(ctx context.Context, n *negdomain.Negotiation, current *negdomain.Offer, side string) (*negdomain.Suggestion, error)
}
