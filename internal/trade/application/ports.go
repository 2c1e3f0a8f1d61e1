package application

import (
	"context"

	"github.com/rnrl/tradecore/internal/trade/domain"
)

// BranchLookup is the trade engine's port into the partner directory:
// partner/location data is external, so branch candidates are fetched
// through a small interface rather than a direct import of a partner
// package.
type BranchLookup interface {
	EligibleBranches(ctx context.Context, partnerID, commodityID string) ([]domain.BranchCandidate, error)
	PrimaryAddress(ctx context.Context, partnerID string) (domain.BranchCandidate, error)
}

// ContractRenderer renders the canonical term document to a durable
// reference (e.g. object storage key) once a trade reaches DRAFT.
type ContractRenderer interface {
	Render(ctx context.Context, t *domain.Trade) (pdfRef string, err error)
}

// Fanout is the C6→C7 port: address-selection prompts and status changes
// are broadcast to the negotiation's room.
type Fanout struct {
	NotifyAddressSelectionNeeded func(ctx context.Context, negotiationID, tradeID, suggestedBuyerBranch, suggestedSellerBranch string)
	NotifyStatusChanged          func(ctx context.Context, tradeID string, status domain.Status)
	NotifyMilestone              func(ctx context.Context, tradeID string, milestone domain.MilestoneType)
}
