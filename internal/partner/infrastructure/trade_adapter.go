package infrastructure

import (
	"context"

	"github.com/rnrl/tradecore/internal/partner/domain"
	tradedomain "github.com/rnrl/tradecore/internal/trade/domain"
)

// BranchLookupAdapter satisfies internal/trade/application.BranchLookup,
// translating the partner branch directory into C6's local BranchCandidate
// snapshot — same composition pattern as the other providing contexts.
type BranchLookupAdapter struct {
	repo domain.Repository
}

func NewBranchLookupAdapter(repo domain.Repository) *BranchLookupAdapter {
	return &BranchLookupAdapter{repo: repo}
}

func (a *BranchLookupAdapter) EligibleBranches(ctx context.Context, partnerID, commodityID string) ([]tradedomain.BranchCandidate, error) {
	branches, err := a.repo.ListEligible(ctx, partnerID, commodityID)
	if err != nil {
		return nil, err
	}
	candidates := make([]tradedomain.BranchCandidate, 0, len(branches))
	for _, b := range branches {
		candidates = append(candidates, toCandidate(b))
	}
	return candidates, nil
}

func (a *BranchLookupAdapter) PrimaryAddress(ctx context.Context, partnerID string) (tradedomain.BranchCandidate, error) {
	b, err := a.repo.PrimaryAddress(ctx, partnerID)
	if err != nil {
		return tradedomain.BranchCandidate{}, err
	}
	return toCandidate(b), nil
}

func toCandidate(b domain.Branch) tradedomain.BranchCandidate {
	return tradedomain.BranchCandidate{
		BranchID:     b.BranchID,
		State:        b.State,
		Lat:          b.Lat,
		Lng:          b.Lng,
		IsDefault:    b.IsDefault,
		IsHeadOffice: b.IsHeadOffice,
	}
}
