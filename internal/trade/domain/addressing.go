package domain

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// BranchCandidate is one eligible branch location a partner exposes to the
// trade engine's address-selection flow.
type BranchCandidate struct {
	BranchID     string
	State        string
	Lat          float64
	Lng          float64
	DistanceKM   float64
	IsDefault    bool
	IsHeadOffice bool
}

// AnchorDistances fills in DistanceKM on each candidate as the great-circle
// distance (paulmach/orb/geo) to anchor, so SuggestBranch's "shortest
// distance" tie-break has something to rank on.
func AnchorDistances(candidates []BranchCandidate, anchor BranchCandidate) []BranchCandidate {
	if anchor.Lat == 0 && anchor.Lng == 0 {
		return candidates
	}
	pa := orb.Point{anchor.Lng, anchor.Lat}
	out := make([]BranchCandidate, len(candidates))
	for i, c := range candidates {
		out[i] = c
		if c.Lat == 0 && c.Lng == 0 {
			continue
		}
		pb := orb.Point{c.Lng, c.Lat}
		out[i].DistanceKM = geo.Distance(pa, pb) / 1000.0
	}
	return out
}

// SuggestBranch ranks candidates same state → shortest distance → default →
// head office, in that order, and returns the system's suggested branch id.
// counterpartyState is the other side's delivery state, used for the
// same-state preference.
func SuggestBranch(candidates []BranchCandidate, counterpartyState string) string {
	if len(candidates) == 0 {
		return ""
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if rank(c, counterpartyState) < rank(best, counterpartyState) {
			best = c
		}
	}
	return best.BranchID
}

// rank produces a lower-is-better key encoding the tie-break order: same
// state, then shortest distance (compared to the metre), then default, then
// head office.
func rank(c BranchCandidate, counterpartyState string) float64 {
	key := float64(int64(c.DistanceKM*1000+0.5)) * 4
	if !c.IsDefault {
		key += 2
	}
	if !c.IsHeadOffice {
		key++
	}
	if c.State == "" || c.State != counterpartyState {
		key += 1e15
	}
	return key
}

// NeedsAddressSelection reports whether either side has more than one
// eligible branch; when both sides have at most one, the engine skips
// PENDING_ADDRESS_SELECTION entirely.
func NeedsAddressSelection(buyerBranches, sellerBranches []BranchCandidate) bool {
	return len(buyerBranches) > 1 || len(sellerBranches) > 1
}
