package domain

import (
	"testing"
	"time"
)

func TestCanSign_RejectsSecondSignatureFromSameSide(t *testing.T) {
	trade := &Trade{Status: StatusPendingSignature}
	existing := []Signature{{Side: SignatureBuyer}}
	if err := trade.CanSign(SignatureBuyer, existing); err != ErrAlreadySigned {
		t.Fatalf("expected ErrAlreadySigned, got %v", err)
	}
}

func TestCanSign_AllowsCounterpartySide(t *testing.T) {
	trade := &Trade{Status: StatusPendingSignature}
	existing := []Signature{{Side: SignatureBuyer}}
	if err := trade.CanSign(SignatureSeller, existing); err != nil {
		t.Fatalf("expected seller signature to be allowed, got %v", err)
	}
}

func TestCanSign_RejectsOutsidePendingSignature(t *testing.T) {
	trade := &Trade{Status: StatusDraft}
	if err := trade.CanSign(SignatureBuyer, nil); err != ErrNotPendingSignature {
		t.Fatalf("expected ErrNotPendingSignature, got %v", err)
	}
}

func TestSuggestBranch_PrefersSameState(t *testing.T) {
	candidates := []BranchCandidate{
		{BranchID: "far-but-same-state", State: "MH", DistanceKM: 900},
		{BranchID: "near-different-state", State: "GJ", DistanceKM: 10},
	}
	got := SuggestBranch(candidates, "MH")
	if got != "far-but-same-state" {
		t.Fatalf("expected same-state branch to win, got %s", got)
	}
}

func TestSuggestBranch_FallsBackToShortestDistance(t *testing.T) {
	candidates := []BranchCandidate{
		{BranchID: "near", State: "GJ", DistanceKM: 10},
		{BranchID: "far", State: "KA", DistanceKM: 500},
	}
	got := SuggestBranch(candidates, "MH")
	if got != "near" {
		t.Fatalf("expected nearest branch to win, got %s", got)
	}
}

func TestNeedsAddressSelection_SkipsWhenBothSidesHaveAtMostOneBranch(t *testing.T) {
	buyer := []BranchCandidate{{BranchID: "b1"}}
	seller := []BranchCandidate{{BranchID: "s1"}}
	if NeedsAddressSelection(buyer, seller) {
		t.Fatal("expected no address selection needed when both sides have exactly one branch")
	}
}

func TestNeedsAddressSelection_TriggersWhenEitherSideHasMultiple(t *testing.T) {
	buyer := []BranchCandidate{{BranchID: "b1"}, {BranchID: "b2"}}
	seller := []BranchCandidate{{BranchID: "s1"}}
	if !NeedsAddressSelection(buyer, seller) {
		t.Fatal("expected address selection needed when buyer has multiple branches")
	}
}

func TestComputeContractHash_IsDeterministic(t *testing.T) {
	trade := &Trade{TradeID: "TRD-1", NegotiationID: "NEG-1", Terms: completeTerms(time.Now().UTC())}
	h1, err := ComputeContractHash(trade)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h2, err := ComputeContractHash(trade)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected stable hash, got %s and %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Fatalf("expected 64-char hex sha256 digest, got %d chars", len(h1))
	}
}

func TestComputeContractHash_ChangesWithTerms(t *testing.T) {
	now := time.Now().UTC()
	trade := &Trade{TradeID: "TRD-1", Terms: completeTerms(now)}
	h1, _ := ComputeContractHash(trade)
	trade.Terms.PriceQuantity.PricePerUnit = trade.Terms.PriceQuantity.PricePerUnit.Add(trade.Terms.PriceQuantity.PricePerUnit)
	h2, _ := ComputeContractHash(trade)
	if h1 == h2 {
		t.Fatal("expected hash to change when terms change")
	}
}
