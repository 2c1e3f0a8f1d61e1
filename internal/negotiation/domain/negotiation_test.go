package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rnrl/tradecore/internal/negotiation/domain"
)

func newNegotiation(now time.Time) *domain.Negotiation {
	return domain.New("NEG-1", "TOK-1", "REQ-1", "AVL-1", "BUYER", "SELLER", now)
}

func TestCanOffer_RejectsAlternationViolation(t *testing.T) {
	now := time.Now().UTC()
	n := newNegotiation(now)
	n.ApplyOffer("BUYER", decimal.NewFromInt(100), decimal.NewFromInt(10), "MT", "", now)

	if err := n.CanOffer("BUYER", now); err != domain.ErrAlternationViolation {
		t.Fatalf("expected alternation violation, got %v", err)
	}
	if err := n.CanOffer("SELLER", now); err != nil {
		t.Fatalf("expected seller's counter-offer to be allowed, got %v", err)
	}
}

func TestCanAccept_OnlyCounterpartyOfLastOffer(t *testing.T) {
	now := time.Now().UTC()
	n := newNegotiation(now)
	offer := n.ApplyOffer("BUYER", decimal.NewFromInt(100), decimal.NewFromInt(10), "MT", "", now)

	if err := n.CanAccept("BUYER", offer, now); err != domain.ErrNotCounterparty {
		t.Fatalf("expected offerer cannot accept own offer, got %v", err)
	}
	if err := n.CanAccept("SELLER", offer, now); err != nil {
		t.Fatalf("expected counterparty accept to be allowed, got %v", err)
	}
}

func TestCanOffer_RejectsAfterExpiry(t *testing.T) {
	now := time.Now().UTC()
	n := newNegotiation(now.Add(-49 * time.Hour))
	if err := n.CanOffer("BUYER", now); err != domain.ErrExpired {
		t.Fatalf("expected expired negotiation to reject new offers, got %v", err)
	}
}

func TestCanOffer_RejectsNonParticipant(t *testing.T) {
	now := time.Now().UTC()
	n := newNegotiation(now)
	if err := n.CanOffer("STRANGER", now); err != domain.ErrNotParticipant {
		t.Fatalf("expected non-participant to be rejected, got %v", err)
	}
}

func TestApplyOffer_TransitionsInitiatedToInProgress(t *testing.T) {
	now := time.Now().UTC()
	n := newNegotiation(now)
	if n.Status != domain.StatusInitiated {
		t.Fatalf("expected INITIATED at creation")
	}
	n.ApplyOffer("BUYER", decimal.NewFromInt(100), decimal.NewFromInt(10), "MT", "", now)
	if n.Status != domain.StatusInProgress {
		t.Fatalf("expected IN_PROGRESS after first offer, got %v", n.Status)
	}
	if n.RoundCount != 1 {
		t.Fatalf("expected round 1, got %d", n.RoundCount)
	}
}

func TestShouldAutoAccept_WithinTolerance(t *testing.T) {
	tol := domain.DefaultAcceptanceTolerance()
	ok := domain.ShouldAutoAccept(decimal.NewFromInt(100), decimal.NewFromFloat(103), decimal.NewFromInt(100), decimal.NewFromInt(95), tol)
	if !ok {
		t.Fatalf("expected offer within +-5%% price and >=90%% quantity to auto-accept")
	}
}

func TestShouldAutoAccept_RejectsOutsidePriceTolerance(t *testing.T) {
	tol := domain.DefaultAcceptanceTolerance()
	ok := domain.ShouldAutoAccept(decimal.NewFromInt(100), decimal.NewFromFloat(110), decimal.NewFromInt(100), decimal.NewFromInt(100), tol)
	if ok {
		t.Fatalf("expected 10%% price deviation to exceed default tolerance")
	}
}
