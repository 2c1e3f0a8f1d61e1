package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rnrl/tradecore/internal/matchtoken/domain"
)

func newToken() *domain.Token {
	now := time.Now().UTC()
	return &domain.Token{
		TokenID: "TOK-1", RequirementID: "REQ-1", AvailabilityID: "AVL-1",
		BuyerPartnerID: "BUYER", SellerPartnerID: "SELLER",
		BuyerHandle: "buyer-handle", SellerHandle: "seller-handle",
		Score: decimal.NewFromFloat(0.9), DisclosureLevel: domain.DisclosureAnon,
		CreatedAt: now, ExpiresAt: now.Add(domain.DefaultExpiry),
	}
}

func TestResolve_WithdrawsCounterpartyUntilEngaged(t *testing.T) {
	tok := newToken()
	view, err := tok.Resolve(tok.BuyerHandle, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.CounterpartyID != "" {
		t.Fatalf("expected counterparty withheld at ANON, got %q", view.CounterpartyID)
	}
}

func TestResolve_RevealsCounterpartyOnceEngaged(t *testing.T) {
	tok := newToken()
	if err := tok.Reveal(domain.DisclosureEngaged); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	view, err := tok.Resolve(tok.BuyerHandle, time.Now().UTC())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.CounterpartyID != tok.SellerPartnerID {
		t.Fatalf("expected buyer to see seller partner id, got %q", view.CounterpartyID)
	}
}

func TestResolve_RejectsUnrecognizedHandle(t *testing.T) {
	tok := newToken()
	if _, err := tok.Resolve("forged-handle", time.Now().UTC()); err != domain.ErrWrongSide {
		t.Fatalf("expected ErrWrongSide, got %v", err)
	}
}

func TestResolve_RejectsExpiredToken(t *testing.T) {
	tok := newToken()
	if _, err := tok.Resolve(tok.BuyerHandle, tok.ExpiresAt.Add(time.Minute)); err != domain.ErrExpired {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestReveal_TradeIsTerminal(t *testing.T) {
	tok := newToken()
	if err := tok.Reveal(domain.DisclosureTrade); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tok.Reveal(domain.DisclosureEngaged); err != domain.ErrAlreadyTraded {
		t.Fatalf("expected ErrAlreadyTraded, got %v", err)
	}
}
