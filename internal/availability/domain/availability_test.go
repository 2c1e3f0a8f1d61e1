package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rnrl/tradecore/internal/availability/domain"
)

func newAvailability(total float64) *domain.Availability {
	t := decimal.NewFromFloat(total)
	return &domain.Availability{
		AvailabilityID:     "AVL-1",
		TotalQuantity:      t,
		AvailableQuantity:  t,
		ReservedQuantity:   decimal.Zero,
		SoldQuantity:       decimal.Zero,
		AllowPartialOrder:  true,
		Status:             domain.StatusActive,
		ApprovalStatus:     domain.ApprovalApproved,
		RiskState:          domain.RiskPass,
	}
}

func TestReserve_MovesAvailableToReserved(t *testing.T) {
	a := newAvailability(100)
	a.Reserve(decimal.NewFromFloat(30))

	if !a.AvailableQuantity.Equal(decimal.NewFromFloat(70)) {
		t.Fatalf("expected available 70, got %s", a.AvailableQuantity)
	}
	if !a.ReservedQuantity.Equal(decimal.NewFromFloat(30)) {
		t.Fatalf("expected reserved 30, got %s", a.ReservedQuantity)
	}
	// invariant: reserved + available = total - sold
	sum := a.ReservedQuantity.Add(a.AvailableQuantity)
	if !sum.Equal(a.TotalQuantity.Sub(a.SoldQuantity)) {
		t.Fatalf("invariant broken: reserved+available=%s, total-sold=%s", sum, a.TotalQuantity.Sub(a.SoldQuantity))
	}
}

func TestSell_TransitionsToSoldWhenFullyConsumed(t *testing.T) {
	a := newAvailability(50)
	a.Reserve(decimal.NewFromFloat(50))
	a.Sell(decimal.NewFromFloat(50))

	if a.Status != domain.StatusSold {
		t.Fatalf("expected SOLD, got %s", a.Status)
	}
	if !a.AvailableQuantity.IsZero() || !a.ReservedQuantity.IsZero() {
		t.Fatalf("expected zeroed available/reserved, got available=%s reserved=%s", a.AvailableQuantity, a.ReservedQuantity)
	}
}

func TestCanReserve_RejectsBelowMinOrderQuantityWhenPartialDisallowed(t *testing.T) {
	a := newAvailability(100)
	a.AllowPartialOrder = false
	a.MinOrderQuantity = decimal.NewFromFloat(20)

	if a.CanReserve(decimal.NewFromFloat(10)) {
		t.Fatalf("expected reservation below minOrderQuantity to be rejected")
	}
	if !a.CanReserve(decimal.NewFromFloat(20)) {
		t.Fatalf("expected reservation at minOrderQuantity to be accepted")
	}
}

func TestCanReserve_RejectsExceedingAvailable(t *testing.T) {
	a := newAvailability(100)
	a.Reserve(decimal.NewFromFloat(90))

	if a.CanReserve(decimal.NewFromFloat(20)) {
		t.Fatalf("expected reservation exceeding remaining available quantity to be rejected")
	}
}

func TestRelease_ReturnsQuantityToAvailable(t *testing.T) {
	a := newAvailability(100)
	a.Reserve(decimal.NewFromFloat(40))
	a.Release(decimal.NewFromFloat(40))

	if !a.AvailableQuantity.Equal(decimal.NewFromFloat(100)) {
		t.Fatalf("expected available back to 100, got %s", a.AvailableQuantity)
	}
	if !a.ReservedQuantity.IsZero() {
		t.Fatalf("expected reserved zero, got %s", a.ReservedQuantity)
	}
}
