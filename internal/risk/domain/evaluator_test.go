package domain_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rnrl/tradecore/internal/risk/domain"
)

func goodEntity() domain.EntityContext {
	return domain.EntityContext{
		PartnerID:                "P1",
		Capabilities:             []string{"BUY"},
		RequiredCapability:       "BUY",
		CreditUtilization:        decimal.NewFromFloat(0.2),
		CounterpartyRating:       decimal.NewFromFloat(90),
		CounterpartyVintageYears: 5,
		PaymentHistoryScore:      decimal.NewFromFloat(95),
		DeliveryHistoryScore:     decimal.NewFromFloat(95),
		DisputeHistoryScore:      decimal.NewFromFloat(2),
	}
}

func newEvaluator() *domain.Evaluator {
	return domain.NewEvaluator(domain.DefaultRuleSet(), domain.DefaultBlockers(), nil, nil, 30)
}

func TestEvaluate_PassOnStrongProfile(t *testing.T) {
	e := newEvaluator()
	result, err := e.Evaluate(context.Background(), goodEntity())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != domain.StatusPass {
		t.Fatalf("expected PASS, got %s (score=%v)", result.Status, result.Score)
	}
}

func TestEvaluate_WashTradingBlocked(t *testing.T) {
	e := newEvaluator()
	bilateral := domain.BilateralContext{
		BuyerPartnerID:     "P1",
		SellerPartnerID:    "P1",
		BuyerCapabilities:  []string{"BUY"},
		SellerCapabilities: []string{"SELL"},
		Buyer:              goodEntity(),
		Seller:             goodEntity(),
	}
	result, err := e.Evaluate(context.Background(), bilateral)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != domain.StatusFail {
		t.Fatalf("expected FAIL for wash trading, got %s", result.Status)
	}
	if result.BlockReason == "" {
		t.Fatal("expected a block reason")
	}
}

func TestEvaluate_InvalidCapabilityBlocked(t *testing.T) {
	e := newEvaluator()
	entity := goodEntity()
	entity.Capabilities = []string{"SELL"} // required is BUY
	result, err := e.Evaluate(context.Background(), entity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != domain.StatusFail {
		t.Fatalf("expected FAIL for missing capability, got %s", result.Status)
	}
}

func TestEvaluate_WarnBoundaryAtExactlySixty(t *testing.T) {
	// credit rule contributes exactly 40 (creditUtilization=0); the other two
	// rules are driven to contribute exactly 20 total, landing the rule score
	// (and, with no ML opinion, the final score) at exactly 60, the WARN
	// threshold boundary.
	e := newEvaluator()
	entity := domain.EntityContext{
		PartnerID:                "P1",
		Capabilities:             []string{"BUY"},
		RequiredCapability:       "BUY",
		CreditUtilization:        decimal.Zero,
		CounterpartyRating:       decimal.NewFromFloat(66.67),
		CounterpartyVintageYears: 0,
		PaymentHistoryScore:      decimal.Zero,
		DeliveryHistoryScore:     decimal.Zero,
		DisputeHistoryScore:      decimal.NewFromFloat(100),
	}
	result, err := e.Evaluate(context.Background(), entity)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != domain.StatusWarn {
		t.Fatalf("expected WARN at the boundary, got %s (score=%v)", result.Status, result.Score)
	}
}
