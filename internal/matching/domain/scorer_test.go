package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rnrl/tradecore/internal/matching/domain"
)

func window(days int) domain.Window {
	now := time.Unix(1700000000, 0).UTC()
	return domain.Window{From: now, To: now.Add(time.Duration(days) * 24 * time.Hour)}
}

func TestScore_PerfectMatchIsOne(t *testing.T) {
	req := domain.RequirementSide{
		Quantity:       decimal.NewFromInt(100),
		PreferredPrice: decimal.NewFromInt(100),
		MaxPrice:       decimal.NewFromInt(120),
		Location:       domain.Location{RegisteredLocationID: "LOC-1"},
		DeliveryWindow: window(10),
	}
	avail := domain.AvailabilitySide{
		AvailableQuantity: decimal.NewFromInt(100),
		AskingPrice:       decimal.NewFromInt(100),
		AllowPartialOrder: true,
		Location:          domain.Location{RegisteredLocationID: "LOC-1"},
		DeliveryWindow:    window(10),
	}

	b := domain.Score(domain.ScoreInputs{Req: req, Avail: avail, BilateralRisk: 1, MaxRadiusKM: 500})
	if b.Total < 0.999 {
		t.Fatalf("expected near-1 total score, got %v (%+v)", b.Total, b)
	}
}

func TestScore_WarnPenaltyReducesTotal(t *testing.T) {
	req := domain.RequirementSide{
		Quantity: decimal.NewFromInt(100), PreferredPrice: decimal.NewFromInt(100), MaxPrice: decimal.NewFromInt(120),
		Location: domain.Location{RegisteredLocationID: "LOC-1"}, DeliveryWindow: window(10),
	}
	avail := domain.AvailabilitySide{
		AvailableQuantity: decimal.NewFromInt(100), AskingPrice: decimal.NewFromInt(100), AllowPartialOrder: true,
		Location: domain.Location{RegisteredLocationID: "LOC-1"}, DeliveryWindow: window(10),
	}

	clean := domain.Score(domain.ScoreInputs{Req: req, Avail: avail, BilateralRisk: 1, MaxRadiusKM: 500})
	warned := domain.Score(domain.ScoreInputs{Req: req, Avail: avail, BilateralRisk: 1, MaxRadiusKM: 500, EitherWarn: true})

	if warned.Total >= clean.Total {
		t.Fatalf("expected WARN-penalized score (%v) to be less than clean score (%v)", warned.Total, clean.Total)
	}
}

func TestPassesPrefilter_BlocksSelfMatch(t *testing.T) {
	req := domain.RequirementSide{
		BuyerPartnerID: "P1", CommodityID: "WHEAT", IntentType: "DIRECT_BUY",
		MarketVisibility: "PUBLIC", Capabilities: []string{"BUY"},
	}
	avail := domain.AvailabilitySide{
		SellerPartnerID: "P1", CommodityID: "WHEAT", IntentType: "SPOT",
		MarketVisibility: "PUBLIC", Capabilities: []string{"SELL"},
	}
	ok, reason := domain.PassesPrefilter(req, avail)
	if ok {
		t.Fatalf("expected self-match to be blocked")
	}
	if reason != domain.RejectSelfMatch {
		t.Fatalf("expected reason %q, got %q", domain.RejectSelfMatch, reason)
	}
}

func TestPassesPrefilter_RestrictedRequiresInvite(t *testing.T) {
	req := domain.RequirementSide{
		BuyerPartnerID: "BUYER", CommodityID: "WHEAT", IntentType: "DIRECT_BUY",
		MarketVisibility: "PUBLIC", Capabilities: []string{"BUY"},
	}
	avail := domain.AvailabilitySide{
		SellerPartnerID: "SELLER", CommodityID: "WHEAT", IntentType: "SPOT",
		MarketVisibility: "RESTRICTED", InvitedBuyerIDs: []string{"OTHER_BUYER"},
		Capabilities: []string{"SELL"},
	}
	if ok, _ := domain.PassesPrefilter(req, avail); ok {
		t.Fatalf("expected uninvited buyer to be blocked by RESTRICTED visibility")
	}

	avail.InvitedBuyerIDs = []string{"BUYER"}
	if ok, _ := domain.PassesPrefilter(req, avail); !ok {
		t.Fatalf("expected invited buyer to pass RESTRICTED visibility")
	}
}

func TestGeoMatch_RadiusBoundary(t *testing.T) {
	mumbai := domain.Location{Lat: 19.0760, Lng: 72.8777}
	pune := domain.Location{Lat: 18.5204, Lng: 73.8567} // ~120km away

	if !domain.GeoMatch(mumbai, pune, 200) {
		t.Fatalf("expected Mumbai-Pune to be within 200km")
	}
	if domain.GeoMatch(mumbai, pune, 50) {
		t.Fatalf("expected Mumbai-Pune to exceed 50km radius")
	}
}

func TestDedupKey_StableForSameInputs(t *testing.T) {
	k1 := domain.DedupKey("REQ-1", "AVL-1", decimal.NewFromInt(100), decimal.NewFromInt(50), "digest")
	k2 := domain.DedupKey("REQ-1", "AVL-1", decimal.NewFromInt(100), decimal.NewFromInt(50), "digest")
	if k1 != k2 {
		t.Fatalf("expected identical inputs to produce the same dedup key")
	}
	k3 := domain.DedupKey("REQ-1", "AVL-2", decimal.NewFromInt(100), decimal.NewFromInt(50), "digest")
	if k1 == k3 {
		t.Fatalf("expected different availabilityId to change the dedup key")
	}
}
