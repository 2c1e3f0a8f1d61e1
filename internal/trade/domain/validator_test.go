package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func completeTerms(now time.Time) Terms {
	min := 10.0
	return Terms{
		PriceQuantity: PriceQuantityTerms{
			PricePerUnit: decimal.NewFromInt(100), TotalQuantity: decimal.NewFromInt(10),
			Unit: "MT", TotalAmount: decimal.NewFromInt(1000), Currency: "USD",
		},
		Delivery: DeliveryTerms{
			BranchLocationID: "BR-1", DeliveryDate: now.Add(72 * time.Hour),
			Incoterm: "FOB", TransportMode: "ROAD", FreightResponsible: "BUYER",
		},
		Payment: PaymentTerms{
			Method: "BANK_TRANSFER", AdvancePct: 30, AdvanceDueDays: 3,
			BalanceTrigger: BalanceOnDelivery, BalanceDueDays: 7,
		},
		Quality: []QualityTerm{
			{Name: "moisture", Min: &min, TestingMethod: "ISO-123", Mandatory: true},
		},
		Inspection: InspectionTerms{Agency: "SGS", Location: "port", Timeline: "pre-shipment", RejectionTerms: "full refund"},
		Legal: LegalTerms{
			GoverningLaw: "India", Jurisdiction: "Mumbai", DisputeResolutionMethod: "arbitration",
			DisputeVenue: "Mumbai", ForceMajeureClause: "standard",
		},
		Penalties: PenaltyTerms{
			LateDeliveryRatePct: 1, LateDeliveryCapPct: 10,
			QualityRejectionTerms: "reject lot", BuyerCancellationTerms: "30 days notice", SellerCancellationTerms: "30 days notice",
		},
	}
}

func TestValidateTerms_CompleteTermsReturnNoMissingFields(t *testing.T) {
	now := time.Now().UTC()
	if missing := ValidateTerms(completeTerms(now), now); len(missing) != 0 {
		t.Fatalf("expected no missing fields, got %+v", missing)
	}
}

func TestValidateTerms_RejectsNonPositivePrice(t *testing.T) {
	now := time.Now().UTC()
	terms := completeTerms(now)
	terms.PriceQuantity.PricePerUnit = decimal.Zero
	missing := ValidateTerms(terms, now)
	found := false
	for _, m := range missing {
		if m.Group == "priceQuantity" && m.Field == "pricePerUnit" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected pricePerUnit missing field, got %+v", missing)
	}
}

func TestValidateTerms_RejectsMismatchedTotalAmount(t *testing.T) {
	now := time.Now().UTC()
	terms := completeTerms(now)
	terms.PriceQuantity.TotalAmount = decimal.NewFromInt(1)
	missing := ValidateTerms(terms, now)
	found := false
	for _, m := range missing {
		if m.Field == "totalAmount" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected totalAmount mismatch reported, got %+v", missing)
	}
}

func TestValidateTerms_RejectsPastDeliveryDate(t *testing.T) {
	now := time.Now().UTC()
	terms := completeTerms(now)
	terms.Delivery.DeliveryDate = now.Add(-24 * time.Hour)
	missing := ValidateTerms(terms, now)
	found := false
	for _, m := range missing {
		if m.Field == "deliveryDate" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected deliveryDate in the past to be reported, got %+v", missing)
	}
}

func TestValidateTerms_RejectsMandatoryQualityParamWithoutBounds(t *testing.T) {
	now := time.Now().UTC()
	terms := completeTerms(now)
	terms.Quality = []QualityTerm{{Name: "moisture", TestingMethod: "ISO-123", Mandatory: true}}
	missing := ValidateTerms(terms, now)
	if len(missing) == 0 {
		t.Fatal("expected missing bound on mandatory quality parameter")
	}
}
