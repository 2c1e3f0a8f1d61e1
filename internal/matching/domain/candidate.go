// Package domain implements the C3 matching-engine's pure scoring core:
// pre-filter, geographic filter, weighted similarity scoring and duplicate
// suppression. Unlike internal/matchingengine/domain/matching.go's
// price-time-priority DisruptionEngine, this is a push-matching candidate
// scorer over independently-priced bilateral offers, so the ring-buffer/
// order-book shape does not apply; what carries over is the
// decimal-everywhere convention and the single-purpose exported "Result"
// struct returned by the core operation.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quality/Location/Timeline inputs are intentionally untyped aliases of the
// requirement/availability packages' value objects would create an import
// cycle across bounded contexts; the matching engine instead works off of
// this self-contained Candidate snapshot assembled by the application layer
// from both sides' aggregates.
type QualityParam struct {
	Name      string
	Min       *float64
	Max       *float64
	Target    *float64
	Tolerance float64
	Mandatory bool
}

type Location struct {
	RegisteredLocationID string
	Lat                  float64
	Lng                  float64
	Region               string
}

type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) OverlapFraction(o Window) float64 {
	start := w.From
	if o.From.After(start) {
		start = o.From
	}
	end := w.To
	if o.To.Before(end) {
		end = o.To
	}
	overlap := end.Sub(start)
	if overlap <= 0 {
		return 0
	}
	total := w.To.Sub(w.From)
	if total <= 0 {
		return 0
	}
	frac := float64(overlap) / float64(total)
	if frac > 1 {
		return 1
	}
	return frac
}

// RequirementSide is the buyer-side snapshot fed into scoring.
type RequirementSide struct {
	RequirementID    string
	BuyerPartnerID   string
	CommodityID      string
	Quantity         decimal.Decimal
	PreferredPrice   decimal.Decimal
	MaxPrice         decimal.Decimal
	QualitySpec      []QualityParam
	Location         Location
	DeliveryWindow   Window
	IntentType       string
	MarketVisibility string
	InvitedSellerIDs []string
	RiskState        string
	Capabilities     []string
	LastActivityAt   time.Time
}

// AvailabilitySide is the seller-side snapshot fed into scoring.
type AvailabilitySide struct {
	AvailabilityID    string
	SellerPartnerID   string
	CommodityID       string
	AvailableQuantity decimal.Decimal
	AskingPrice       decimal.Decimal
	AllowPartialOrder bool
	MinOrderQuantity  decimal.Decimal
	QualitySpec       []QualityParam
	Location          Location
	DeliveryWindow    Window
	IntentType        string
	MarketVisibility  string
	InvitedBuyerIDs   []string
	RiskState         string
	Capabilities      []string
	LastActivityAt    time.Time
}

// compatibleIntents pairs a requirement intent with the availability intents
// it may be matched against.
var compatibleIntents = map[string]map[string]bool{
	"DIRECT_BUY":       {"SPOT": true, "BOOKING": true, "CONTRACT": true},
	"NEGOTIATION":      {"SPOT": true, "BOOKING": true, "CONTRACT": true, "OTC": true},
	"AUCTION":          {"SPOT": true, "BOOKING": true},
	"PRICE_DISCOVERY":  {"SPOT": true, "OTC": true},
}

// Prefilter rejection reasons, surfaced to callers so a rejected candidate
// can be recorded with a specific cause instead of vanishing silently.
const (
	RejectCommodityMismatch = "COMMODITY_MISMATCH"
	RejectIncompatibleIntent = "INCOMPATIBLE_INTENT"
	RejectSelfMatch          = "SELF_MATCH"
	RejectCapabilityMissing  = "CAPABILITY_MISSING"
	RejectVisibilityBlocked  = "VISIBILITY_BLOCKED"
)

// PassesPrefilter checks commodity match, compatible intent types, the
// self-match block, capability cross-check and market visibility, in that
// order, returning the first reason that fails. Status/ACTIVE and riskState
// checks are the caller's responsibility since they are enforced before the
// candidate snapshot is even built (only matchable aggregates are loaded).
func PassesPrefilter(req RequirementSide, avail AvailabilitySide) (bool, string) {
	if req.CommodityID != avail.CommodityID {
		return false, RejectCommodityMismatch
	}
	if !compatibleIntents[req.IntentType][avail.IntentType] {
		return false, RejectIncompatibleIntent
	}
	if req.BuyerPartnerID == avail.SellerPartnerID {
		return false, RejectSelfMatch
	}
	if !hasCapability(req.Capabilities, "BUY") || !hasCapability(avail.Capabilities, "SELL") {
		return false, RejectCapabilityMissing
	}
	if !visibleTo(avail.MarketVisibility, avail.InvitedBuyerIDs, req.BuyerPartnerID) {
		return false, RejectVisibilityBlocked
	}
	if !visibleTo(req.MarketVisibility, req.InvitedSellerIDs, avail.SellerPartnerID) {
		return false, RejectVisibilityBlocked
	}
	return true, ""
}

func hasCapability(caps []string, want string) bool {
	for _, c := range caps {
		if c == want {
			return true
		}
	}
	return false
}

func visibleTo(visibility string, invited []string, partnerID string) bool {
	switch visibility {
	case "PUBLIC":
		return true
	case "RESTRICTED":
		for _, id := range invited {
			if id == partnerID {
				return true
			}
		}
		return false
	case "PRIVATE":
		return false
	default:
		return false
	}
}
