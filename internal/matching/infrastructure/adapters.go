// Package infrastructure adapts the Requirement and Availability bounded
// contexts to the matching engine's RequirementLookup/AvailabilityLookup
// ports, translating each side's own domain type into the matching engine's
// self-contained snapshot structs (internal/matching/domain.RequirementSide /
// AvailabilitySide) so internal/matching never imports sibling application
// packages' DTOs directly — only their query services.
package infrastructure

import (
	"context"
	"encoding/json"

	availapp "github.com/rnrl/tradecore/internal/availability/application"
	availdomain "github.com/rnrl/tradecore/internal/availability/domain"
	matchdomain "github.com/rnrl/tradecore/internal/matching/domain"
	reqapp "github.com/rnrl/tradecore/internal/requirement/application"
	reqdomain "github.com/rnrl/tradecore/internal/requirement/domain"
)

type RequirementAdapter struct {
	queries *reqapp.QueryService
}

func NewRequirementAdapter(queries *reqapp.QueryService) *RequirementAdapter {
	return &RequirementAdapter{queries: queries}
}

func (a *RequirementAdapter) Get(ctx context.Context, requirementID string) (*matchdomain.RequirementSide, error) {
	req, err := a.queries.Get(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	return toRequirementSide(req), nil
}

func (a *RequirementAdapter) ListMatchableByCommodity(ctx context.Context, commodityID string) ([]matchdomain.RequirementSide, error) {
	reqs, err := a.queries.ListActiveByCommodity(ctx, commodityID)
	if err != nil {
		return nil, err
	}
	out := make([]matchdomain.RequirementSide, 0, len(reqs))
	for _, r := range reqs {
		if !r.IsMatchable() {
			continue
		}
		out = append(out, *toRequirementSide(r))
	}
	return out, nil
}

func toRequirementSide(r *reqdomain.Requirement) *matchdomain.RequirementSide {
	if r == nil {
		return nil
	}
	var qs []reqdomain.QualityParam
	_ = json.Unmarshal(r.QualitySpecJSON, &qs)
	var loc reqdomain.Location
	_ = json.Unmarshal(r.DeliveryLocationJSON, &loc)
	var invited []string
	_ = json.Unmarshal(r.InvitedSellerIDsJSON, &invited)

	quality := make([]matchdomain.QualityParam, 0, len(qs))
	for _, q := range qs {
		quality = append(quality, matchdomain.QualityParam{
			Name: q.Name, Min: q.Min, Max: q.Max, Target: q.Target, Tolerance: q.Tolerance, Mandatory: q.Mandatory,
		})
	}

	return &matchdomain.RequirementSide{
		RequirementID:    r.RequirementID,
		BuyerPartnerID:   r.BuyerPartnerID,
		CommodityID:      r.CommodityID,
		Quantity:         r.Quantity,
		PreferredPrice:   r.PreferredPrice,
		MaxPrice:         r.MaxPrice,
		QualitySpec:      quality,
		Location:         matchdomain.Location{RegisteredLocationID: loc.RegisteredLocationID, Lat: loc.Lat, Lng: loc.Lng, Region: loc.Region},
		DeliveryWindow:   matchdomain.Window{From: r.DeliveryFrom, To: r.DeliveryTo},
		IntentType:       string(r.IntentType),
		MarketVisibility: string(r.MarketVisibility),
		InvitedSellerIDs: invited,
		RiskState:        string(r.RiskState),
		Capabilities:     []string{"BUY"},
		LastActivityAt:   r.UpdatedAt,
	}
}

type AvailabilityAdapter struct {
	queries      *availapp.QueryService
	reservations *availapp.ReservationService
}

func NewAvailabilityAdapter(queries *availapp.QueryService, reservations *availapp.ReservationService) *AvailabilityAdapter {
	return &AvailabilityAdapter{queries: queries, reservations: reservations}
}

func (a *AvailabilityAdapter) Get(ctx context.Context, availabilityID string) (*matchdomain.AvailabilitySide, error) {
	avail, err := a.queries.Get(ctx, availabilityID)
	if err != nil {
		return nil, err
	}
	return toAvailabilitySide(avail), nil
}

func (a *AvailabilityAdapter) ListMatchableByCommodity(ctx context.Context, commodityID string) ([]matchdomain.AvailabilitySide, error) {
	avails, err := a.queries.ListActiveByCommodity(ctx, commodityID)
	if err != nil {
		return nil, err
	}
	out := make([]matchdomain.AvailabilitySide, 0, len(avails))
	for _, av := range avails {
		if !av.IsMatchable() {
			continue
		}
		out = append(out, *toAvailabilitySide(av))
	}
	return out, nil
}

func (a *AvailabilityAdapter) Reserve(ctx context.Context, availabilityID, buyerPartnerID string, quantity float64, holdHours int) (string, error) {
	res, err := a.reservations.Reserve(ctx, availabilityID, buyerPartnerID, quantity, holdHours)
	if err != nil {
		return "", err
	}
	return res.ReservationID, nil
}

func toAvailabilitySide(av *availdomain.Availability) *matchdomain.AvailabilitySide {
	if av == nil {
		return nil
	}
	var qs []availdomain.QualityParam
	_ = json.Unmarshal(av.QualitySpecJSON, &qs)
	var loc availdomain.Location
	_ = json.Unmarshal(av.DeliveryLocationJSON, &loc)
	var invited []string
	_ = json.Unmarshal(av.InvitedBuyerIDsJSON, &invited)

	quality := make([]matchdomain.QualityParam, 0, len(qs))
	for _, q := range qs {
		quality = append(quality, matchdomain.QualityParam{
			Name: q.Name, Min: q.Min, Max: q.Max, Target: q.Target, Tolerance: q.Tolerance, Mandatory: q.Mandatory,
		})
	}

	return &matchdomain.AvailabilitySide{
		AvailabilityID:    av.AvailabilityID,
		SellerPartnerID:   av.SellerPartnerID,
		CommodityID:       av.CommodityID,
		AvailableQuantity: av.AvailableQuantity,
		AskingPrice:       av.AskingPrice,
		AllowPartialOrder: av.AllowPartialOrder,
		MinOrderQuantity:  av.MinOrderQuantity,
		QualitySpec:       quality,
		Location:          matchdomain.Location{RegisteredLocationID: loc.RegisteredLocationID, Lat: loc.Lat, Lng: loc.Lng, Region: loc.Region},
		DeliveryWindow:    matchdomain.Window{From: av.DeliveryFrom, To: av.DeliveryTo},
		IntentType:        string(av.IntentType),
		MarketVisibility:  string(av.MarketVisibility),
		InvitedBuyerIDs:   invited,
		RiskState:         string(av.RiskState),
		Capabilities:      []string{"SELL"},
		LastActivityAt:    av.UpdatedAt,
	}
}
