// Package infrastructure adapts C2's CommandService to the RiskEvaluator
// ports each consuming bounded context defines locally (requirement,
// availability, matching), so internal/risk is never imported directly by
// their application packages — only its adapter, wired at
// cmd/tradecore/main.go.
package infrastructure

import (
	"context"

	availdomain "github.com/rnrl/tradecore/internal/availability/domain"
	matchdomain "github.com/rnrl/tradecore/internal/matching/domain"
	reqdomain "github.com/rnrl/tradecore/internal/requirement/domain"
	riskapp "github.com/rnrl/tradecore/internal/risk/application"
	riskdomain "github.com/rnrl/tradecore/internal/risk/domain"
)

type RiskAdapter struct {
	commands *riskapp.CommandService
}

func NewRiskAdapter(commands *riskapp.CommandService) *RiskAdapter {
	return &RiskAdapter{commands: commands}
}

// EvaluateEntity satisfies internal/requirement/application.RiskEvaluator.
func (a *RiskAdapter) EvaluateEntity(ctx context.Context, r *reqdomain.Requirement) (string, error) {
	entity := riskdomain.EntityContext{
		PartnerID:          r.BuyerPartnerID,
		Capabilities:       []string{"BUY"},
		RequiredCapability: "BUY",
	}
	result, err := a.commands.Evaluate(ctx, "requirement", r.RequirementID, entity)
	if err != nil {
		return "", err
	}
	return string(result.Status), nil
}

// EvaluateAvailability satisfies internal/availability/application.RiskEvaluator.
// It cannot share the method name EvaluateEntity on the same receiver as the
// requirement variant because the signatures differ only in the pointer
// type; Go requires distinct adapters per port, so a thin wrapper exposes
// this one under the method name the availability port expects.
type AvailabilityRiskAdapter struct {
	commands *riskapp.CommandService
}

func NewAvailabilityRiskAdapter(commands *riskapp.CommandService) *AvailabilityRiskAdapter {
	return &AvailabilityRiskAdapter{commands: commands}
}

func (a *AvailabilityRiskAdapter) EvaluateEntity(ctx context.Context, av *availdomain.Availability) (string, error) {
	entity := riskdomain.EntityContext{
		PartnerID:          av.SellerPartnerID,
		Capabilities:       []string{"SELL"},
		RequiredCapability: "SELL",
	}
	result, err := a.commands.Evaluate(ctx, "availability", av.AvailabilityID, entity)
	if err != nil {
		return "", err
	}
	return string(result.Status), nil
}

// BilateralRiskAdapter satisfies internal/matching/application.BilateralRiskEvaluator.
type BilateralRiskAdapter struct {
	commands *riskapp.CommandService
}

func NewBilateralRiskAdapter(commands *riskapp.CommandService) *BilateralRiskAdapter {
	return &BilateralRiskAdapter{commands: commands}
}

func (a *BilateralRiskAdapter) EvaluateBilateral(ctx context.Context, req *matchdomain.RequirementSide, avail *matchdomain.AvailabilitySide) (string, float64, error) {
	bilateral := riskdomain.BilateralContext{
		BuyerPartnerID:     req.BuyerPartnerID,
		SellerPartnerID:    avail.SellerPartnerID,
		BuyerCapabilities:  req.Capabilities,
		SellerCapabilities: avail.Capabilities,
		CommodityID:        req.CommodityID,
	}
	subjectID := req.RequirementID + ":" + avail.AvailabilityID
	result, err := a.commands.Evaluate(ctx, "bilateral", subjectID, bilateral)
	if err != nil {
		return "", 0, err
	}
	return string(result.Status), result.Score / 100.0, nil
}
