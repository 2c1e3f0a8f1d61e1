// Package application implements the Requirement command/query split,
// grounded on internal/order/application/order_command.go's WithTx +
// contextx.GetTx + PublishInTx shape.
package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rnrl/tradecore/internal/requirement/domain"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue"
)

type CommandService struct {
	repo      domain.Repository
	publisher messagequeue.EventPublisher
	risk      RiskEvaluator
	matching  MatchingTrigger
}

func NewCommandService(repo domain.Repository, publisher messagequeue.EventPublisher, risk RiskEvaluator, matching MatchingTrigger) *CommandService {
	return &CommandService{repo: repo, publisher: publisher, risk: risk, matching: matching}
}

func (s *CommandService) Create(ctx context.Context, cmd CreateRequirementCommand) (*domain.Requirement, error) {
	loc := domain.Location{
		RegisteredLocationID: cmd.DeliveryLocation.RegisteredLocationID,
		Address:              cmd.DeliveryLocation.Address,
		Lat:                  cmd.DeliveryLocation.Lat,
		Lng:                  cmd.DeliveryLocation.Lng,
		Region:               cmd.DeliveryLocation.Region,
		Pincode:              cmd.DeliveryLocation.Pincode,
	}
	if err := loc.Validate(); err != nil {
		return nil, err
	}

	qualitySpec := make(domain.QualitySpec, 0, len(cmd.QualitySpec))
	for _, q := range cmd.QualitySpec {
		qualitySpec = append(qualitySpec, domain.QualityParam{
			Name: q.Name, Min: q.Min, Max: q.Max, Target: q.Target, Tolerance: q.Tolerance, Mandatory: q.Mandatory,
		})
	}

	if cmd.MarketVisibility == string(domain.VisibilityRestricted) && len(cmd.InvitedSellerIDs) == 0 {
		return nil, fmt.Errorf("invitedSellerIds must be non-empty when marketVisibility is RESTRICTED")
	}

	qualityJSON, _ := json.Marshal(qualitySpec)
	locationJSON, _ := json.Marshal(loc)
	invitedJSON, _ := json.Marshal(cmd.InvitedSellerIDs)

	req := &domain.Requirement{
		RequirementID:         fmt.Sprintf("REQ-%d", idgen.GenID()),
		BuyerPartnerID:        cmd.BuyerPartnerID,
		BuyerBranchLocationID: cmd.BuyerBranchLocationID,
		CommodityID:           cmd.CommodityID,
		Quantity:              decimal.NewFromFloat(cmd.Quantity),
		Unit:                  cmd.Unit,
		PreferredPrice:        decimal.NewFromFloat(cmd.PreferredPrice),
		MaxPrice:              decimal.NewFromFloat(cmd.MaxPrice),
		QualitySpecJSON:       qualityJSON,
		DeliveryLocationJSON:  locationJSON,
		DeliveryFrom:          cmd.DeliveryFrom,
		DeliveryTo:            cmd.DeliveryTo,
		IntentType:            domain.IntentType(cmd.IntentType),
		MarketVisibility:      domain.MarketVisibility(cmd.MarketVisibility),
		InvitedSellerIDsJSON:  invitedJSON,
		Urgency:               cmd.Urgency,
		EodCutoff:             cmd.EodCutoff,
		Status:                domain.StatusDraft,
		Version:               1,
		RiskState:             domain.RiskPending,
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Save(txCtx, req); err != nil {
			return err
		}
		return s.publish(txCtx, req, "requirement.created.v1")
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Publish transitions DRAFT->ACTIVE, runs the risk evaluation, and on
// PASS/WARN synchronously triggers the matching engine at HIGH priority with
// an async fallback on failure.
func (s *CommandService) Publish(ctx context.Context, requirementID string) (*domain.Requirement, error) {
	req, err := s.repo.Get(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errNotFound(requirementID)
	}
	if !req.CanPublish() {
		return nil, errPrecondition("requirement is not in DRAFT")
	}

	status := string(domain.RiskPending)
	if s.risk != nil {
		status, err = s.risk.EvaluateEntity(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		req.RiskState = domain.RiskState(status)
		if req.RiskState == domain.RiskPass || req.RiskState == domain.RiskWarn {
			req.Status = domain.StatusActive
		} else {
			req.Status = domain.StatusBlocked
		}
		rows, err := s.repo.CompareAndSwapVersion(txCtx, req, req.Version)
		if err != nil {
			return err
		}
		if rows == 0 {
			return errConflict("requirement was modified concurrently")
		}
		req.Version++
		return s.publish(txCtx, req, "requirement.published.v1")
	})
	if err != nil {
		return nil, err
	}

	if req.IsMatchable() && s.matching.PublishHigh != nil {
		if err := s.matching.PublishHigh(ctx, req.RequirementID); err != nil {
			logging.Warn(ctx, "instant matching failed, queuing async fallback", "requirementId", req.RequirementID, "error", err)
			if s.matching.PublishAsync != nil {
				if asyncErr := s.matching.PublishAsync(ctx, req.RequirementID); asyncErr != nil {
					logging.Error(ctx, "async matching fallback failed to enqueue", "requirementId", req.RequirementID, "error", asyncErr)
				}
			}
		}
	}

	return req, nil
}

func (s *CommandService) Cancel(ctx context.Context, requirementID string) error {
	req, err := s.repo.Get(ctx, requirementID)
	if err != nil {
		return err
	}
	if req == nil {
		return errNotFound(requirementID)
	}
	if !req.CanCancel() {
		return errPrecondition("requirement cannot be cancelled in its current state")
	}
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		req.Status = domain.StatusCancelled
		rows, err := s.repo.CompareAndSwapVersion(txCtx, req, req.Version)
		if err != nil {
			return err
		}
		if rows == 0 {
			return errConflict("requirement was modified concurrently")
		}
		req.Version++
		return s.publish(txCtx, req, "requirement.cancelled.v1")
	})
}

// Fulfillment is invoked by downstream trade milestones to mark a
// requirement consumed once its matched trades settle it in full.
func (s *CommandService) Fulfillment(ctx context.Context, requirementID string) error {
	req, err := s.repo.Get(ctx, requirementID)
	if err != nil {
		return err
	}
	if req == nil {
		return errNotFound(requirementID)
	}
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		req.Status = domain.StatusFulfilled
		rows, err := s.repo.CompareAndSwapVersion(txCtx, req, req.Version)
		if err != nil {
			return err
		}
		if rows == 0 {
			return errConflict("requirement was modified concurrently")
		}
		req.Version++
		return s.publish(txCtx, req, "requirement.fulfilled.v1")
	})
}

func (s *CommandService) publish(ctx context.Context, req *domain.Requirement, eventType string) error {
	if s.publisher == nil {
		return nil
	}
	payload := map[string]any{
		"requirementId": req.RequirementID,
		"status":        req.Status,
		"riskState":     req.RiskState,
		"occurredAt":    time.Now().UTC(),
	}
	return s.publisher.PublishInTx(ctx, contextx.GetTx(ctx), eventType, req.RequirementID, payload)
}
