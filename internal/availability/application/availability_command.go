// Package application implements the Availability command/query split,
// mirroring internal/requirement/application's WithTx + contextx.GetTx +
// PublishInTx shape.
package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rnrl/tradecore/internal/availability/domain"
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

func (s *CommandService) Create(ctx context.Context, cmd CreateAvailabilityCommand) (*domain.Availability, error) {
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

	if cmd.MarketVisibility == string(domain.VisibilityRestricted) && len(cmd.InvitedBuyerIDs) == 0 {
		return nil, fmt.Errorf("invitedBuyerIds must be non-empty when marketVisibility is RESTRICTED")
	}

	qualityJSON, _ := json.Marshal(qualitySpec)
	locationJSON, _ := json.Marshal(loc)
	invitedJSON, _ := json.Marshal(cmd.InvitedBuyerIDs)

	total := decimal.NewFromFloat(cmd.TotalQuantity)
	avail := &domain.Availability{
		AvailabilityID:         fmt.Sprintf("AVL-%d", idgen.GenID()),
		SellerPartnerID:        cmd.SellerPartnerID,
		SellerBranchLocationID: cmd.SellerBranchLocationID,
		CommodityID:            cmd.CommodityID,
		TotalQuantity:          total,
		AvailableQuantity:      total,
		ReservedQuantity:       decimal.Zero,
		SoldQuantity:           decimal.Zero,
		Unit:                   cmd.Unit,
		AskingPrice:            decimal.NewFromFloat(cmd.AskingPrice),
		AllowPartialOrder:      cmd.AllowPartialOrder,
		MinOrderQuantity:       decimal.NewFromFloat(cmd.MinOrderQuantity),
		QualitySpecJSON:        qualityJSON,
		DeliveryLocationJSON:   locationJSON,
		DeliveryFrom:           cmd.DeliveryFrom,
		DeliveryTo:             cmd.DeliveryTo,
		IntentType:             domain.IntentType(cmd.IntentType),
		MarketVisibility:       domain.MarketVisibility(cmd.MarketVisibility),
		InvitedBuyerIDsJSON:    invitedJSON,
		ApprovalStatus:         domain.ApprovalPending,
		Status:                 domain.StatusDraft,
		Version:                1,
		RiskState:              domain.RiskPending,
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Save(txCtx, avail); err != nil {
			return err
		}
		return s.publish(txCtx, avail, "availability.created.v1")
	})
	if err != nil {
		return nil, err
	}
	return avail, nil
}

// Approve sets approvalStatus; a human or automated underwriter step distinct
// from the risk evaluation.
func (s *CommandService) Approve(ctx context.Context, availabilityID string, approved bool) (*domain.Availability, error) {
	avail, err := s.repo.Get(ctx, availabilityID)
	if err != nil {
		return nil, err
	}
	if avail == nil {
		return nil, errNotFound(availabilityID)
	}
	if approved {
		avail.ApprovalStatus = domain.ApprovalApproved
	} else {
		avail.ApprovalStatus = domain.ApprovalRejected
	}
	return avail, s.repo.Save(ctx, avail)
}

// Publish mirrors internal/requirement/application.CommandService.Publish:
// evaluate risk, flip DRAFT->ACTIVE/BLOCKED, then trigger matching at HIGH
// priority outside the state-change transaction with an async fallback.
func (s *CommandService) Publish(ctx context.Context, availabilityID string) (*domain.Availability, error) {
	avail, err := s.repo.Get(ctx, availabilityID)
	if err != nil {
		return nil, err
	}
	if avail == nil {
		return nil, errNotFound(availabilityID)
	}
	if !avail.CanPublish() {
		return nil, errPrecondition("availability is not in DRAFT")
	}

	status := string(domain.RiskPending)
	if s.risk != nil {
		status, err = s.risk.EvaluateEntity(ctx, avail)
		if err != nil {
			return nil, err
		}
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		avail.RiskState = domain.RiskState(status)
		if avail.RiskState == domain.RiskPass || avail.RiskState == domain.RiskWarn {
			avail.Status = domain.StatusActive
		} else {
			avail.Status = domain.StatusBlocked
		}
		rows, err := s.repo.CompareAndSwapVersion(txCtx, avail, avail.Version)
		if err != nil {
			return err
		}
		if rows == 0 {
			return errConflict("availability was modified concurrently")
		}
		avail.Version++
		return s.publish(txCtx, avail, "availability.published.v1")
	})
	if err != nil {
		return nil, err
	}

	if avail.IsMatchable() && s.matching.PublishHigh != nil {
		if err := s.matching.PublishHigh(ctx, avail.AvailabilityID); err != nil {
			logging.Warn(ctx, "instant matching failed, queuing async fallback", "availabilityId", avail.AvailabilityID, "error", err)
			if s.matching.PublishAsync != nil {
				if asyncErr := s.matching.PublishAsync(ctx, avail.AvailabilityID); asyncErr != nil {
					logging.Error(ctx, "async matching fallback failed to enqueue", "availabilityId", avail.AvailabilityID, "error", asyncErr)
				}
			}
		}
	}

	return avail, nil
}

func (s *CommandService) Cancel(ctx context.Context, availabilityID string) error {
	avail, err := s.repo.Get(ctx, availabilityID)
	if err != nil {
		return err
	}
	if avail == nil {
		return errNotFound(availabilityID)
	}
	if !avail.CanCancel() {
		return errPrecondition("availability cannot be cancelled in its current state")
	}
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		avail.Status = domain.StatusCancelled
		rows, err := s.repo.CompareAndSwapVersion(txCtx, avail, avail.Version)
		if err != nil {
			return err
		}
		if rows == 0 {
			return errConflict("availability was modified concurrently")
		}
		avail.Version++
		return s.publish(txCtx, avail, "availability.cancelled.v1")
	})
}

// MarkSold forces a SOLD transition, e.g. administratively closing out a
// listing with residual unsellable supply.
func (s *CommandService) MarkSold(ctx context.Context, availabilityID string) error {
	avail, err := s.repo.Get(ctx, availabilityID)
	if err != nil {
		return err
	}
	if avail == nil {
		return errNotFound(availabilityID)
	}
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		avail.Status = domain.StatusSold
		rows, err := s.repo.CompareAndSwapVersion(txCtx, avail, avail.Version)
		if err != nil {
			return err
		}
		if rows == 0 {
			return errConflict("availability was modified concurrently")
		}
		avail.Version++
		return s.publish(txCtx, avail, "availability.sold.v1")
	})
}

func (s *CommandService) publish(ctx context.Context, avail *domain.Availability, eventType string) error {
	if s.publisher == nil {
		return nil
	}
	payload := map[string]any{
		"availabilityId": avail.AvailabilityID,
		"status":         avail.Status,
		"riskState":      avail.RiskState,
		"occurredAt":     time.Now().UTC(),
	}
	return s.publisher.PublishInTx(ctx, contextx.GetTx(ctx), eventType, avail.AvailabilityID, payload)
}
