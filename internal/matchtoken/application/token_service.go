// Package application implements the C4 contract: issue,
// resolve, reveal. It is the concrete type behind C3's TokenIssuer port and
// C5's token-reveal call at negotiation start/accept.
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rnrl/tradecore/internal/matchtoken/domain"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue"
)

type CommandService struct {
	repo      domain.Repository
	publisher messagequeue.EventPublisher
}

func NewCommandService(repo domain.Repository, publisher messagequeue.EventPublisher) *CommandService {
	return &CommandService{repo: repo, publisher: publisher}
}

// Issue mints a fresh opaque buyer/seller handle pair for a surviving
// candidate.
func (s *CommandService) Issue(ctx context.Context, requirementID, availabilityID, buyerPartnerID, sellerPartnerID string, score decimal.Decimal, breakdown domain.ScoreBreakdown) (*domain.Token, error) {
	now := time.Now().UTC()
	token := &domain.Token{
		TokenID:         fmt.Sprintf("TOK-%d", idgen.GenID()),
		RequirementID:   requirementID,
		AvailabilityID:  availabilityID,
		BuyerPartnerID:  buyerPartnerID,
		SellerPartnerID: sellerPartnerID,
		BuyerHandle:     uuid.NewString(),
		SellerHandle:    uuid.NewString(),
		Score:           score,
		ScoreBreakdown:  breakdown,
		DisclosureLevel: domain.DisclosureAnon,
		CreatedAt:       now,
		ExpiresAt:       now.Add(domain.DefaultExpiry),
	}
	if err := s.repo.Save(ctx, token); err != nil {
		return nil, err
	}
	s.emit(ctx, "match.found.v1", token.TokenID, map[string]any{
		"tokenId": token.TokenID, "requirementId": requirementID, "availabilityId": availabilityID,
	})
	return token, nil
}

// Resolve returns the side-specific redacted view for the actor presenting
// handle; cross-side probing is rejected inside domain.Token.Resolve.
func (s *CommandService) Resolve(ctx context.Context, handle string) (*domain.View, error) {
	token, err := s.repo.GetByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, domain.ErrWrongSide
	}
	return token.Resolve(handle, time.Now().UTC())
}

// ResolveRaw validates that handle belongs to actorPartnerID's side and
// returns the unredacted token, for callers (C5's start()) that need the
// full pair of ids rather than the counterparty-withheld View. Cross-side
// probing is rejected; expiry is not checked here, so callers check
// the returned token's expiry themselves.
func (s *CommandService) ResolveRaw(ctx context.Context, handle, actorPartnerID string) (*domain.Token, error) {
	token, err := s.repo.GetByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, domain.ErrWrongSide
	}
	side, err := token.ResolveSide(handle)
	if err != nil {
		return nil, err
	}
	expectedActor := token.BuyerPartnerID
	if side == domain.SideSeller {
		expectedActor = token.SellerPartnerID
	}
	if expectedActor != actorPartnerID {
		return nil, domain.ErrWrongSide
	}
	return token, nil
}

// Reveal bumps a token's disclosure level, called by C5 when a negotiation
// starts (ENGAGED) or is accepted (TRADE).
func (s *CommandService) Reveal(ctx context.Context, tokenID string, target domain.DisclosureLevel) error {
	token, err := s.repo.GetByID(ctx, tokenID)
	if err != nil {
		return err
	}
	if token == nil {
		return fmt.Errorf("matchtoken: %s not found", tokenID)
	}
	if err := token.Reveal(target); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, token); err != nil {
		return err
	}
	s.emit(ctx, "matchtoken.disclosure_changed.v1", tokenID, map[string]any{
		"tokenId": tokenID, "disclosureLevel": string(target),
	})
	return nil
}

func (s *CommandService) emit(ctx context.Context, eventType, aggregateID string, payload map[string]any) {
	if s.publisher == nil {
		return
	}
	payload["occurredAt"] = time.Now().UTC()
	if err := s.publisher.PublishInTx(ctx, nil, eventType, aggregateID, payload); err != nil {
		logging.Error(ctx, "failed to publish matchtoken event", "eventType", eventType, "aggregateId", aggregateID, "error", err)
	}
}
