// Package application implements the C5 command side: start,
// makeOffer, accept, reject, sendMessage, expireInactive. Grounded on
// internal/requirement/application/requirement_command.go's WithTx +
// contextx.GetTx + PublishInTx shape, generalized with an aggregate lock
// acquired around every mutating operation.
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rnrl/tradecore/internal/negotiation/domain"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue"
)

type CommandService struct {
	repo      domain.Repository
	publisher messagequeue.EventPublisher
	tokens    TokenResolver
	lock      AggregateLock
	trade     TradeTrigger
	fanout    Fanout
	ai        AIAdvisor
}

func NewCommandService(repo domain.Repository, publisher messagequeue.EventPublisher, tokens TokenResolver, lock AggregateLock, trade TradeTrigger, fanout Fanout, ai AIAdvisor) *CommandService {
	return &CommandService{repo: repo, publisher: publisher, tokens: tokens, lock: lock, trade: trade, fanout: fanout, ai: ai}
}

// Start implements start(matchToken, actor, initialMessage?): requires the
// token resolvable by actor, no pre-existing negotiation for the token,
// token not expired; reveals the counterparty (ENGAGED) and creates the
// INITIATED aggregate.
func (s *CommandService) Start(ctx context.Context, cmd StartNegotiationCommand) (*domain.Negotiation, error) {
	resolved, err := s.tokens.ResolveForActor(ctx, cmd.TokenHandle, cmd.ActorPartnerID)
	if err != nil {
		return nil, errTokenNotFound(cmd.TokenHandle)
	}
	if resolved.Expired {
		return nil, errTokenExpired()
	}

	existing, err := s.repo.GetByMatchToken(ctx, resolved.TokenID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errAlreadyStarted(resolved.TokenID)
	}

	now := time.Now().UTC()
	neg := domain.New(
		fmt.Sprintf("NEG-%d", idgen.GenID()), resolved.TokenID, resolved.RequirementID, resolved.AvailabilityID,
		resolved.BuyerPartnerID, resolved.SellerPartnerID, now,
	)

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Save(txCtx, neg); err != nil {
			return err
		}
		if cmd.InitialMessage != "" {
			msg := &domain.Message{
				MessageID: fmt.Sprintf("MSG-%d", idgen.GenID()), NegotiationID: neg.NegotiationID,
				SentBy: cmd.ActorPartnerID, Type: domain.MessageChat, Content: cmd.InitialMessage, CreatedAt: now,
			}
			if err := s.repo.SaveMessage(txCtx, msg); err != nil {
				return err
			}
		}
		return s.emit(txCtx, "negotiation.started.v1", neg)
	})
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Reveal(ctx, resolved.TokenID, "ENGAGED"); err != nil {
		logging.Warn(ctx, "failed to bump token disclosure to ENGAGED", "tokenId", resolved.TokenID, "error", err)
	}
	return neg, nil
}

// MakeOffer implements the makeOffer guard set (participant,
// alternation, non-terminal, not expired) under the aggregate lock.
func (s *CommandService) MakeOffer(ctx context.Context, negotiationID string, cmd MakeOfferCommand) (*domain.Offer, error) {
	release, err := s.acquire(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	defer release()

	neg, err := s.repo.Get(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if neg == nil {
		return nil, errNotFound(negotiationID)
	}
	now := time.Now().UTC()
	if err := neg.CanOffer(cmd.ActorPartnerID, now); err != nil {
		return nil, err
	}

	offer := neg.ApplyOffer(cmd.ActorPartnerID, cmd.Price, cmd.Quantity, cmd.Unit, cmd.Terms, now)
	offer.OfferID = fmt.Sprintf("OFR-%d", idgen.GenID())
	offer.NegotiationID = neg.NegotiationID

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Save(txCtx, neg); err != nil {
			return err
		}
		if err := s.repo.SaveOffer(txCtx, offer); err != nil {
			return err
		}
		return s.emit(txCtx, "negotiation.offer_made.v1", neg)
	})
	if err != nil {
		return nil, err
	}

	if s.fanout.NotifyOfferMade != nil {
		s.fanout.NotifyOfferMade(ctx, neg.NegotiationID, offer)
	}
	return offer, nil
}

// Accept implements accept: only the counterparty of the
// last PENDING offer may accept it; bumps token disclosure to TRADE and
// triggers C6.
func (s *CommandService) Accept(ctx context.Context, negotiationID string, cmd AcceptCommand) (*domain.Negotiation, error) {
	release, err := s.acquire(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	defer release()

	neg, err := s.repo.Get(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if neg == nil {
		return nil, errNotFound(negotiationID)
	}
	lastOffer, err := s.repo.GetLastOffer(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := neg.CanAccept(cmd.ActorPartnerID, lastOffer, now); err != nil {
		return nil, err
	}

	neg.Accept(now)
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateOfferStatus(txCtx, lastOffer.OfferID, domain.OfferAccepted); err != nil {
			return err
		}
		if err := s.repo.Save(txCtx, neg); err != nil {
			return err
		}
		if cmd.Message != "" {
			msg := &domain.Message{
				MessageID: fmt.Sprintf("MSG-%d", idgen.GenID()), NegotiationID: neg.NegotiationID,
				SentBy: cmd.ActorPartnerID, Type: domain.MessageChat, Content: cmd.Message, CreatedAt: now,
			}
			if err := s.repo.SaveMessage(txCtx, msg); err != nil {
				return err
			}
		}
		return s.emit(txCtx, "negotiation.accepted.v1", neg)
	})
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Reveal(ctx, neg.MatchTokenID, "TRADE"); err != nil {
		logging.Warn(ctx, "failed to bump token disclosure to TRADE", "tokenId", neg.MatchTokenID, "error", err)
	}
	if s.fanout.NotifyStatusChanged != nil {
		s.fanout.NotifyStatusChanged(ctx, neg.NegotiationID, neg.Status)
	}
	if s.trade.OnAccepted != nil {
		if err := s.trade.OnAccepted(ctx, neg); err != nil {
			logging.Error(ctx, "trade engine failed to accept negotiation handoff", "negotiationId", neg.NegotiationID, "error", err)
		}
	}
	return neg, nil
}

// Reject implements reject: marks the last offer REJECTED;
// if a counter is supplied, immediately applies makeOffer with it instead
// of terminating the negotiation.
func (s *CommandService) Reject(ctx context.Context, negotiationID string, cmd RejectCommand) (*domain.Negotiation, error) {
	release, err := s.acquire(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	defer release()

	neg, err := s.repo.Get(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if neg == nil {
		return nil, errNotFound(negotiationID)
	}
	lastOffer, err := s.repo.GetLastOffer(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := neg.CanAccept(cmd.ActorPartnerID, lastOffer, now); err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.UpdateOfferStatus(txCtx, lastOffer.OfferID, domain.OfferRejected)
	})
	if err != nil {
		return nil, err
	}

	if cmd.Counter != nil {
		cmd.Counter.ActorPartnerID = cmd.ActorPartnerID
		if _, err := s.makeOfferLocked(ctx, neg, *cmd.Counter); err != nil {
			return nil, err
		}
		return neg, nil
	}

	neg.Reject(now)
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Save(txCtx, neg); err != nil {
			return err
		}
		return s.emit(txCtx, "negotiation.rejected.v1", neg)
	})
	if err != nil {
		return nil, err
	}
	if s.fanout.NotifyStatusChanged != nil {
		s.fanout.NotifyStatusChanged(ctx, neg.NegotiationID, neg.Status)
	}
	return neg, nil
}

// makeOfferLocked applies a counter-offer while the aggregate lock is
// already held by the caller (Reject), avoiding a re-entrant Acquire.
func (s *CommandService) makeOfferLocked(ctx context.Context, neg *domain.Negotiation, cmd MakeOfferCommand) (*domain.Offer, error) {
	now := time.Now().UTC()
	if err := neg.CanOffer(cmd.ActorPartnerID, now); err != nil {
		return nil, err
	}
	offer := neg.ApplyOffer(cmd.ActorPartnerID, cmd.Price, cmd.Quantity, cmd.Unit, cmd.Terms, now)
	offer.OfferID = fmt.Sprintf("OFR-%d", idgen.GenID())
	offer.NegotiationID = neg.NegotiationID

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Save(txCtx, neg); err != nil {
			return err
		}
		if err := s.repo.SaveOffer(txCtx, offer); err != nil {
			return err
		}
		return s.emit(txCtx, "negotiation.offer_made.v1", neg)
	})
	if err != nil {
		return nil, err
	}
	if s.fanout.NotifyOfferMade != nil {
		s.fanout.NotifyOfferMade(ctx, neg.NegotiationID, offer)
	}
	return offer, nil
}

// SendMessage implements sendMessage: allowed in any
// non-terminal state.
func (s *CommandService) SendMessage(ctx context.Context, negotiationID string, cmd SendMessageCommand) (*domain.Message, error) {
	release, err := s.acquire(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	defer release()

	neg, err := s.repo.Get(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if neg == nil {
		return nil, errNotFound(negotiationID)
	}
	if err := neg.CanSendMessage(); err != nil {
		return nil, err
	}
	if !neg.IsParticipant(cmd.ActorPartnerID) {
		return nil, domain.ErrNotParticipant
	}

	now := time.Now().UTC()
	neg.LastActivityAt = now
	msgType := domain.MessageChat
	if cmd.Type == string(domain.MessageSystem) {
		msgType = domain.MessageSystem
	}
	msg := &domain.Message{
		MessageID: fmt.Sprintf("MSG-%d", idgen.GenID()), NegotiationID: neg.NegotiationID,
		SentBy: cmd.ActorPartnerID, Type: msgType, Content: cmd.Content, CreatedAt: now,
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Save(txCtx, neg); err != nil {
			return err
		}
		if err := s.repo.SaveMessage(txCtx, msg); err != nil {
			return err
		}
		return s.emit(txCtx, "negotiation.message_sent.v1", neg)
	})
	if err != nil {
		return nil, err
	}
	if s.fanout.NotifyMessageSent != nil {
		s.fanout.NotifyMessageSent(ctx, neg.NegotiationID, msg)
	}
	return msg, nil
}

// ExpireInactive implements the expireInactive periodic sweeper:
// any non-terminal negotiation past expiresAt transitions to EXPIRED with a
// SYSTEM message.
func (s *CommandService) ExpireInactive(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	candidates, err := s.repo.ListExpiredCandidates(ctx, now)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, neg := range candidates {
		if neg.IsTerminal() || !neg.IsExpired(now) {
			continue
		}
		neg.Expire(now)
		err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
			if err := s.repo.Save(txCtx, neg); err != nil {
				return err
			}
			msg := &domain.Message{
				MessageID: fmt.Sprintf("MSG-%d", idgen.GenID()), NegotiationID: neg.NegotiationID,
				SentBy: "SYSTEM", Type: domain.MessageSystem, Content: "negotiation expired 48 hours after it started", CreatedAt: now,
			}
			if err := s.repo.SaveMessage(txCtx, msg); err != nil {
				return err
			}
			return s.emit(txCtx, "negotiation.expired.v1", neg)
		})
		if err != nil {
			logging.Error(ctx, "failed to expire negotiation", "negotiationId", neg.NegotiationID, "error", err)
			continue
		}
		if s.fanout.NotifyStatusChanged != nil {
			s.fanout.NotifyStatusChanged(ctx, neg.NegotiationID, neg.Status)
		}
		expired++
	}
	return expired, nil
}

func (s *CommandService) acquire(ctx context.Context, negotiationID string) (func(), error) {
	if s.lock == nil {
		return func() {}, nil
	}
	return s.lock.Acquire(ctx, negotiationID)
}

func (s *CommandService) emit(ctx context.Context, eventType string, neg *domain.Negotiation) error {
	if s.publisher == nil {
		return nil
	}
	payload := map[string]any{
		"negotiationId": neg.NegotiationID, "matchTokenId": neg.MatchTokenID,
		"status": neg.Status, "occurredAt": time.Now().UTC(),
	}
	return s.publisher.PublishInTx(ctx, contextx.GetTx(ctx), eventType, neg.NegotiationID, payload)
}
