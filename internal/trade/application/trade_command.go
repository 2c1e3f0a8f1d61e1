// Package application implements the trade engine's command side:
// pre-flight validation, creation from an accepted negotiation, address
// selection, canonical-document rendering and hashing, signature
// collection, milestone appends, and post-signature amendment records.
// Grounded on internal/requirement/application/requirement_command.go's
// WithTx + PublishInTx shape.
package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rnrl/tradecore/internal/trade/domain"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue"
)

type CommandService struct {
	repo      domain.Repository
	publisher messagequeue.EventPublisher
	negs      NegotiationReader
	branches  BranchLookup
	renderer  ContractRenderer
	fanout    Fanout
}

func NewCommandService(repo domain.Repository, publisher messagequeue.EventPublisher, negs NegotiationReader, branches BranchLookup, renderer ContractRenderer, fanout Fanout) *CommandService {
	return &CommandService{repo: repo, publisher: publisher, negs: negs, branches: branches, renderer: renderer, fanout: fanout}
}

// Validate implements the dry-run completeness check
// (`POST /trades/validate/{negotiationId}`): builds the candidate terms from
// the negotiation's agreed offer and reports missing fields without
// persisting anything.
func (s *CommandService) Validate(ctx context.Context, negotiationID string) ([]domain.MissingField, error) {
	snap, err := s.negs.Get(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, errNegotiationNotFound(negotiationID)
	}
	terms, err := snap.toTerms()
	if err != nil {
		return nil, err
	}
	return domain.ValidateTerms(terms, time.Now().UTC()), nil
}

// Create implements trade creation on ACCEPT: refuses
// incomplete terms, then either lands in PENDING_ADDRESS_SELECTION (either
// side has multiple eligible branches) or skips straight to DRAFT with
// addresses pre-filled from the sole/primary branch on each side.
func (s *CommandService) Create(ctx context.Context, negotiationID string) (*domain.Trade, error) {
	snap, err := s.negs.Get(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, errNegotiationNotFound(negotiationID)
	}
	if !snap.Accepted {
		return nil, errNegotiationNotAccepted(negotiationID)
	}
	if existing, err := s.repo.GetByNegotiation(ctx, negotiationID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, errAlreadyExists(negotiationID)
	}

	terms, err := snap.toTerms()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if missing := domain.ValidateTerms(terms, now); len(missing) > 0 {
		return nil, errIncompleteTerms(missing)
	}

	buyerBranches, sellerBranches, err := s.eligibleBranches(ctx, snap)
	if err != nil {
		return nil, err
	}

	trade := &domain.Trade{
		TradeID:         fmt.Sprintf("TRD-%d", idgen.GenID()),
		NegotiationID:   negotiationID,
		RequirementID:   snap.RequirementID,
		AvailabilityID:  snap.AvailabilityID,
		BuyerPartnerID:  snap.BuyerPartnerID,
		SellerPartnerID: snap.SellerPartnerID,
		Terms:           terms,
		Version:         1,
		CreatedAt:       now,
	}

	if domain.NeedsAddressSelection(buyerBranches, sellerBranches) {
		trade.Status = domain.StatusPendingAddressSelection
		if err := s.persist(ctx, trade, "trade.created.v1"); err != nil {
			return nil, err
		}
		suggestedBuyer := domain.SuggestBranch(buyerBranches, counterpartyState(sellerBranches))
		suggestedSeller := domain.SuggestBranch(sellerBranches, counterpartyState(buyerBranches))
		if s.fanout.NotifyAddressSelectionNeeded != nil {
			s.fanout.NotifyAddressSelectionNeeded(ctx, negotiationID, trade.TradeID, suggestedBuyer, suggestedSeller)
		}
		return trade, nil
	}

	if len(buyerBranches) == 1 {
		trade.BuyerBranchID = buyerBranches[0].BranchID
	}
	if len(sellerBranches) == 1 {
		trade.SellerBranchID = sellerBranches[0].BranchID
	}
	return s.advanceToDraft(ctx, trade)
}

// ConfirmAddresses implements confirmAddresses(tradeId, chosenBranches):
// once both sides are set, the engine advances to DRAFT.
func (s *CommandService) ConfirmAddresses(ctx context.Context, tradeID string, cmd ConfirmAddressesCommand) (*domain.Trade, error) {
	trade, err := s.repo.Get(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, errNotFound(tradeID)
	}
	if !trade.CanConfirmAddresses() {
		return nil, errPrecondition("trade is not awaiting address selection")
	}
	if cmd.BuyerBranchID != "" {
		trade.BuyerBranchID = cmd.BuyerBranchID
	}
	if cmd.SellerBranchID != "" {
		trade.SellerBranchID = cmd.SellerBranchID
	}
	if trade.BuyerBranchID == "" || trade.SellerBranchID == "" {
		if err := s.repo.Save(ctx, trade); err != nil {
			return nil, err
		}
		return trade, nil
	}
	return s.advanceToDraft(ctx, trade)
}

// advanceToDraft renders the canonical document, computes the contract
// hash, persists the PDF reference, and moves the trade to
// PENDING_SIGNATURE.
func (s *CommandService) advanceToDraft(ctx context.Context, trade *domain.Trade) (*domain.Trade, error) {
	trade.Status = domain.StatusDraft
	hash, err := domain.ComputeContractHash(trade)
	if err != nil {
		return nil, err
	}
	trade.ContractHash = hash

	if s.renderer != nil {
		pdfRef, err := s.renderer.Render(ctx, trade)
		if err != nil {
			logging.Warn(ctx, "contract render failed, continuing without pdf reference", "tradeId", trade.TradeID, "error", err)
		} else {
			trade.ContractPDFRef = pdfRef
		}
	}
	trade.Status = domain.StatusPendingSignature

	if err := s.persist(ctx, trade, "trade.draft_ready.v1"); err != nil {
		return nil, err
	}
	if s.fanout.NotifyStatusChanged != nil {
		s.fanout.NotifyStatusChanged(ctx, trade.TradeID, trade.Status)
	}
	return trade, nil
}

// Sign implements signature collection: exactly two records
// (BUYER, SELLER); signing an already-signed side is a conflict; both
// present transitions to ACTIVE and the contract becomes immutable.
func (s *CommandService) Sign(ctx context.Context, tradeID string, cmd SignCommand) (*domain.Trade, error) {
	trade, err := s.repo.Get(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, errNotFound(tradeID)
	}
	existing, err := s.repo.ListSignatures(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if err := trade.CanSign(cmd.Side, existing); err != nil {
		if err == domain.ErrAlreadySigned {
			return nil, errAlreadySigned()
		}
		return nil, errPrecondition(err.Error())
	}

	now := time.Now().UTC()
	sig := &domain.Signature{TradeID: tradeID, Side: cmd.Side, SignatoryID: cmd.ActorPartnerID, SignedAt: now}
	becomesActive := len(existing)+1 == 2

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.SaveSignature(txCtx, sig); err != nil {
			return err
		}
		if becomesActive {
			trade.Status = domain.StatusActive
			if err := s.repo.Save(txCtx, trade); err != nil {
				return err
			}
			return s.emit(txCtx, "trade.activated.v1", trade)
		}
		return s.emit(txCtx, "trade.signed.v1", trade)
	})
	if err != nil {
		return nil, err
	}
	if becomesActive && s.fanout.NotifyStatusChanged != nil {
		s.fanout.NotifyStatusChanged(ctx, trade.TradeID, trade.Status)
	}
	return trade, nil
}

// AddMilestone appends a post-ACTIVE lifecycle marker; none
// of these change contract terms.
func (s *CommandService) AddMilestone(ctx context.Context, tradeID string, cmd AddMilestoneCommand) (*domain.Milestone, error) {
	trade, err := s.repo.Get(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, errNotFound(tradeID)
	}
	if trade.Status != domain.StatusActive && trade.Status != domain.StatusDisputed {
		return nil, errPrecondition("milestones may only be appended to an active contract")
	}
	m := &domain.Milestone{
		MilestoneID: fmt.Sprintf("MIL-%d", idgen.GenID()), TradeID: tradeID,
		Type: cmd.Type, Note: cmd.Note, RecordedAt: time.Now().UTC(),
	}
	if err := s.repo.SaveMilestone(ctx, m); err != nil {
		return nil, err
	}
	s.emitAsync(ctx, "trade.milestone_recorded.v1", tradeID, map[string]any{
		"tradeId": tradeID, "type": string(cmd.Type), "note": cmd.Note,
	})
	if s.fanout.NotifyMilestone != nil {
		s.fanout.NotifyMilestone(ctx, tradeID, cmd.Type)
	}
	return m, nil
}

// RequestAmendment records a post-signature change: terms themselves stay
// frozen, the amendment only references the trade and describes the change.
func (s *CommandService) RequestAmendment(ctx context.Context, tradeID string, cmd RequestAmendmentCommand) (*domain.Amendment, error) {
	trade, err := s.repo.Get(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, errNotFound(tradeID)
	}
	if !trade.IsImmutable() {
		return nil, errPrecondition("amendments only apply to a signed (ACTIVE/DISPUTED) trade")
	}
	a := &domain.Amendment{
		AmendmentID:    fmt.Sprintf("AMD-%d", idgen.GenID()),
		TradeID:        tradeID,
		ActorPartnerID: cmd.ActorPartnerID,
		Description:    cmd.Description,
		RecordedAt:     time.Now().UTC(),
	}
	if err := s.repo.SaveAmendment(ctx, a); err != nil {
		return nil, err
	}
	s.emitAsync(ctx, "trade.amendment_recorded.v1", tradeID, map[string]any{
		"tradeId": tradeID, "amendmentId": a.AmendmentID, "actorPartnerId": a.ActorPartnerID,
	})
	return a, nil
}

func (s *CommandService) eligibleBranches(ctx context.Context, snap *NegotiationSnapshot) ([]domain.BranchCandidate, []domain.BranchCandidate, error) {
	if s.branches == nil {
		return nil, nil, nil
	}
	buyer, err := s.branches.EligibleBranches(ctx, snap.BuyerPartnerID, snap.CommodityID)
	if err != nil {
		return nil, nil, err
	}
	seller, err := s.branches.EligibleBranches(ctx, snap.SellerPartnerID, snap.CommodityID)
	if err != nil {
		return nil, nil, err
	}
	if len(buyer) == 0 {
		if addr, err := s.branches.PrimaryAddress(ctx, snap.BuyerPartnerID); err == nil {
			buyer = []domain.BranchCandidate{addr}
		}
	}
	if len(seller) == 0 {
		if addr, err := s.branches.PrimaryAddress(ctx, snap.SellerPartnerID); err == nil {
			seller = []domain.BranchCandidate{addr}
		}
	}
	if len(seller) > 0 {
		buyer = domain.AnchorDistances(buyer, seller[0])
	}
	if len(buyer) > 0 {
		seller = domain.AnchorDistances(seller, buyer[0])
	}
	return buyer, seller, nil
}

func counterpartyState(branches []domain.BranchCandidate) string {
	if len(branches) == 0 {
		return ""
	}
	return branches[0].State
}

func (s *CommandService) persist(ctx context.Context, trade *domain.Trade, eventType string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Save(txCtx, trade); err != nil {
			return err
		}
		return s.emit(txCtx, eventType, trade)
	})
}

func (s *CommandService) emit(ctx context.Context, eventType string, trade *domain.Trade) error {
	if s.publisher == nil {
		return nil
	}
	payload := map[string]any{
		"tradeId": trade.TradeID, "negotiationId": trade.NegotiationID,
		"status": trade.Status, "occurredAt": time.Now().UTC(),
	}
	return s.publisher.PublishInTx(ctx, nil, eventType, trade.TradeID, payload)
}

func (s *CommandService) emitAsync(ctx context.Context, eventType, aggregateID string, payload map[string]any) {
	if s.publisher == nil {
		return
	}
	payload["occurredAt"] = time.Now().UTC()
	if err := s.publisher.PublishInTx(ctx, nil, eventType, aggregateID, payload); err != nil {
		logging.Error(ctx, "failed to publish trade event", "eventType", eventType, "aggregateId", aggregateID, "error", err)
	}
}

// toTerms parses the negotiation's agreed-terms JSON blob (set by the final
// accepted offer) and overlays the hard price/quantity group from the
// negotiation's own current price/quantity/unit fields, which are always
// authoritative over whatever the free-text terms blob might also encode.
func (snap *NegotiationSnapshot) toTerms() (domain.Terms, error) {
	var terms domain.Terms
	if snap.AgreedTermsJSON != "" {
		if err := json.Unmarshal([]byte(snap.AgreedTermsJSON), &terms); err != nil {
			return domain.Terms{}, fmt.Errorf("trade: malformed agreed terms for negotiation %s: %w", snap.NegotiationID, err)
		}
	}
	price, _ := decimal.NewFromString(snap.Price)
	qty, _ := decimal.NewFromString(snap.Quantity)
	terms.PriceQuantity.PricePerUnit = price
	terms.PriceQuantity.TotalQuantity = qty
	terms.PriceQuantity.Unit = snap.Unit
	if terms.PriceQuantity.TotalAmount.IsZero() {
		terms.PriceQuantity.TotalAmount = price.Mul(qty)
	}
	return terms, nil
}
