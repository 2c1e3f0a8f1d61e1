// Package domain implements the Negotiation Engine (C5): a stateful,
// alternating bilateral conversation one-to-one with a Match Token.
// Guard-method style grounded on
// internal/order/domain/order.go's OrderStatus/CanBeCancelled shape,
// generalized from a single-entity lifecycle to a two-party alternating
// state machine.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusInitiated Status = "INITIATED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusExpired   Status = "EXPIRED"
)

// DefaultExpiry is the hard 48h-from-start deadline — not extended on
// activity.
const DefaultExpiry = 48 * time.Hour

type OfferStatus string

const (
	OfferPending  OfferStatus = "PENDING"
	OfferAccepted OfferStatus = "ACCEPTED"
	OfferRejected OfferStatus = "REJECTED"
)

var (
	ErrTerminal            = errors.New("negotiation: already in a terminal state")
	ErrExpired             = errors.New("negotiation: past expiresAt")
	ErrNotParticipant      = errors.New("negotiation: actor is not a participant")
	ErrAlternationViolation = errors.New("negotiation: actor may not offer twice in a row")
	ErrNoPendingOffer      = errors.New("negotiation: no active counter-offer to accept/reject")
	ErrNotCounterparty     = errors.New("negotiation: only the counterparty of the last offer may accept it")
	ErrAlreadyExists       = errors.New("negotiation: a negotiation already exists for this token")
)

// Offer is one round of the alternating conversation.
type Offer struct {
	OfferID     string          `json:"offerId" gorm:"column:offer_id;primaryKey;type:varchar(64)"`
	NegotiationID string        `json:"negotiationId" gorm:"column:negotiation_id;type:varchar(64);index;not null"`
	RoundNumber int             `json:"roundNumber" gorm:"column:round_number;not null"`
	OfferedBy   string          `json:"offeredBy" gorm:"column:offered_by;type:varchar(64);not null"`
	Price       decimal.Decimal `json:"price" gorm:"column:price;type:decimal(18,4);not null"`
	Quantity    decimal.Decimal `json:"quantity" gorm:"column:quantity;type:decimal(18,4);not null"`
	Unit        string          `json:"unit" gorm:"column:unit;type:varchar(16);not null"`
	Terms       string          `json:"terms,omitempty" gorm:"column:terms;type:text"`
	Status      OfferStatus     `json:"status" gorm:"column:status;type:varchar(10);not null"`
	CreatedAt   time.Time       `json:"createdAt" gorm:"column:created_at;not null"`
}

// MessageType distinguishes buyer/seller chat from system-generated notices
// (e.g. the expiry sweeper's SYSTEM message).
type MessageType string

const (
	MessageChat   MessageType = "CHAT"
	MessageSystem MessageType = "SYSTEM"
)

type Message struct {
	MessageID     string      `json:"messageId" gorm:"column:message_id;primaryKey;type:varchar(64)"`
	NegotiationID string      `json:"negotiationId" gorm:"column:negotiation_id;type:varchar(64);index;not null"`
	SentBy        string      `json:"sentBy" gorm:"column:sent_by;type:varchar(64);not null"`
	Type          MessageType `json:"type" gorm:"column:type;type:varchar(10);not null"`
	Content       string      `json:"content" gorm:"column:content;type:text;not null"`
	CreatedAt     time.Time   `json:"createdAt" gorm:"column:created_at;not null"`
}

// Negotiation is the C5 aggregate: one per Match Token, guarded by a single
// aggregate lock — each negotiation is its own lock domain.
type Negotiation struct {
	NegotiationID   string          `json:"negotiationId" gorm:"column:negotiation_id;primaryKey;type:varchar(64)"`
	MatchTokenID    string          `json:"matchTokenId" gorm:"column:match_token_id;type:varchar(64);uniqueIndex;not null"`
	RequirementID   string          `json:"requirementId" gorm:"column:requirement_id;type:varchar(64);index;not null"`
	AvailabilityID  string          `json:"availabilityId" gorm:"column:availability_id;type:varchar(64);index;not null"`
	BuyerPartnerID  string          `json:"buyerPartnerId" gorm:"column:buyer_partner_id;type:varchar(64);not null"`
	SellerPartnerID string          `json:"sellerPartnerId" gorm:"column:seller_partner_id;type:varchar(64);not null"`
	Status          Status          `json:"status" gorm:"column:status;type:varchar(15);not null"`
	CurrentPrice    decimal.Decimal `json:"currentPrice" gorm:"column:current_price;type:decimal(18,4)"`
	CurrentQuantity decimal.Decimal `json:"currentQuantity" gorm:"column:current_quantity;type:decimal(18,4)"`
	CurrentUnit     string          `json:"currentUnit" gorm:"column:current_unit;type:varchar(16)"`
	AgreedTerms     string          `json:"agreedTerms,omitempty" gorm:"column:agreed_terms;type:text"`
	LastOfferBy     string          `json:"lastOfferBy" gorm:"column:last_offer_by;type:varchar(64)"`
	RoundCount      int             `json:"roundCount" gorm:"column:round_count;not null;default:0"`
	InitiatedAt     time.Time       `json:"initiatedAt" gorm:"column:initiated_at;not null"`
	ExpiresAt       time.Time       `json:"expiresAt" gorm:"column:expires_at;not null"`
	LastActivityAt  time.Time       `json:"lastActivityAt" gorm:"column:last_activity_at;not null"`
}

// New creates an INITIATED negotiation with the hard 48h expiry.
func New(negotiationID, matchTokenID, requirementID, availabilityID, buyerPartnerID, sellerPartnerID string, now time.Time) *Negotiation {
	return &Negotiation{
		NegotiationID: negotiationID, MatchTokenID: matchTokenID,
		RequirementID: requirementID, AvailabilityID: availabilityID,
		BuyerPartnerID: buyerPartnerID, SellerPartnerID: sellerPartnerID,
		Status: StatusInitiated, InitiatedAt: now, ExpiresAt: now.Add(DefaultExpiry), LastActivityAt: now,
	}
}

func (n *Negotiation) IsTerminal() bool {
	return n.Status == StatusAccepted || n.Status == StatusRejected || n.Status == StatusExpired
}

func (n *Negotiation) IsParticipant(partnerID string) bool {
	return partnerID == n.BuyerPartnerID || partnerID == n.SellerPartnerID
}

func (n *Negotiation) Counterparty(partnerID string) string {
	if partnerID == n.BuyerPartnerID {
		return n.SellerPartnerID
	}
	return n.BuyerPartnerID
}

func (n *Negotiation) IsExpired(now time.Time) bool {
	return now.After(n.ExpiresAt)
}

// CanOffer enforces the makeOffer guards: participant,
// non-terminal, not expired, and alternation (the actor may not be the
// last offerer — covers both "first offer after start" where LastOfferBy
// is empty and every subsequent round).
func (n *Negotiation) CanOffer(actor string, now time.Time) error {
	if n.IsTerminal() {
		return ErrTerminal
	}
	if n.IsExpired(now) {
		return ErrExpired
	}
	if !n.IsParticipant(actor) {
		return ErrNotParticipant
	}
	if n.LastOfferBy != "" && n.LastOfferBy == actor {
		return ErrAlternationViolation
	}
	return nil
}

// ApplyOffer records the effect of a new offer on the aggregate: round
// increment, current price/quantity/unit, the agreed-terms JSON blob that C6
// will use to build a Trade once accepted, last offerer, last activity, and
// the INITIATED->IN_PROGRESS transition on the very first offer.
func (n *Negotiation) ApplyOffer(actor string, price, quantity decimal.Decimal, unit, terms string, now time.Time) *Offer {
	n.RoundCount++
	n.CurrentPrice = price
	n.CurrentQuantity = quantity
	n.CurrentUnit = unit
	if terms != "" {
		n.AgreedTerms = terms
	}
	n.LastOfferBy = actor
	n.LastActivityAt = now
	if n.Status == StatusInitiated {
		n.Status = StatusInProgress
	}
	return &Offer{
		RoundNumber: n.RoundCount, OfferedBy: actor, Price: price, Quantity: quantity,
		Unit: unit, Terms: terms, Status: OfferPending, CreatedAt: now,
	}
}

// CanAccept enforces the accept guards: an active counter-offer
// must exist, the actor must be the counterparty of that offer (never the
// offerer itself), and the negotiation must not be expired.
func (n *Negotiation) CanAccept(actor string, lastOffer *Offer, now time.Time) error {
	if lastOffer == nil || lastOffer.Status != OfferPending {
		return ErrNoPendingOffer
	}
	if n.IsTerminal() {
		return ErrTerminal
	}
	if n.IsExpired(now) {
		return ErrExpired
	}
	if !n.IsParticipant(actor) {
		return ErrNotParticipant
	}
	if actor == lastOffer.OfferedBy {
		return ErrNotCounterparty
	}
	return nil
}

// Accept transitions the negotiation to ACCEPTED; the caller (application
// layer) is responsible for marking the offer ACCEPTED and triggering C6.
func (n *Negotiation) Accept(now time.Time) {
	n.Status = StatusAccepted
	n.LastActivityAt = now
}

func (n *Negotiation) Reject(now time.Time) {
	n.Status = StatusRejected
	n.LastActivityAt = now
}

// Expire is applied by the periodic expireInactive sweeper to any
// non-terminal negotiation past expiresAt.
func (n *Negotiation) Expire(now time.Time) {
	n.Status = StatusExpired
	n.LastActivityAt = now
}

// CanSendMessage: allowed in any non-terminal state.
func (n *Negotiation) CanSendMessage() error {
	if n.IsTerminal() {
		return ErrTerminal
	}
	return nil
}

// Repository persists negotiations, offers, and messages.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Save(ctx context.Context, n *Negotiation) error
	Get(ctx context.Context, negotiationID string) (*Negotiation, error)
	GetByMatchToken(ctx context.Context, matchTokenID string) (*Negotiation, error)
	ListExpiredCandidates(ctx context.Context, before time.Time) ([]*Negotiation, error)

	SaveOffer(ctx context.Context, o *Offer) error
	GetLastOffer(ctx context.Context, negotiationID string) (*Offer, error)
	UpdateOfferStatus(ctx context.Context, offerID string, status OfferStatus) error

	SaveMessage(ctx context.Context, m *Message) error
	ListMessages(ctx context.Context, negotiationID string) ([]*Message, error)
}
