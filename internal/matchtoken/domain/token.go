// Package domain implements the Match Token Store (C4): anonymized handle
// pairs that progressively disclose counterparty identity as a match
// engages. Handles are unforgeable random tokens
// (google/uuid v4) so possessing one side's handle never reveals or grants
// access to the other.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DisclosureLevel is the progressive identity-reveal gate of the Match
// Token: ANON while unengaged, ENGAGED once a negotiation starts,
// TRADE once the negotiation is accepted.
type DisclosureLevel string

const (
	DisclosureAnon    DisclosureLevel = "ANON"
	DisclosureEngaged DisclosureLevel = "ENGAGED"
	DisclosureTrade   DisclosureLevel = "TRADE"
)

// DefaultExpiry is the token lifetime applied at issuance.
const DefaultExpiry = 24 * time.Hour

var (
	ErrExpired       = errors.New("matchtoken: token expired")
	ErrWrongSide     = errors.New("matchtoken: handle does not belong to the requesting actor's side")
	ErrAlreadyTraded = errors.New("matchtoken: token already at TRADE disclosure")
)

// ScoreBreakdown mirrors internal/matching/domain.ScoreBreakdown without
// importing it, keeping the token store free of a dependency on C3's
// scoring internals (it only needs to carry the breakdown opaquely for
// display).
type ScoreBreakdown struct {
	Quality  float64 `json:"quality"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
	Location float64 `json:"location"`
	Timeline float64 `json:"timeline"`
	Risk     float64 `json:"risk"`
	Total    float64 `json:"total"`
}

// Token is the C4 aggregate. BuyerHandle and SellerHandle are opaque v4
// UUIDs; resolving with one never discloses or accepts the other.
type Token struct {
	TokenID         string          `json:"tokenId" gorm:"column:token_id;primaryKey;type:varchar(64)"`
	RequirementID   string          `json:"requirementId" gorm:"column:requirement_id;type:varchar(64);index;not null"`
	AvailabilityID  string          `json:"availabilityId" gorm:"column:availability_id;type:varchar(64);index;not null"`
	BuyerPartnerID  string          `json:"-" gorm:"column:buyer_partner_id;type:varchar(64);not null"`
	SellerPartnerID string          `json:"-" gorm:"column:seller_partner_id;type:varchar(64);not null"`
	BuyerHandle     string          `json:"buyerHandle" gorm:"column:buyer_handle;type:varchar(64);uniqueIndex;not null"`
	SellerHandle    string          `json:"sellerHandle" gorm:"column:seller_handle;type:varchar(64);uniqueIndex;not null"`
	Score           decimal.Decimal `json:"score" gorm:"column:score;type:decimal(5,4);not null"`
	ScoreBreakdown  ScoreBreakdown  `json:"scoreBreakdown" gorm:"-"`
	DisclosureLevel DisclosureLevel `json:"disclosureLevel" gorm:"column:disclosure_level;type:varchar(10);not null"`
	CreatedAt       time.Time       `json:"createdAt" gorm:"column:created_at;not null"`
	ExpiresAt       time.Time       `json:"expiresAt" gorm:"column:expires_at;not null"`
}

// Side identifies which of the two handles an actor is resolving with.
type Side string

const (
	SideBuyer  Side = "BUYER"
	SideSeller Side = "SELLER"
)

// IsExpired reports whether the token has passed its expiry at the given
// instant.
func (t *Token) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// ResolveSide determines, and validates, which side a handle belongs to.
// Cross-side probing (presenting a handle the store doesn't recognize, or
// that belongs to the other party's slot under a forged ID) fails closed.
func (t *Token) ResolveSide(handle string) (Side, error) {
	switch handle {
	case t.BuyerHandle:
		return SideBuyer, nil
	case t.SellerHandle:
		return SideSeller, nil
	default:
		return "", ErrWrongSide
	}
}

// View is the side-specific redacted projection returned by resolve(): the
// counterparty's partner id is withheld until disclosure reaches ENGAGED.
type View struct {
	TokenID          string          `json:"tokenId"`
	RequirementID    string          `json:"requirementId"`
	AvailabilityID   string          `json:"availabilityId"`
	Score            decimal.Decimal `json:"score"`
	ScoreBreakdown   ScoreBreakdown  `json:"scoreBreakdown"`
	DisclosureLevel  DisclosureLevel `json:"disclosureLevel"`
	CounterpartyID   string          `json:"counterpartyId,omitempty"`
	ExpiresAt        time.Time       `json:"expiresAt"`
}

// Resolve builds the redacted view for the actor holding handle.
func (t *Token) Resolve(handle string, now time.Time) (*View, error) {
	if t.IsExpired(now) {
		return nil, ErrExpired
	}
	side, err := t.ResolveSide(handle)
	if err != nil {
		return nil, err
	}

	v := &View{
		TokenID: t.TokenID, RequirementID: t.RequirementID, AvailabilityID: t.AvailabilityID,
		Score: t.Score, ScoreBreakdown: t.ScoreBreakdown, DisclosureLevel: t.DisclosureLevel,
		ExpiresAt: t.ExpiresAt,
	}
	if t.DisclosureLevel == DisclosureEngaged || t.DisclosureLevel == DisclosureTrade {
		if side == SideBuyer {
			v.CounterpartyID = t.SellerPartnerID
		} else {
			v.CounterpartyID = t.BuyerPartnerID
		}
	}
	return v, nil
}

// Reveal raises disclosure: ANON->ENGAGED when a negotiation starts, and
// ANON or ENGAGED->TRADE when it is accepted. Asking for ENGAGED when the
// token is already ENGAGED is a no-op; any reveal once the token is at
// TRADE returns ErrAlreadyTraded.
func (t *Token) Reveal(target DisclosureLevel) error {
	switch {
	case t.DisclosureLevel == DisclosureTrade:
		return ErrAlreadyTraded
	case target == DisclosureEngaged && t.DisclosureLevel == DisclosureAnon:
		t.DisclosureLevel = DisclosureEngaged
		return nil
	case target == DisclosureTrade:
		t.DisclosureLevel = DisclosureTrade
		return nil
	default:
		return nil
	}
}

// Repository persists tokens; the Redis infrastructure adapter is the only
// store (constant-time lookup by id and by either handle).
type Repository interface {
	Save(ctx context.Context, t *Token) error
	GetByID(ctx context.Context, tokenID string) (*Token, error)
	GetByHandle(ctx context.Context, handle string) (*Token, error)
}
