// Package domain implements the trade engine: term-completeness
// validation, address selection, contract hashing, signature collection,
// and milestone tracking. Guard-method style grounded on
// internal/order/domain/order.go generalized to a multi-phase lifecycle.
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPendingAddressSelection Status = "PENDING_ADDRESS_SELECTION"
	StatusDraft                   Status = "DRAFT"
	StatusPendingSignature        Status = "PENDING_SIGNATURE"
	StatusActive                  Status = "ACTIVE"
	StatusDisputed                Status = "DISPUTED"
	StatusCancelled               Status = "CANCELLED"
)

type BalanceTrigger string

const (
	BalanceOnSigning      BalanceTrigger = "ON_SIGNING"
	BalanceOnDelivery     BalanceTrigger = "ON_DELIVERY"
	BalanceOnQualityCheck BalanceTrigger = "ON_QUALITY_CHECK"
)

type SignatureSide string

const (
	SignatureBuyer  SignatureSide = "BUYER"
	SignatureSeller SignatureSide = "SELLER"
)

// PriceQuantityTerms is the first hard-requirement group.
type PriceQuantityTerms struct {
	PricePerUnit  decimal.Decimal `json:"pricePerUnit"`
	TotalQuantity decimal.Decimal `json:"totalQuantity"`
	Unit          string          `json:"unit"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Currency      string          `json:"currency"`
}

// DeliveryTerms is the second hard-requirement group.
type DeliveryTerms struct {
	BranchLocationID   string    `json:"branchLocationId,omitempty"`
	Address            string    `json:"address,omitempty"`
	City               string    `json:"city,omitempty"`
	State              string    `json:"state,omitempty"`
	Pincode            string    `json:"pincode,omitempty"`
	DeliveryDate       time.Time `json:"deliveryDate"`
	Incoterm           string    `json:"incoterm"`
	TransportMode      string    `json:"transportMode"`
	FreightResponsible string    `json:"freightResponsible"`
}

// PaymentTerms is the third hard-requirement group.
type PaymentTerms struct {
	Method                 string         `json:"method"`
	AdvancePct             float64        `json:"advancePct"`
	AdvanceDueDays         int            `json:"advanceDueDays"`
	BalanceTrigger         BalanceTrigger `json:"balanceTrigger"`
	BalanceDueDays         int            `json:"balanceDueDays"`
	LatePenaltyPctPerMonth float64        `json:"latePenaltyPctPerMonth"`
}

// QualityTerm is one mandatory-or-optional parameter within the quality
// hard-requirement group (the fourth).
type QualityTerm struct {
	Name           string   `json:"name"`
	Min            *float64 `json:"min,omitempty"`
	Max            *float64 `json:"max,omitempty"`
	TestingMethod  string   `json:"testingMethod"`
	Tolerance      float64  `json:"tolerance"`
	Mandatory      bool     `json:"mandatory"`
}

// InspectionTerms is the fifth hard-requirement group.
type InspectionTerms struct {
	Agency          string `json:"agency"`
	Location        string `json:"location"`
	Timeline        string `json:"timeline"`
	RejectionTerms  string `json:"rejectionTerms"`
}

// LegalTerms is the sixth hard-requirement group.
type LegalTerms struct {
	GoverningLaw            string `json:"governingLaw"`
	Jurisdiction            string `json:"jurisdiction"`
	DisputeResolutionMethod string `json:"disputeResolutionMethod"`
	DisputeVenue            string `json:"disputeVenue"`
	ForceMajeureClause      string `json:"forceMajeureClause"`
}

// PenaltyTerms is the seventh hard-requirement group.
type PenaltyTerms struct {
	LateDeliveryRatePct    float64 `json:"lateDeliveryRatePct"`
	LateDeliveryCapPct     float64 `json:"lateDeliveryCapPct"`
	LateDeliveryGraceDays  int     `json:"lateDeliveryGraceDays"`
	QualityRejectionTerms  string  `json:"qualityRejectionTerms"`
	BuyerCancellationTerms string  `json:"buyerCancellationTerms"`
	SellerCancellationTerms string `json:"sellerCancellationTerms"`
}

// Terms bundles the seven hard-requirement groups; every
// group must be populated and internally consistent before a Trade can
// leave PENDING_ADDRESS_SELECTION/DRAFT.
type Terms struct {
	PriceQuantity PriceQuantityTerms `json:"priceQuantity"`
	Delivery      DeliveryTerms      `json:"delivery"`
	Payment       PaymentTerms       `json:"payment"`
	Quality       []QualityTerm      `json:"quality"`
	Inspection    InspectionTerms    `json:"inspection"`
	Legal         LegalTerms         `json:"legal"`
	Penalties     PenaltyTerms       `json:"penalties"`
}

// Signature is one of the exactly-two records accepted per trade.
type Signature struct {
	TradeID    string        `json:"tradeId" gorm:"column:trade_id;type:varchar(64);primaryKey"`
	Side       SignatureSide `json:"side" gorm:"column:side;type:varchar(10);primaryKey"`
	SignatoryID string       `json:"signatoryId" gorm:"column:signatory_id;type:varchar(64);not null"`
	SignedAt   time.Time     `json:"signedAt" gorm:"column:signed_at;not null"`
}

// MilestoneType enumerates the downstream-appendable lifecycle markers
// available once a trade reaches ACTIVE.
type MilestoneType string

const (
	MilestoneAdvancePaid   MilestoneType = "ADVANCE_PAID"
	MilestoneShipped       MilestoneType = "SHIPPED"
	MilestoneDelivered     MilestoneType = "DELIVERED"
	MilestoneQualityPassed MilestoneType = "QUALITY_PASSED"
	MilestoneCompleted     MilestoneType = "COMPLETED"
)

// Milestone is an append-only marker; milestones never change contract
// terms.
type Milestone struct {
	MilestoneID string        `json:"milestoneId" gorm:"column:milestone_id;primaryKey;type:varchar(64)"`
	TradeID     string        `json:"tradeId" gorm:"column:trade_id;type:varchar(64);index;not null"`
	Type        MilestoneType `json:"type" gorm:"column:type;type:varchar(20);not null"`
	Note        string        `json:"note,omitempty" gorm:"column:note;type:text"`
	RecordedAt  time.Time     `json:"recordedAt" gorm:"column:recorded_at;not null"`
}

// Amendment is an append-only post-signature change record: once a trade is
// ACTIVE, its term fields are immutable, so any subsequent change is
// tracked here referencing the trade rather than mutating Terms directly.
// Grounded on Milestone's append-only shape.
type Amendment struct {
	AmendmentID    string    `json:"amendmentId" gorm:"column:amendment_id;primaryKey;type:varchar(64)"`
	TradeID        string    `json:"tradeId" gorm:"column:trade_id;type:varchar(64);index;not null"`
	ActorPartnerID string    `json:"actorPartnerId" gorm:"column:actor_partner_id;type:varchar(64);not null"`
	Description    string    `json:"description" gorm:"column:description;type:text;not null"`
	RecordedAt     time.Time `json:"recordedAt" gorm:"column:recorded_at;not null"`
}

// Trade is the trade engine's aggregate.
type Trade struct {
	TradeID         string    `json:"tradeId" gorm:"column:trade_id;primaryKey;type:varchar(64)"`
	NegotiationID   string    `json:"negotiationId" gorm:"column:negotiation_id;type:varchar(64);uniqueIndex;not null"`
	RequirementID   string    `json:"requirementId" gorm:"column:requirement_id;type:varchar(64);index;not null"`
	AvailabilityID  string    `json:"availabilityId" gorm:"column:availability_id;type:varchar(64);index;not null"`
	BuyerPartnerID  string    `json:"buyerPartnerId" gorm:"column:buyer_partner_id;type:varchar(64);not null"`
	SellerPartnerID string    `json:"sellerPartnerId" gorm:"column:seller_partner_id;type:varchar(64);not null"`
	Status          Status    `json:"status" gorm:"column:status;type:varchar(30);not null"`
	TermsJSON       []byte    `json:"-" gorm:"column:terms;type:json"`
	Terms           Terms     `json:"terms" gorm:"-"`
	BuyerBranchID   string    `json:"buyerBranchId,omitempty" gorm:"column:buyer_branch_id;type:varchar(64)"`
	SellerBranchID  string    `json:"sellerBranchId,omitempty" gorm:"column:seller_branch_id;type:varchar(64)"`
	ContractHash    string    `json:"contractHash,omitempty" gorm:"column:contract_hash;type:varchar(64)"`
	ContractPDFRef  string    `json:"contractPdfRef,omitempty" gorm:"column:contract_pdf_ref;type:varchar(255)"`
	Version         int       `json:"version" gorm:"column:version;not null;default:1"`
	CreatedAt       time.Time `json:"createdAt" gorm:"column:created_at;not null"`
}

// MissingField is one entry of the structured-error response returned
// for an incomplete term set.
type MissingField struct {
	Group string `json:"group"`
	Field string `json:"field"`
	Issue string `json:"issue"`
}

func (t *Trade) CanConfirmAddresses() bool {
	return t.Status == StatusPendingAddressSelection
}

func (t *Trade) CanSign(side SignatureSide, existing []Signature) error {
	if t.Status != StatusPendingSignature {
		return ErrNotPendingSignature
	}
	for _, s := range existing {
		if s.Side == side {
			return ErrAlreadySigned
		}
	}
	return nil
}

func (t *Trade) IsImmutable() bool {
	return t.Status == StatusActive || t.Status == StatusDisputed
}

// Repository persists trades, signatures, and milestones.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Save(ctx context.Context, t *Trade) error
	Get(ctx context.Context, tradeID string) (*Trade, error)
	GetByNegotiation(ctx context.Context, negotiationID string) (*Trade, error)
	CompareAndSwapVersion(ctx context.Context, t *Trade, expectedVersion int) (int64, error)

	SaveSignature(ctx context.Context, s *Signature) error
	ListSignatures(ctx context.Context, tradeID string) ([]Signature, error)

	SaveMilestone(ctx context.Context, m *Milestone) error
	ListMilestones(ctx context.Context, tradeID string) ([]Milestone, error)

	SaveAmendment(ctx context.Context, a *Amendment) error
	ListAmendments(ctx context.Context, tradeID string) ([]Amendment, error)
}
