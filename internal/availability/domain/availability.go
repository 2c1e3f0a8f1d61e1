// Package domain models the seller-side Availability aggregate, the mirror
// of internal/requirement/domain/requirement.go generalized with
// supply-side reservation invariants.
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusActive    Status = "ACTIVE"
	StatusPaused    Status = "PAUSED"
	StatusSold      Status = "SOLD"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
	StatusBlocked   Status = "BLOCKED"
)

type RiskState string

const (
	RiskPending RiskState = "PENDING"
	RiskPass    RiskState = "PASS"
	RiskWarn    RiskState = "WARN"
	RiskFail    RiskState = "FAIL"
)

type IntentType string

const (
	IntentSpot     IntentType = "SPOT"
	IntentBooking  IntentType = "BOOKING"
	IntentContract IntentType = "CONTRACT"
	IntentOTC      IntentType = "OTC"
)

type MarketVisibility string

const (
	VisibilityPublic     MarketVisibility = "PUBLIC"
	VisibilityRestricted MarketVisibility = "RESTRICTED"
	VisibilityPrivate    MarketVisibility = "PRIVATE"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// Availability is the seller-side supply aggregate.
type Availability struct {
	gorm.Model
	AvailabilityID        string           `gorm:"column:availability_id;type:varchar(64);uniqueIndex;not null" json:"availabilityId"`
	SellerPartnerID       string           `gorm:"column:seller_partner_id;type:varchar(64);index;not null" json:"sellerPartnerId"`
	SellerBranchLocationID string          `gorm:"column:seller_branch_location_id;type:varchar(64)" json:"sellerBranchLocationId,omitempty"`
	CommodityID           string           `gorm:"column:commodity_id;type:varchar(64);index;not null" json:"commodityId"`
	TotalQuantity         decimal.Decimal  `gorm:"column:total_quantity;type:decimal(18,4);not null" json:"totalQuantity"`
	AvailableQuantity     decimal.Decimal  `gorm:"column:available_quantity;type:decimal(18,4);not null" json:"availableQuantity"`
	ReservedQuantity      decimal.Decimal  `gorm:"column:reserved_quantity;type:decimal(18,4);not null" json:"reservedQuantity"`
	SoldQuantity          decimal.Decimal  `gorm:"column:sold_quantity;type:decimal(18,4);not null" json:"soldQuantity"`
	Unit                  string           `gorm:"column:unit;type:varchar(20);not null" json:"unit"`
	AskingPrice           decimal.Decimal  `gorm:"column:asking_price;type:decimal(18,4);not null" json:"askingPrice"`
	AllowPartialOrder     bool             `gorm:"column:allow_partial_order;not null;default:true" json:"allowPartialOrder"`
	MinOrderQuantity      decimal.Decimal  `gorm:"column:min_order_quantity;type:decimal(18,4)" json:"minOrderQuantity"`
	QualitySpecJSON       []byte           `gorm:"column:quality_spec;type:json" json:"-"`
	DeliveryLocationJSON  []byte           `gorm:"column:delivery_location;type:json" json:"-"`
	DeliveryFrom          time.Time        `gorm:"column:delivery_from" json:"deliveryFrom"`
	DeliveryTo            time.Time        `gorm:"column:delivery_to" json:"deliveryTo"`
	IntentType            IntentType       `gorm:"column:intent_type;type:varchar(20);not null" json:"intentType"`
	MarketVisibility      MarketVisibility `gorm:"column:market_visibility;type:varchar(20);not null" json:"marketVisibility"`
	InvitedBuyerIDsJSON   []byte           `gorm:"column:invited_buyer_ids;type:json" json:"-"`
	ApprovalStatus        ApprovalStatus   `gorm:"column:approval_status;type:varchar(20);not null;default:'PENDING'" json:"approvalStatus"`
	Status                Status           `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
	Version               int              `gorm:"column:version;not null;default:1" json:"version"`
	RiskState             RiskState        `gorm:"column:risk_state;type:varchar(10);index;not null;default:'PENDING'" json:"riskState"`
	Embedding             []byte           `gorm:"column:embedding;type:blob" json:"-"`
}

func (Availability) TableName() string { return "availabilities" }

func (a *Availability) CanPublish() bool { return a.Status == StatusDraft }

func (a *Availability) CanCancel() bool {
	return a.Status == StatusActive || a.Status == StatusPaused || a.Status == StatusDraft
}

func (a *Availability) IsMatchable() bool {
	return a.Status == StatusActive && a.ApprovalStatus == ApprovalApproved &&
		(a.RiskState == RiskPass || a.RiskState == RiskWarn)
}

func (a *Availability) VisibleTo(buyerPartnerID string, invitedBuyerIDs []string) bool {
	switch a.MarketVisibility {
	case VisibilityPublic:
		return true
	case VisibilityRestricted:
		for _, id := range invitedBuyerIDs {
			if id == buyerPartnerID {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// CanReserve reports whether qty units can be held against this availability
// without violating the supply invariant.
func (a *Availability) CanReserve(qty decimal.Decimal) bool {
	if qty.LessThanOrEqual(decimal.Zero) {
		return false
	}
	if !a.AllowPartialOrder && !a.MinOrderQuantity.IsZero() && qty.LessThan(a.MinOrderQuantity) {
		return false
	}
	return a.AvailableQuantity.GreaterThanOrEqual(qty)
}

// Reserve moves qty from available to reserved, recomputing availableQuantity
// from the constituent fields so it never drifts.
func (a *Availability) Reserve(qty decimal.Decimal) {
	a.ReservedQuantity = a.ReservedQuantity.Add(qty)
	a.recompute()
}

// Release returns a previously reserved qty to available supply, e.g. on
// hold expiry or explicit release.
func (a *Availability) Release(qty decimal.Decimal) {
	a.ReservedQuantity = a.ReservedQuantity.Sub(qty)
	if a.ReservedQuantity.IsNegative() {
		a.ReservedQuantity = decimal.Zero
	}
	a.recompute()
}

// Sell converts a reserved qty into sold supply, permanently reducing what
// remains available. Transitions to SOLD once nothing remains available or
// reserved.
func (a *Availability) Sell(qty decimal.Decimal) {
	a.ReservedQuantity = a.ReservedQuantity.Sub(qty)
	if a.ReservedQuantity.IsNegative() {
		a.ReservedQuantity = decimal.Zero
	}
	a.SoldQuantity = a.SoldQuantity.Add(qty)
	a.recompute()
	if a.AvailableQuantity.IsZero() && a.ReservedQuantity.IsZero() {
		a.Status = StatusSold
	}
}

func (a *Availability) recompute() {
	a.AvailableQuantity = a.TotalQuantity.Sub(a.SoldQuantity).Sub(a.ReservedQuantity)
	if a.AvailableQuantity.IsNegative() {
		a.AvailableQuantity = decimal.Zero
	}
}

// Repository persists Availability with the same optimistic-lock discipline
// as internal/requirement/domain.Repository.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Save(ctx context.Context, a *Availability) error
	// CompareAndSwapVersion performs a conditional update of the mutable
	// fields (status/riskState/quantities) scoped to the expected version;
	// rowsAffected == 0 signals a concurrent writer and the caller must
	// refetch and retry as part of the bounded-retry reservation flow.
	CompareAndSwapVersion(ctx context.Context, a *Availability, expectedVersion int) (rowsAffected int64, err error)
	Get(ctx context.Context, availabilityID string) (*Availability, error)
	ListActiveByCommodity(ctx context.Context, commodityID string) ([]*Availability, error)
}
