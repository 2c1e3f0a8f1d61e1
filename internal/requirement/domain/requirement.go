// Package domain models the buyer-side Requirement aggregate, grounded on
// internal/order/domain/order.go's status-enum + gorm.Model + guard-method
// shape, generalized to the richer state machine and quality/location value
// objects a multi-commodity requirement needs.
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
	StatusFulfilled Status = "FULFILLED"
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
	IntentDirectBuy       IntentType = "DIRECT_BUY"
	IntentNegotiation     IntentType = "NEGOTIATION"
	IntentAuction         IntentType = "AUCTION"
	IntentPriceDiscovery  IntentType = "PRICE_DISCOVERY"
)

type MarketVisibility string

const (
	VisibilityPublic     MarketVisibility = "PUBLIC"
	VisibilityRestricted MarketVisibility = "RESTRICTED"
	VisibilityPrivate    MarketVisibility = "PRIVATE"
)

// QualityParam is one entry of a quality spec: a desired value or range,
// with per-parameter tolerance. Stored as opaque JSON so the same aggregate
// works across arbitrary commodities without a column per attribute.
type QualityParam struct {
	Name      string   `json:"name"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Target    *float64 `json:"target,omitempty"`
	Tolerance float64  `json:"tolerance"`
	Mandatory bool     `json:"mandatory"`
}

// QualitySpec is the typed value union stored as an opaque JSON blob and
// parsed at the boundary.
type QualitySpec []QualityParam

// Location is either a registered branch id or an ad-hoc address; exactly
// one of RegisteredLocationID or the ad-hoc fields is populated.
type Location struct {
	RegisteredLocationID string  `json:"registeredLocationId,omitempty"`
	Address               string  `json:"address,omitempty"`
	Lat                   float64 `json:"lat,omitempty"`
	Lng                   float64 `json:"lng,omitempty"`
	Region                string  `json:"region,omitempty"`
	Pincode               string  `json:"pincode,omitempty"`
}

func (l Location) IsRegistered() bool { return l.RegisteredLocationID != "" }

// Validate enforces "exactly one of registered-vs-ad-hoc location".
func (l Location) Validate() error {
	hasRegistered := l.RegisteredLocationID != ""
	hasAdHoc := l.Address != "" || l.Lat != 0 || l.Lng != 0
	if hasRegistered == hasAdHoc {
		return errBothOrNeitherLocation
	}
	return nil
}

// DeliveryWindow is a closed interval; overlap fraction drives the Timeline
// scoring factor in the matching engine.
type DeliveryWindow struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (w DeliveryWindow) OverlapFraction(o DeliveryWindow) float64 {
	start := w.From
	if o.From.After(start) {
		start = o.From
	}
	end := w.To
	if o.To.Before(end) {
		end = o.To
	}
	overlap := end.Sub(start)
	if overlap <= 0 {
		return 0
	}
	total := w.To.Sub(w.From)
	if total <= 0 {
		return 0
	}
	frac := float64(overlap) / float64(total)
	if frac > 1 {
		return 1
	}
	return frac
}

// Requirement is the buyer-side demand aggregate.
type Requirement struct {
	gorm.Model
	RequirementID         string           `gorm:"column:requirement_id;type:varchar(64);uniqueIndex;not null" json:"requirementId"`
	BuyerPartnerID        string           `gorm:"column:buyer_partner_id;type:varchar(64);index;not null" json:"buyerPartnerId"`
	BuyerBranchLocationID string           `gorm:"column:buyer_branch_location_id;type:varchar(64)" json:"buyerBranchLocationId,omitempty"`
	CommodityID           string           `gorm:"column:commodity_id;type:varchar(64);index;not null" json:"commodityId"`
	Quantity              decimal.Decimal  `gorm:"column:quantity;type:decimal(18,4);not null" json:"quantity"`
	Unit                  string           `gorm:"column:unit;type:varchar(20);not null" json:"unit"`
	PreferredPrice        decimal.Decimal  `gorm:"column:preferred_price;type:decimal(18,4);not null" json:"preferredPrice"`
	MaxPrice              decimal.Decimal  `gorm:"column:max_price;type:decimal(18,4);not null" json:"maxPrice"`
	QualitySpecJSON       []byte           `gorm:"column:quality_spec;type:json" json:"-"`
	DeliveryLocationJSON  []byte           `gorm:"column:delivery_location;type:json" json:"-"`
	DeliveryFrom          time.Time        `gorm:"column:delivery_from" json:"deliveryFrom"`
	DeliveryTo            time.Time        `gorm:"column:delivery_to" json:"deliveryTo"`
	IntentType            IntentType       `gorm:"column:intent_type;type:varchar(20);not null" json:"intentType"`
	MarketVisibility      MarketVisibility `gorm:"column:market_visibility;type:varchar(20);not null" json:"marketVisibility"`
	InvitedSellerIDsJSON  []byte           `gorm:"column:invited_seller_ids;type:json" json:"-"`
	Urgency               string           `gorm:"column:urgency;type:varchar(20)" json:"urgency"`
	EodCutoff             time.Time        `gorm:"column:eod_cutoff" json:"eodCutoff"`
	Status                Status           `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
	Version               int              `gorm:"column:version;not null;default:1" json:"version"`
	RiskState             RiskState        `gorm:"column:risk_state;type:varchar(10);index;not null;default:'PENDING'" json:"riskState"`
	Embedding             []byte           `gorm:"column:embedding;type:blob" json:"-"`
}

func (Requirement) TableName() string { return "requirements" }

// CanPublish reports whether a DRAFT requirement may transition to ACTIVE.
func (r *Requirement) CanPublish() bool { return r.Status == StatusDraft }

// CanCancel reports whether the requirement may be cancelled.
func (r *Requirement) CanCancel() bool {
	return r.Status == StatusActive || r.Status == StatusPaused || r.Status == StatusDraft
}

// IsMatchable reports whether the requirement is eligible to be considered
// by the matching engine.
func (r *Requirement) IsMatchable() bool {
	return r.Status == StatusActive && (r.RiskState == RiskPass || r.RiskState == RiskWarn)
}

// VisibleTo implements the market-visibility pre-filter applied before a
// seller is shown or matched against this requirement.
func (r *Requirement) VisibleTo(sellerPartnerID string, invitedSellerIDs []string) bool {
	switch r.MarketVisibility {
	case VisibilityPublic:
		return true
	case VisibilityRestricted:
		for _, id := range invitedSellerIDs {
			if id == sellerPartnerID {
				return true
			}
		}
		return false
	case VisibilityPrivate:
		return false
	default:
		return false
	}
}

// Repository persists the Requirement aggregate. Writes are serialized by
// optimistic locking on Version; readers never block.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Save(ctx context.Context, r *Requirement) error
	// CompareAndSwapVersion performs the optimistic-lock conditional update;
	// a zero-row result means the caller must refetch and retry.
	CompareAndSwapVersion(ctx context.Context, r *Requirement, expectedVersion int) (rowsAffected int64, err error)
	Get(ctx context.Context, requirementID string) (*Requirement, error)
	ListActiveByCommodity(ctx context.Context, commodityID string) ([]*Requirement, error)
}

var errBothOrNeitherLocation = locationError{}

type locationError struct{}

func (locationError) Error() string {
	return "exactly one of registered location or ad-hoc address must be set"
}
