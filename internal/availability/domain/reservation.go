package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReservationStatus string

const (
	ReservationHeld     ReservationStatus = "HELD"
	ReservationReleased ReservationStatus = "RELEASED"
	ReservationSold     ReservationStatus = "SOLD"
	ReservationExpired  ReservationStatus = "EXPIRED"
)

// Reservation is a per-hold ledger line against an Availability so a
// partially-fillable listing can carry several concurrent buyer holds, each
// independently releasable or convertible to a sale.
type Reservation struct {
	gorm.Model
	ReservationID  string            `gorm:"column:reservation_id;type:varchar(64);uniqueIndex;not null" json:"reservationId"`
	AvailabilityID string            `gorm:"column:availability_id;type:varchar(64);index;not null" json:"availabilityId"`
	BuyerPartnerID string            `gorm:"column:buyer_partner_id;type:varchar(64);index;not null" json:"buyerPartnerId"`
	Quantity       decimal.Decimal   `gorm:"column:quantity;type:decimal(18,4);not null" json:"quantity"`
	Status         ReservationStatus `gorm:"column:status;type:varchar(20);index;not null" json:"status"`
	ExpiresAt      time.Time         `gorm:"column:expires_at;index" json:"expiresAt"`
	ReleaseReason  string            `gorm:"column:release_reason;type:varchar(255)" json:"releaseReason,omitempty"`
}

func (Reservation) TableName() string { return "availability_reservations" }

type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Save(ctx context.Context, r *Reservation) error
	Get(ctx context.Context, reservationID string) (*Reservation, error)
	GetHeldByBuyer(ctx context.Context, availabilityID, buyerPartnerID string) (*Reservation, error)
	ListExpired(ctx context.Context, before time.Time) ([]*Reservation, error)
}
