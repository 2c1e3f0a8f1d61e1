package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/rnrl/tradecore/internal/availability/domain"
	"github.com/wyfcoding/pkg/contextx"
)

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) domain.ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}

func (r *reservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(contextx.WithTx(ctx, tx))
	})
}

func (r *reservationRepository) Save(ctx context.Context, res *domain.Reservation) error {
	return r.getDB(ctx).WithContext(ctx).Save(res).Error
}

func (r *reservationRepository) Get(ctx context.Context, reservationID string) (*domain.Reservation, error) {
	var res domain.Reservation
	err := r.getDB(ctx).WithContext(ctx).Where("reservation_id = ?", reservationID).First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepository) GetHeldByBuyer(ctx context.Context, availabilityID, buyerPartnerID string) (*domain.Reservation, error) {
	var res domain.Reservation
	err := r.getDB(ctx).WithContext(ctx).
		Where("availability_id = ? AND buyer_partner_id = ? AND status = ?", availabilityID, buyerPartnerID, domain.ReservationHeld).
		Order("created_at DESC").First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepository) ListExpired(ctx context.Context, before time.Time) ([]*domain.Reservation, error) {
	var reservations []*domain.Reservation
	err := r.getDB(ctx).WithContext(ctx).
		Where("status = ? AND expires_at <= ?", domain.ReservationHeld, before).
		Find(&reservations).Error
	return reservations, err
}
