// Package mysql persists the Availability aggregate, mirroring
// internal/requirement/infrastructure/persistence/mysql/requirement_repository.go.
package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/rnrl/tradecore/internal/availability/domain"
	"github.com/wyfcoding/pkg/contextx"
)

type availabilityRepository struct {
	db *gorm.DB
}

func NewAvailabilityRepository(db *gorm.DB) domain.Repository {
	return &availabilityRepository{db: db}
}

func (r *availabilityRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}

func (r *availabilityRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(contextx.WithTx(ctx, tx))
	})
}

func (r *availabilityRepository) Save(ctx context.Context, a *domain.Availability) error {
	return r.getDB(ctx).WithContext(ctx).Save(a).Error
}

func (r *availabilityRepository) CompareAndSwapVersion(ctx context.Context, a *domain.Availability, expectedVersion int) (int64, error) {
	result := r.getDB(ctx).WithContext(ctx).
		Model(&domain.Availability{}).
		Where("availability_id = ? AND version = ?", a.AvailabilityID, expectedVersion).
		Updates(map[string]any{
			"status":             a.Status,
			"risk_state":         a.RiskState,
			"available_quantity": a.AvailableQuantity,
			"reserved_quantity":  a.ReservedQuantity,
			"sold_quantity":      a.SoldQuantity,
			"version":            expectedVersion + 1,
		})
	return result.RowsAffected, result.Error
}

func (r *availabilityRepository) Get(ctx context.Context, availabilityID string) (*domain.Availability, error) {
	var a domain.Availability
	err := r.getDB(ctx).WithContext(ctx).Where("availability_id = ?", availabilityID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *availabilityRepository) ListActiveByCommodity(ctx context.Context, commodityID string) ([]*domain.Availability, error) {
	var avails []*domain.Availability
	err := r.getDB(ctx).WithContext(ctx).
		Where("commodity_id = ? AND status = ?", commodityID, domain.StatusActive).
		Order("created_at ASC").
		Find(&avails).Error
	return avails, err
}
