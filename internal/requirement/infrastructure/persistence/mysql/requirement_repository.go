// Package mysql persists the Requirement aggregate, grounded on
// internal/referencedata/infrastructure/persistence/mysql/reference_repository.go's
// WithTx/contextx wiring, generalized with an optimistic-lock
// CompareAndSwapVersion update in place of that repository's plain Save.
package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/rnrl/tradecore/internal/requirement/domain"
	"github.com/wyfcoding/pkg/contextx"
)

type requirementRepository struct {
	db *gorm.DB
}

func NewRequirementRepository(db *gorm.DB) domain.Repository {
	return &requirementRepository{db: db}
}

func (r *requirementRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}

func (r *requirementRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(contextx.WithTx(ctx, tx))
	})
}

func (r *requirementRepository) Save(ctx context.Context, req *domain.Requirement) error {
	return r.getDB(ctx).WithContext(ctx).Save(req).Error
}

// CompareAndSwapVersion applies a conditional UPDATE scoped to both the
// primary key and the expected version; a zero RowsAffected means a
// concurrent writer already advanced the version and the caller must
// refetch and retry.
func (r *requirementRepository) CompareAndSwapVersion(ctx context.Context, req *domain.Requirement, expectedVersion int) (int64, error) {
	result := r.getDB(ctx).WithContext(ctx).
		Model(&domain.Requirement{}).
		Where("requirement_id = ? AND version = ?", req.RequirementID, expectedVersion).
		Updates(map[string]any{
			"status":     req.Status,
			"risk_state": req.RiskState,
			"version":    expectedVersion + 1,
		})
	return result.RowsAffected, result.Error
}

func (r *requirementRepository) Get(ctx context.Context, requirementID string) (*domain.Requirement, error) {
	var req domain.Requirement
	err := r.getDB(ctx).WithContext(ctx).Where("requirement_id = ?", requirementID).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requirementRepository) ListActiveByCommodity(ctx context.Context, commodityID string) ([]*domain.Requirement, error) {
	var reqs []*domain.Requirement
	err := r.getDB(ctx).WithContext(ctx).
		Where("commodity_id = ? AND status = ?", commodityID, domain.StatusActive).
		Order("created_at ASC").
		Find(&reqs).Error
	return reqs, err
}
