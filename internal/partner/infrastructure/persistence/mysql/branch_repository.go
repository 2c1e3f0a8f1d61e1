// Package mysql persists the partner branch directory, grounded on
// internal/requirement/infrastructure/persistence/mysql/requirement_repository.go's
// plain-query shape (no transactions or optimistic locking needed — this is
// read-mostly reference data).
package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/rnrl/tradecore/internal/partner/domain"
)

type branchRepository struct {
	db *gorm.DB
}

func NewBranchRepository(db *gorm.DB) domain.Repository {
	return &branchRepository{db: db}
}

func (r *branchRepository) ListEligible(ctx context.Context, partnerID, commodityID string) ([]domain.Branch, error) {
	q := r.db.WithContext(ctx).Where("partner_id = ?", partnerID)
	if commodityID != "" {
		q = q.Where("commodity_id = ? OR commodity_id = ''", commodityID)
	}
	var branches []domain.Branch
	err := q.Find(&branches).Error
	return branches, err
}

func (r *branchRepository) PrimaryAddress(ctx context.Context, partnerID string) (domain.Branch, error) {
	var b domain.Branch
	err := r.db.WithContext(ctx).Where("partner_id = ? AND is_default = ?", partnerID, true).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = r.db.WithContext(ctx).Where("partner_id = ?", partnerID).Order("is_head_office DESC").First(&b).Error
	}
	return b, err
}
