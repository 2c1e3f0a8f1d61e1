package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/rnrl/tradecore/internal/risk/domain"
	"github.com/wyfcoding/pkg/contextx"
)

type evaluatorRepository struct {
	db *gorm.DB
}

func NewEvaluatorRepository(db *gorm.DB) domain.EvaluatorRepository {
	return &evaluatorRepository{db: db}
}

func (r *evaluatorRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}

func (r *evaluatorRepository) Save(ctx context.Context, a *domain.Assessment) error {
	return r.getDB(ctx).WithContext(ctx).Create(a).Error
}

func (r *evaluatorRepository) GetLatest(ctx context.Context, subjectType, subjectID string) (*domain.Assessment, error) {
	var a domain.Assessment
	err := r.getDB(ctx).WithContext(ctx).
		Where("subject_type = ? AND subject_id = ?", subjectType, subjectID).
		Order("id DESC").First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &a, err
}
