// Package mysql persists the Trade aggregate, grounded on
// internal/requirement/infrastructure/persistence/mysql/requirement_repository.go's
// WithTx/contextx/CompareAndSwapVersion shape.
package mysql

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/rnrl/tradecore/internal/trade/domain"
	"github.com/wyfcoding/pkg/contextx"
)

type tradeRepository struct {
	db *gorm.DB
}

func NewTradeRepository(db *gorm.DB) domain.Repository {
	return &tradeRepository{db: db}
}

func (r *tradeRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}

func (r *tradeRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(contextx.WithTx(ctx, tx))
	})
}

func (r *tradeRepository) Save(ctx context.Context, t *domain.Trade) error {
	raw, err := json.Marshal(t.Terms)
	if err != nil {
		return err
	}
	t.TermsJSON = raw
	return r.getDB(ctx).WithContext(ctx).Save(t).Error
}

func (r *tradeRepository) Get(ctx context.Context, tradeID string) (*domain.Trade, error) {
	var t domain.Trade
	err := r.getDB(ctx).WithContext(ctx).Where("trade_id = ?", tradeID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := hydrateTerms(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tradeRepository) GetByNegotiation(ctx context.Context, negotiationID string) (*domain.Trade, error) {
	var t domain.Trade
	err := r.getDB(ctx).WithContext(ctx).Where("negotiation_id = ?", negotiationID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := hydrateTerms(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CompareAndSwapVersion applies a conditional UPDATE of the mutable trade
// fields (status, branch selection, contract hash/pdf) scoped to the
// expected version, the module's standard optimistic-concurrency guard.
func (r *tradeRepository) CompareAndSwapVersion(ctx context.Context, t *domain.Trade, expectedVersion int) (int64, error) {
	result := r.getDB(ctx).WithContext(ctx).
		Model(&domain.Trade{}).
		Where("trade_id = ? AND version = ?", t.TradeID, expectedVersion).
		Updates(map[string]any{
			"status":            t.Status,
			"buyer_branch_id":   t.BuyerBranchID,
			"seller_branch_id":  t.SellerBranchID,
			"contract_hash":     t.ContractHash,
			"contract_pdf_ref":  t.ContractPDFRef,
			"version":           expectedVersion + 1,
		})
	return result.RowsAffected, result.Error
}

func (r *tradeRepository) SaveSignature(ctx context.Context, s *domain.Signature) error {
	return r.getDB(ctx).WithContext(ctx).Create(s).Error
}

func (r *tradeRepository) ListSignatures(ctx context.Context, tradeID string) ([]domain.Signature, error) {
	var sigs []domain.Signature
	err := r.getDB(ctx).WithContext(ctx).Where("trade_id = ?", tradeID).Find(&sigs).Error
	return sigs, err
}

func (r *tradeRepository) SaveMilestone(ctx context.Context, m *domain.Milestone) error {
	return r.getDB(ctx).WithContext(ctx).Create(m).Error
}

func (r *tradeRepository) ListMilestones(ctx context.Context, tradeID string) ([]domain.Milestone, error) {
	var milestones []domain.Milestone
	err := r.getDB(ctx).WithContext(ctx).Where("trade_id = ?", tradeID).Order("recorded_at ASC").Find(&milestones).Error
	return milestones, err
}

func (r *tradeRepository) SaveAmendment(ctx context.Context, a *domain.Amendment) error {
	return r.getDB(ctx).WithContext(ctx).Create(a).Error
}

func (r *tradeRepository) ListAmendments(ctx context.Context, tradeID string) ([]domain.Amendment, error) {
	var amendments []domain.Amendment
	err := r.getDB(ctx).WithContext(ctx).Where("trade_id = ?", tradeID).Order("recorded_at ASC").Find(&amendments).Error
	return amendments, err
}

func hydrateTerms(t *domain.Trade) error {
	if len(t.TermsJSON) == 0 {
		return nil
	}
	return json.Unmarshal(t.TermsJSON, &t.Terms)
}
