// Package mysql persists the Negotiation aggregate, its Offers and
// Messages, grounded on
// internal/requirement/infrastructure/persistence/mysql/requirement_repository.go's
// getDB/WithTx/contextx shape.
package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/rnrl/tradecore/internal/negotiation/domain"
	"github.com/wyfcoding/pkg/contextx"
)

type negotiationRepository struct {
	db *gorm.DB
}

func NewNegotiationRepository(db *gorm.DB) domain.Repository {
	return &negotiationRepository{db: db}
}

func (r *negotiationRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}

func (r *negotiationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(contextx.WithTx(ctx, tx))
	})
}

func (r *negotiationRepository) Save(ctx context.Context, n *domain.Negotiation) error {
	return r.getDB(ctx).WithContext(ctx).Save(n).Error
}

func (r *negotiationRepository) Get(ctx context.Context, negotiationID string) (*domain.Negotiation, error) {
	var n domain.Negotiation
	err := r.getDB(ctx).WithContext(ctx).Where("negotiation_id = ?", negotiationID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *negotiationRepository) GetByMatchToken(ctx context.Context, matchTokenID string) (*domain.Negotiation, error) {
	var n domain.Negotiation
	err := r.getDB(ctx).WithContext(ctx).Where("match_token_id = ?", matchTokenID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListExpiredCandidates returns non-terminal negotiations past expiresAt
// for the periodic expireInactive sweeper.
func (r *negotiationRepository) ListExpiredCandidates(ctx context.Context, before time.Time) ([]*domain.Negotiation, error) {
	var negs []*domain.Negotiation
	err := r.getDB(ctx).WithContext(ctx).
		Where("expires_at < ? AND status IN ?", before, []domain.Status{domain.StatusInitiated, domain.StatusInProgress}).
		Find(&negs).Error
	return negs, err
}

func (r *negotiationRepository) SaveOffer(ctx context.Context, o *domain.Offer) error {
	return r.getDB(ctx).WithContext(ctx).Save(o).Error
}

func (r *negotiationRepository) GetLastOffer(ctx context.Context, negotiationID string) (*domain.Offer, error) {
	var o domain.Offer
	err := r.getDB(ctx).WithContext(ctx).
		Where("negotiation_id = ?", negotiationID).
		Order("round_number DESC").
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *negotiationRepository) UpdateOfferStatus(ctx context.Context, offerID string, status domain.OfferStatus) error {
	return r.getDB(ctx).WithContext(ctx).
		Model(&domain.Offer{}).
		Where("offer_id = ?", offerID).
		Update("status", status).Error
}

func (r *negotiationRepository) SaveMessage(ctx context.Context, m *domain.Message) error {
	return r.getDB(ctx).WithContext(ctx).Save(m).Error
}

func (r *negotiationRepository) ListMessages(ctx context.Context, negotiationID string) ([]*domain.Message, error) {
	var msgs []*domain.Message
	err := r.getDB(ctx).WithContext(ctx).
		Where("negotiation_id = ?", negotiationID).
		Order("created_at ASC").
		Find(&msgs).Error
	return msgs, err
}
