package application

import (
	"context"

	"github.com/rnrl/tradecore/internal/trade/domain"
)

type QueryService struct {
	repo domain.Repository
}

func NewQueryService(repo domain.Repository) *QueryService {
	return &QueryService{repo: repo}
}

func (q *QueryService) Get(ctx context.Context, tradeID string) (*domain.Trade, error) {
	trade, err := q.repo.Get(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, errNotFound(tradeID)
	}
	return trade, nil
}

func (q *QueryService) Signatures(ctx context.Context, tradeID string) ([]domain.Signature, error) {
	return q.repo.ListSignatures(ctx, tradeID)
}

func (q *QueryService) Milestones(ctx context.Context, tradeID string) ([]domain.Milestone, error) {
	return q.repo.ListMilestones(ctx, tradeID)
}

func (q *QueryService) Amendments(ctx context.Context, tradeID string) ([]domain.Amendment, error) {
	return q.repo.ListAmendments(ctx, tradeID)
}
