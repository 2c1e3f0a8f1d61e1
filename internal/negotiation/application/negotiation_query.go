package application

import (
	"context"

	"github.com/rnrl/tradecore/internal/negotiation/domain"
)

type QueryService struct {
	repo domain.Repository
}

func NewQueryService(repo domain.Repository) *QueryService {
	return &QueryService{repo: repo}
}

func (s *QueryService) Get(ctx context.Context, negotiationID string) (*domain.Negotiation, error) {
	neg, err := s.repo.Get(ctx, negotiationID)
	if err != nil {
		return nil, err
	}
	if neg == nil {
		return nil, errNotFound(negotiationID)
	}
	return neg, nil
}

func (s *QueryService) ListMessages(ctx context.Context, negotiationID string) ([]*domain.Message, error) {
	return s.repo.ListMessages(ctx, negotiationID)
}
