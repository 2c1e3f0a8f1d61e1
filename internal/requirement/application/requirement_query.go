package application

import (
	"context"

	"github.com/rnrl/tradecore/internal/requirement/domain"
)

// QueryService is the read side; it never competes with CommandService for
// the optimistic lock, so readers never block on writers.
type QueryService struct {
	repo domain.Repository
}

func NewQueryService(repo domain.Repository) *QueryService {
	return &QueryService{repo: repo}
}

func (s *QueryService) Get(ctx context.Context, requirementID string) (*domain.Requirement, error) {
	req, err := s.repo.Get(ctx, requirementID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, errNotFound(requirementID)
	}
	return req, nil
}

func (s *QueryService) ListActiveByCommodity(ctx context.Context, commodityID string) ([]*domain.Requirement, error) {
	return s.repo.ListActiveByCommodity(ctx, commodityID)
}
