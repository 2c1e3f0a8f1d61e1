package application

import (
	"context"

	"github.com/rnrl/tradecore/internal/availability/domain"
)

type QueryService struct {
	repo domain.Repository
}

func NewQueryService(repo domain.Repository) *QueryService {
	return &QueryService{repo: repo}
}

func (s *QueryService) Get(ctx context.Context, availabilityID string) (*domain.Availability, error) {
	avail, err := s.repo.Get(ctx, availabilityID)
	if err != nil {
		return nil, err
	}
	if avail == nil {
		return nil, errNotFound(availabilityID)
	}
	return avail, nil
}

func (s *QueryService) ListActiveByCommodity(ctx context.Context, commodityID string) ([]*domain.Availability, error) {
	return s.repo.ListActiveByCommodity(ctx, commodityID)
}
