package application

import (
	"context"

	"github.com/rnrl/tradecore/internal/availability/domain"
)

// RiskEvaluator mirrors internal/requirement/application.RiskEvaluator — the
// C2 contract, wired to a concrete internal/risk adapter at the composition
// root rather than imported directly.
type RiskEvaluator interface {
	EvaluateEntity(ctx context.Context, a *domain.Availability) (status string, err error)
}

// MatchingTrigger mirrors internal/requirement/application.MatchingTrigger.
type MatchingTrigger struct {
	PublishHigh  func(ctx context.Context, availabilityID string) error
	PublishAsync func(ctx context.Context, availabilityID string) error
}
