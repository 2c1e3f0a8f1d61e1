package application

import (
	"context"

	"github.com/rnrl/tradecore/internal/requirement/domain"
)

// RiskEvaluator is the risk-and-compliance contract this bounded context
// depends on; the concrete adapter lives in internal/risk and is wired at
// the composition root (cmd/tradecore/main.go), the same way
// cmd/algotrading/main.go wires sibling-service clients
// (grpcclient.ServiceClients) without application packages importing each
// other directly.
type RiskEvaluator interface {
	EvaluateEntity(ctx context.Context, r *domain.Requirement) (status string, err error)
}

// MatchingTrigger is the matching-engine contract: PublishHigh runs
// matching in-request; PublishAsync enqueues the subject at MEDIUM priority
// on the in-memory matching queue that the matching Dispatcher drains, and
// a queued task that fails is logged, not retried.
type MatchingTrigger struct {
	PublishHigh func(ctx context.Context, requirementID string) error
	PublishAsync func(ctx context.Context, requirementID string) error
}
