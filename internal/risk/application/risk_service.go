// Package application exposes the risk and compliance evaluator as a
// command (evaluate + persist) / query (history) pair, the same
// risk_command.go/risk_query_service.go CQRS split used elsewhere in the
// codebase's risk-adjacent services.
package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rnrl/tradecore/internal/risk/domain"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/messagequeue"
)

// CommandService runs evaluate() and persists the Assessment for audit,
// publishing a risk.evaluated event through the shared outbox (C1).
type CommandService struct {
	evaluator *domain.Evaluator
	repo      domain.EvaluatorRepository
	publisher messagequeue.EventPublisher
}

func NewCommandService(evaluator *domain.Evaluator, repo domain.EvaluatorRepository, publisher messagequeue.EventPublisher) *CommandService {
	return &CommandService{evaluator: evaluator, repo: repo, publisher: publisher}
}

// Evaluate is the C2 public contract entry point, called synchronously from
// requirement/availability publish and from the matching engine's bilateral
// re-validation.
func (s *CommandService) Evaluate(ctx context.Context, subjectType, subjectID string, riskCtx domain.Context) (*domain.Result, error) {
	result, err := s.evaluator.Evaluate(ctx, riskCtx)
	if err != nil {
		return nil, err
	}

	breakdown, _ := json.Marshal(result.Breakdown)
	assessment := &domain.Assessment{
		AssessmentID:  fmt.Sprintf("RISK-%d", idgen.GenID()),
		SubjectType:   subjectType,
		SubjectID:     subjectID,
		Status:        result.Status,
		Score:         decimal.NewFromFloat(result.Score),
		BreakdownJSON: breakdown,
	}

	if err := s.repo.Save(ctx, assessment); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		event := map[string]any{
			"assessmentId": assessment.AssessmentID,
			"subjectType":  subjectType,
			"subjectId":    subjectID,
			"status":       result.Status,
			"score":        result.Score,
			"evaluatedAt":  time.Now().UTC(),
		}
		tx := contextx.GetTx(ctx)
		if err := s.publisher.PublishInTx(ctx, tx, "risk.evaluated.v1", assessment.AssessmentID, event); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// QueryService answers history lookups used by the UI and by operators
// investigating a FAIL/WARN decision.
type QueryService struct {
	repo domain.EvaluatorRepository
}

func NewQueryService(repo domain.EvaluatorRepository) *QueryService {
	return &QueryService{repo: repo}
}

func (s *QueryService) Latest(ctx context.Context, subjectType, subjectID string) (*domain.Assessment, error) {
	return s.repo.GetLatest(ctx, subjectType, subjectID)
}
