// Package airisk hosts the pluggable AI/ML orchestrator adapter the risk
// evaluator consults for its 30% ML weight. The orchestrator is an external
// collaborator whose only contract here is a decision interface; the
// default in-repo implementation is a deterministic rule-based fallback,
// wrapped in a circuit breaker so a flaky/absent real ML runtime degrades
// cleanly instead of hanging the risk evaluation request.
package airisk

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/rnrl/tradecore/internal/risk/domain"
)

// Opinion is the decision interface a real ML runtime adapter implements;
// domain.MLOpinion is the identical contract the evaluator depends on, kept
// as a distinct name here so infra adapters are discoverable by package.
type Opinion = domain.MLOpinion

// Fallback is a deterministic, model-free opinion: a smoothed restatement of
// the same signals the rule engine already has, biased slightly toward
// caution. It exists so the system is fully functional with zero ML runtime
// configured.
type Fallback struct{}

func NewFallback() *Fallback { return &Fallback{} }

func (f *Fallback) Score(_ context.Context, c domain.Context) (float64, []domain.Factor, error) {
	switch v := c.(type) {
	case domain.EntityContext:
		score := 100*(1-v.CreditUtilization.InexactFloat64())*0.5 + v.CounterpartyRating.InexactFloat64()*0.5
		return clamp(score), []domain.Factor{{Factor: "fallback_heuristic", Impact: score, Value: "rule-restatement"}}, nil
	case domain.BilateralContext:
		score := v.Seller.CounterpartyRating.InexactFloat64()*0.6 + v.Buyer.CounterpartyRating.InexactFloat64()*0.4
		return clamp(score), []domain.Factor{{Factor: "fallback_heuristic", Impact: score, Value: "rule-restatement"}}, nil
	default:
		return 70, []domain.Factor{{Factor: "fallback_heuristic", Impact: 70, Value: "default"}}, nil
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// BreakerWrapped wraps any Opinion adapter (the Fallback or a real ML
// runtime client) in a sony/gobreaker circuit: a tripped breaker surfaces as
// an error, which the evaluator already treats as "degrade to rule-only",
// never as a blocking failure.
type BreakerWrapped struct {
	inner   Opinion
	breaker *gobreaker.CircuitBreaker
}

func NewBreakerWrapped(inner Opinion, name string) *BreakerWrapped {
	settings := gobreaker.Settings{
		Name:    name,
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &BreakerWrapped{inner: inner, breaker: gobreaker.NewCircuitBreaker(settings)}
}

func (b *BreakerWrapped) Score(ctx context.Context, c domain.Context) (float64, []domain.Factor, error) {
	result, err := b.breaker.Execute(func() (any, error) {
		score, factors, err := b.inner.Score(ctx, c)
		if err != nil {
			return nil, err
		}
		return struct {
			score   float64
			factors []domain.Factor
		}{score, factors}, nil
	})
	if err != nil {
		return 0, nil, err
	}
	out := result.(struct {
		score   float64
		factors []domain.Factor
	})
	return out.score, out.factors, nil
}
