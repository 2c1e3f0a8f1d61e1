// Package aiadvisor is the pluggable, never-blocking counter-offer hint.
// Grounded on internal/risk/domain/airisk/airisk.go's
// Fallback + sony/gobreaker BreakerWrapped pattern: a deterministic
// heuristic fallback wrapped in a circuit breaker, so a flaky/absent real
// ML runtime degrades to "no suggestion" instead of blocking a negotiation
// mutation.
package aiadvisor

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"

	"github.com/rnrl/tradecore/internal/negotiation/application"
	"github.com/rnrl/tradecore/internal/negotiation/domain"
)

// Fallback proposes the midpoint between the current offer's price and the
// negotiation's CurrentPrice, at the offer's quantity. Time pressure feeds
// only the acceptance probability, not the suggested price.
type Fallback struct{}

func NewFallback() *Fallback { return &Fallback{} }

func (f *Fallback) SuggestCounter(_ context.Context, n *domain.Negotiation, current *domain.Offer, side string) (*domain.Suggestion, error) {
	if current == nil {
		return nil, nil
	}
	mid := current.Price.Add(n.CurrentPrice).Div(decimal.NewFromInt(2))
	timePressure := timePressureOf(n)
	priceDistance := 1 - priceDeltaFraction(current.Price, mid)
	quantityMatch := 1.0

	return &domain.Suggestion{
		Price: mid, Quantity: current.Quantity,
		Confidence: 0.4,
		Reasoning:  "midpoint heuristic between current offer and negotiation's current price",
		AcceptanceProbability: domain.AcceptanceProbability(priceDistance, quantityMatch, timePressure),
	}, nil
}

func timePressureOf(n *domain.Negotiation) float64 {
	total := n.ExpiresAt.Sub(n.InitiatedAt)
	if total <= 0 {
		return 1
	}
	elapsed := time.Since(n.InitiatedAt)
	frac := float64(elapsed) / float64(total)
	if frac < 0 {
		return 0
	}
	if frac > 1 {
		return 1
	}
	return frac
}

func priceDeltaFraction(a, b decimal.Decimal) float64 {
	if a.IsZero() {
		return 0
	}
	frac, _ := a.Sub(b).Abs().Div(a).Float64()
	if frac > 1 {
		return 1
	}
	return frac
}

// BreakerWrapped wraps any AIAdvisor (the Fallback or a real ML runtime
// client) in a sony/gobreaker circuit.
type BreakerWrapped struct {
	inner   application.AIAdvisor
	breaker *gobreaker.CircuitBreaker
}

func NewBreakerWrapped(inner application.AIAdvisor, name string) *BreakerWrapped {
	settings := gobreaker.Settings{
		Name:    name,
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}
	return &BreakerWrapped{inner: inner, breaker: gobreaker.NewCircuitBreaker(settings)}
}

func (b *BreakerWrapped) SuggestCounter(ctx context.Context, n *domain.Negotiation, current *domain.Offer, side string) (*domain.Suggestion, error) {
	result, err := b.breaker.Execute(func() (any, error) {
		return b.inner.SuggestCounter(ctx, n, current, side)
	})
	if err != nil {
		return nil, err
	}
	suggestion, _ := result.(*domain.Suggestion)
	return suggestion, nil
}

var _ application.AIAdvisor = (*Fallback)(nil)
var _ application.AIAdvisor = (*BreakerWrapped)(nil)
