package domain

import "github.com/shopspring/decimal"

// Suggestion is the optional, never-blocking AI counter-offer hint
// returned by suggestCounter.
type Suggestion struct {
	Price                  decimal.Decimal
	Quantity               decimal.Decimal
	Confidence             float64
	Reasoning              string
	AcceptanceProbability  float64
}

// AcceptanceTolerance gates shouldAutoAccept: default ±5% price, >=90%
// quantity match.
type AcceptanceTolerance struct {
	PriceFraction    float64
	MinQuantityRatio float64
}

func DefaultAcceptanceTolerance() AcceptanceTolerance {
	return AcceptanceTolerance{PriceFraction: 0.05, MinQuantityRatio: 0.90}
}

// AcceptanceProbability is a weighted combination:
// 0.5·priceDistance + 0.3·quantityMatch + 0.2·timePressure, each input
// already normalized to [0,1] (closer/better = higher).
func AcceptanceProbability(priceDistance, quantityMatch, timePressure float64) float64 {
	p := 0.5*priceDistance + 0.3*quantityMatch + 0.2*timePressure
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// ShouldAutoAccept reports whether a proposed counter-offer falls within
// tolerance of the negotiation's current terms, for sides that have opted
// into auto-negotiation.
func ShouldAutoAccept(currentPrice, proposedPrice, currentQuantity, proposedQuantity decimal.Decimal, tol AcceptanceTolerance) bool {
	if currentPrice.IsZero() || currentQuantity.IsZero() {
		return false
	}
	priceDiff := proposedPrice.Sub(currentPrice).Abs().Div(currentPrice)
	priceOK, _ := priceDiff.Float64()
	if priceOK > tol.PriceFraction {
		return false
	}
	qtyRatio := decimal.Min(proposedQuantity, currentQuantity).Div(decimal.Max(proposedQuantity, currentQuantity))
	ratio, _ := qtyRatio.Float64()
	return ratio >= tol.MinQuantityRatio
}
