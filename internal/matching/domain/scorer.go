package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Factor weights for the weighted-similarity scoring table.
const (
	WeightQuality  = 0.30
	WeightPrice    = 0.25
	WeightQuantity = 0.15
	WeightLocation = 0.10
	WeightTimeline = 0.10
	WeightRisk     = 0.10

	warnPenalty = 0.10
	aiBoost     = 0.05
)

// ScoreBreakdown is the per-factor contribution exposed on MatchToken so a
// partner can see why a candidate scored the way it did.
type ScoreBreakdown struct {
	Quality  float64 `json:"quality"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
	Location float64 `json:"location"`
	Timeline float64 `json:"timeline"`
	Risk     float64 `json:"risk"`
	Total    float64 `json:"total"`
}

// ScoreInputs bundles everything the weighted-similarity formula needs
// beyond the two raw snapshots: the bilateral risk score from C2 (already
// normalized to [0,1]), whether either side is WARN, whether an AI
// recommendation applies, and the configured geo radius.
type ScoreInputs struct {
	Req           RequirementSide
	Avail         AvailabilitySide
	BilateralRisk float64
	EitherWarn    bool
	AIRecommended bool
	MaxRadiusKM   float64
}

// Score computes the weighted similarity in [0,1] across quality, price,
// quantity, location, timeline and risk factors, applying the WARN penalty
// and AI-recommendation boost modifiers.
func Score(in ScoreInputs) ScoreBreakdown {
	b := ScoreBreakdown{
		Quality:  qualityScore(in.Req.QualitySpec, in.Avail.QualitySpec),
		Price:    priceScore(in.Req.PreferredPrice, in.Req.MaxPrice, in.Avail.AskingPrice),
		Quantity: quantityScore(in.Req.Quantity, in.Avail.AvailableQuantity, in.Avail.AllowPartialOrder, in.Avail.MinOrderQuantity),
		Location: LocationScore(in.Req.Location, in.Avail.Location, radiusOrDefault(in.MaxRadiusKM)),
		Timeline: in.Req.DeliveryWindow.OverlapFraction(in.Avail.DeliveryWindow),
		Risk:     clamp01(in.BilateralRisk),
	}

	total := WeightQuality*b.Quality + WeightPrice*b.Price + WeightQuantity*b.Quantity +
		WeightLocation*b.Location + WeightTimeline*b.Timeline + WeightRisk*b.Risk

	if in.EitherWarn {
		total *= 1 - warnPenalty
	}
	if in.AIRecommended {
		total += aiBoost
	}
	b.Total = clamp01(total)
	return b
}

func radiusOrDefault(km float64) float64 {
	if km <= 0 {
		return DefaultMaxRadiusKM
	}
	return km
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// qualityScore averages per-parameter closeness within tolerance; any
// missing mandatory parameter collapses the whole factor to 0.
func qualityScore(req, avail []QualityParam) float64 {
	if len(req) == 0 {
		return 1
	}
	availByName := make(map[string]QualityParam, len(avail))
	for _, p := range avail {
		availByName[p.Name] = p
	}

	var sum float64
	for _, rp := range req {
		ap, ok := availByName[rp.Name]
		if !ok {
			if rp.Mandatory {
				return 0
			}
			continue
		}
		sum += paramCloseness(rp, ap)
	}
	return sum / float64(len(req))
}

func paramCloseness(req, avail QualityParam) float64 {
	rv := paramValue(req)
	av := paramValue(avail)
	if rv == nil || av == nil {
		return 0.5
	}
	diff := absf(*rv - *av)
	tol := req.Tolerance
	if tol <= 0 {
		tol = 0.0001
	}
	if diff >= tol {
		return 0
	}
	return 1 - diff/tol
}

func paramValue(p QualityParam) *float64 {
	if p.Target != nil {
		return p.Target
	}
	if p.Min != nil && p.Max != nil {
		mid := (*p.Min + *p.Max) / 2
		return &mid
	}
	if p.Min != nil {
		return p.Min
	}
	return p.Max
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// priceScore: 1 when asking <= preferredPrice, linear falloff to 0 at
// maxPrice, 0 beyond.
func priceScore(preferred, max, asking decimal.Decimal) float64 {
	if asking.LessThanOrEqual(preferred) {
		return 1
	}
	if asking.GreaterThanOrEqual(max) {
		return 0
	}
	span := max.Sub(preferred)
	if span.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	remaining := max.Sub(asking)
	frac, _ := remaining.Div(span).Float64()
	return clamp01(frac)
}

// quantityScore: min(requested, offered)/requested, modulated by
// allowPartialOrder and minOrderQuantity.
func quantityScore(requested, offered decimal.Decimal, allowPartial bool, minOrder decimal.Decimal) float64 {
	if requested.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	if !allowPartial && offered.LessThan(requested) {
		return 0
	}
	if !minOrder.IsZero() && requested.LessThan(minOrder) {
		return 0
	}
	filled := decimal.Min(requested, offered)
	frac, _ := filled.Div(requested).Float64()
	return clamp01(frac)
}

// Candidate pairs a scored breakdown with the identifiers needed downstream
// (tokenization, tie-break ordering).
type Candidate struct {
	RequirementID  string
	AvailabilityID string
	Score          ScoreBreakdown
	LastActivityAt int64 // unix nanos, later wins the tie-break
	PairHash       uint64 // stable tie-break when score and activity are equal
}

// RankCandidates sorts by score desc, then latest activity desc, then a
// stable pair-id hash to avoid starvation.
func RankCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score.Total != candidates[j].Score.Total {
			return candidates[i].Score.Total > candidates[j].Score.Total
		}
		if candidates[i].LastActivityAt != candidates[j].LastActivityAt {
			return candidates[i].LastActivityAt > candidates[j].LastActivityAt
		}
		return candidates[i].PairHash < candidates[j].PairHash
	})
}
