// Package application orchestrates the matching pipeline: pre-filter,
// geo-filter, bilateral risk re-validation, weighted scoring, ranking with a
// top-K cut, dedup suppression, atomic reservation, and match-token emission.
// Cross-context dependencies are local port interfaces
// (ports.go), wired to concrete adapters at cmd/tradecore/main.go — the
// same composition-root pattern used by internal/requirement and
// internal/availability.
package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rnrl/tradecore/internal/matching/domain"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue"
)

const (
	// topKByCheapKey bounds how many ranked candidates are settled. The cut
	// is taken after every candidate has been fully scored; no cheaper key
	// narrows the pool before scoring.
	topKByCheapKey  = 50
	tokenExpiryHours = 24
	defaultHoldHours = 24
)

type Config struct {
	MaxRadiusKM int
}

type CommandService struct {
	requirements RequirementLookup
	availabilities AvailabilityLookup
	risk         BilateralRiskEvaluator
	tokens       TokenIssuer
	fanout       Fanout
	ai           AIRecommender
	dedup        domain.DedupStore
	publisher    messagequeue.EventPublisher
	cfg          Config
}

func NewCommandService(
	requirements RequirementLookup,
	availabilities AvailabilityLookup,
	risk BilateralRiskEvaluator,
	tokens TokenIssuer,
	fanout Fanout,
	ai AIRecommender,
	dedup domain.DedupStore,
	publisher messagequeue.EventPublisher,
	cfg Config,
) *CommandService {
	return &CommandService{
		requirements: requirements, availabilities: availabilities,
		risk: risk, tokens: tokens, fanout: fanout, ai: ai,
		dedup: dedup, publisher: publisher, cfg: cfg,
	}
}

// MatchRequirement re-evaluates one newly-published/updated requirement
// against the matchable availability pool for its commodity (the mirror
// entry point, MatchAvailability, walks the opposite direction).
func (s *CommandService) MatchRequirement(ctx context.Context, requirementID string) error {
	req, err := s.requirements.Get(ctx, requirementID)
	if err != nil {
		return err
	}
	if req == nil {
		return fmt.Errorf("requirement %s not found", requirementID)
	}

	pool, err := s.availabilities.ListMatchableByCommodity(ctx, req.CommodityID)
	if err != nil {
		return err
	}

	candidates := s.filterAndScore(ctx, req, pool)
	return s.settle(ctx, req, candidates)
}

func (s *CommandService) MatchAvailability(ctx context.Context, availabilityID string) error {
	avail, err := s.availabilities.Get(ctx, availabilityID)
	if err != nil {
		return err
	}
	if avail == nil {
		return fmt.Errorf("availability %s not found", availabilityID)
	}

	pool, err := s.requirements.ListMatchableByCommodity(ctx, avail.CommodityID)
	if err != nil {
		return err
	}

	var candidates []scoredPair
	for _, req := range pool {
		r := req
		candidates = append(candidates, s.scoreOne(ctx, &r, avail)...)
	}
	rankPairs(candidates)
	if len(candidates) > topKByCheapKey {
		candidates = candidates[:topKByCheapKey]
	}

	for _, c := range candidates {
		if err := s.settleOne(ctx, c.req, c.avail, c.candidate); err != nil {
			logging.Warn(ctx, "match settlement failed", "requirementId", c.req.RequirementID, "availabilityId", c.avail.AvailabilityID, "error", err)
		}
	}
	return nil
}

type scoredPair struct {
	req       *domain.RequirementSide
	avail     *domain.AvailabilitySide
	candidate domain.Candidate
}

func (s *CommandService) filterAndScore(ctx context.Context, req *domain.RequirementSide, pool []domain.AvailabilitySide) []scoredPair {
	var out []scoredPair
	for i := range pool {
		avail := &pool[i]
		out = append(out, s.scoreOne(ctx, req, avail)...)
	}
	rankPairs(out)
	return out
}

// rankPairs orders scoredPair slices by score desc, latest activity desc,
// then a stable pair-id hash as the final tie-break.
func rankPairs(pairs []scoredPair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		a, b := pairs[i].candidate, pairs[j].candidate
		if a.Score.Total != b.Score.Total {
			return a.Score.Total > b.Score.Total
		}
		if a.LastActivityAt != b.LastActivityAt {
			return a.LastActivityAt > b.LastActivityAt
		}
		return a.PairHash < b.PairHash
	})
}

func (s *CommandService) scoreOne(ctx context.Context, req *domain.RequirementSide, avail *domain.AvailabilitySide) []scoredPair {
	if ok, reason := domain.PassesPrefilter(*req, *avail); !ok {
		s.emitRejected(ctx, req.RequirementID, avail.AvailabilityID, reason)
		return nil
	}
	if !domain.GeoMatch(req.Location, avail.Location, radiusKM(s.cfg.MaxRadiusKM)) {
		return nil
	}

	bilateralStatus, bilateralScore := "PENDING", 0.0
	if s.risk != nil {
		var err error
		bilateralStatus, bilateralScore, err = s.risk.EvaluateBilateral(ctx, req, avail)
		if err != nil {
			logging.Warn(ctx, "bilateral risk evaluation failed, skipping candidate", "requirementId", req.RequirementID, "availabilityId", avail.AvailabilityID, "error", err)
			return nil
		}
		if bilateralStatus == "FAIL" {
			s.emitRejected(ctx, req.RequirementID, avail.AvailabilityID, "RISK_BLOCKED")
			return nil
		}
	}

	aiBoost := s.ai != nil && s.ai.Recommends(ctx, req, avail)
	breakdown := domain.Score(domain.ScoreInputs{
		Req: *req, Avail: *avail,
		BilateralRisk: bilateralScore,
		EitherWarn:    req.RiskState == "WARN" || avail.RiskState == "WARN" || bilateralStatus == "WARN",
		AIRecommended: aiBoost,
		MaxRadiusKM:   radiusKM(s.cfg.MaxRadiusKM),
	})

	pairKey := domain.DedupKey(req.RequirementID, avail.AvailabilityID, avail.AskingPrice, avail.AvailableQuantity, qualityDigest(avail))
	return []scoredPair{{req: req, avail: avail, candidate: domain.Candidate{
		RequirementID: req.RequirementID, AvailabilityID: avail.AvailabilityID,
		Score: breakdown, LastActivityAt: lastActivity(req, avail), PairHash: pairKey,
	}}}
}

func (s *CommandService) settle(ctx context.Context, req *domain.RequirementSide, candidates []scoredPair) error {
	if len(candidates) > topKByCheapKey {
		candidates = candidates[:topKByCheapKey]
	}
	for _, c := range candidates {
		if err := s.settleOne(ctx, c.req, c.avail, c.candidate); err != nil {
			logging.Warn(ctx, "match settlement failed", "requirementId", req.RequirementID, "availabilityId", c.avail.AvailabilityID, "error", err)
		}
	}
	return nil
}

func (s *CommandService) settleOne(ctx context.Context, req *domain.RequirementSide, avail *domain.AvailabilitySide, candidate domain.Candidate) error {
	key := domain.DedupKey(req.RequirementID, avail.AvailabilityID, avail.AskingPrice, avail.AvailableQuantity, qualityDigest(avail))
	if s.dedup != nil {
		seen, err := s.dedup.SeenRecently(ctx, key)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
	}

	qty := req.Quantity
	if qty.GreaterThan(avail.AvailableQuantity) {
		qty = avail.AvailableQuantity
	}
	qtyFloat, _ := qty.Float64()

	_, err := s.availabilities.Reserve(ctx, avail.AvailabilityID, req.BuyerPartnerID, qtyFloat, defaultHoldHours)
	if err != nil {
		s.emitEvent(ctx, "match.allocation_failed.v1", avail.AvailabilityID, map[string]any{
			"requirementId": req.RequirementID, "availabilityId": avail.AvailabilityID, "reason": err.Error(),
		})
		return err
	}

	expiresAt := time.Now().UTC().Add(tokenExpiryHours * time.Hour)
	var tokenID string
	if s.tokens.Issue != nil {
		tokenID, err = s.tokens.Issue(ctx, req.RequirementID, avail.AvailabilityID, req.BuyerPartnerID, avail.SellerPartnerID, candidate.Score, expiresAt)
		if err != nil {
			return err
		}
	}

	s.emitEvent(ctx, "match.found.v1", tokenID, map[string]any{
		"requirementId": req.RequirementID, "availabilityId": avail.AvailabilityID,
		"tokenId": tokenID, "score": candidate.Score,
	})

	if s.fanout.NotifyMatchFound != nil {
		s.fanout.NotifyMatchFound(ctx, req.RequirementID, avail.AvailabilityID, tokenID)
	}
	return nil
}

func (s *CommandService) emitRejected(ctx context.Context, requirementID, availabilityID, reason string) {
	s.emitEvent(ctx, "match.rejected.v1", requirementID, map[string]any{
		"requirementId": requirementID, "availabilityId": availabilityID, "reason": reason,
	})
}

func (s *CommandService) emitEvent(ctx context.Context, eventType, aggregateID string, payload map[string]any) {
	if s.publisher == nil {
		return
	}
	payload["occurredAt"] = time.Now().UTC()
	if err := s.publisher.PublishInTx(ctx, contextx.GetTx(ctx), eventType, aggregateID, payload); err != nil {
		logging.Error(ctx, "failed to publish matching event", "eventType", eventType, "aggregateId", aggregateID, "error", err)
	}
}

func radiusKM(cfg int) float64 {
	if cfg <= 0 {
		return domain.DefaultMaxRadiusKM
	}
	return float64(cfg)
}

func lastActivity(req *domain.RequirementSide, avail *domain.AvailabilitySide) int64 {
	if req.LastActivityAt.After(avail.LastActivityAt) {
		return req.LastActivityAt.UnixNano()
	}
	return avail.LastActivityAt.UnixNano()
}

func qualityDigest(avail *domain.AvailabilitySide) string {
	digest := ""
	for _, p := range avail.QualitySpec {
		digest += p.Name + ":"
		if p.Target != nil {
			digest += fmt.Sprintf("%.2f", *p.Target)
		}
		digest += ","
	}
	return digest
}
