package application

import (
	"context"
	"time"

	"github.com/rnrl/tradecore/internal/matching/domain"
)

// RequirementLookup is the C3→Requirement port: load one requirement and
// list matchable requirements for a commodity, for scoring against the
// opposite side.
type RequirementLookup interface {
	Get(ctx context.Context, requirementID string) (*domain.RequirementSide, error)
	ListMatchableByCommodity(ctx context.Context, commodityID string) ([]domain.RequirementSide, error)
}

// AvailabilityLookup is the C3→Availability port.
type AvailabilityLookup interface {
	Get(ctx context.Context, availabilityID string) (*domain.AvailabilitySide, error)
	ListMatchableByCommodity(ctx context.Context, commodityID string) ([]domain.AvailabilitySide, error)
	// Reserve performs the atomic allocation using a bounded-retry optimistic
	// lock and returns the reservation id.
	Reserve(ctx context.Context, availabilityID, buyerPartnerID string, quantity float64, holdHours int) (reservationID string, err error)
}

// BilateralRiskEvaluator is the C3→C2 port: evaluate the candidate pair as a
// bilateral risk context, distinct from either side's standalone posture.
type BilateralRiskEvaluator interface {
	EvaluateBilateral(ctx context.Context, req *domain.RequirementSide, avail *domain.AvailabilitySide) (status string, normalizedScore float64, err error)
}

// TokenIssuer is the C3→C4 port: mint an opaque buyer/seller handle pair for
// a surviving candidate.
type TokenIssuer struct {
	Issue func(ctx context.Context, requirementID, availabilityID, buyerPartnerID, sellerPartnerID string, score domain.ScoreBreakdown, expiresAt time.Time) (tokenID string, err error)
}

// Fanout is the C3→C7 port: opportunistic push of newly-found matches to the
// requirement/availability rooms, so a synchronous match made during
// requirement/availability creation is delivered over the live channel
// rather than waiting for the caller to poll.
type Fanout struct {
	NotifyMatchFound func(ctx context.Context, requirementID, availabilityID, tokenID string)
}

// AIRecommender is the optional ML boost signal (+5% capped at 1.0); a nil
// AIRecommender degrades to "no boost" silently, the same failure posture as
// the risk evaluator's own ML opinion.
type AIRecommender interface {
	Recommends(ctx context.Context, req *domain.RequirementSide, avail *domain.AvailabilitySide) bool
}
