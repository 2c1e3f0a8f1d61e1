package infrastructure

import (
	"context"
	"encoding/json"

	"github.com/rnrl/tradecore/internal/requirement/application"
	rtapp "github.com/rnrl/tradecore/internal/realtime/application"
)

// ParticipantCheckerAdapter satisfies realtime/application.ParticipantChecker
// for RoomRequirement: the owning buyer, or any seller the requirement's
// market-visibility rule exposes it to, may join its room.
type ParticipantCheckerAdapter struct {
	queries *application.QueryService
}

func NewParticipantCheckerAdapter(queries *application.QueryService) *ParticipantCheckerAdapter {
	return &ParticipantCheckerAdapter{queries: queries}
}

func (a *ParticipantCheckerAdapter) Port() rtapp.ParticipantChecker {
	return participantCheckerFunc(a.isParticipant)
}

func (a *ParticipantCheckerAdapter) isParticipant(ctx context.Context, aggregateID, actorPartnerID string) (bool, error) {
	req, err := a.queries.Get(ctx, aggregateID)
	if err != nil {
		return false, err
	}
	if req.BuyerPartnerID == actorPartnerID {
		return true, nil
	}
	var invited []string
	if len(req.InvitedSellerIDsJSON) > 0 {
		if err := json.Unmarshal(req.InvitedSellerIDsJSON, &invited); err != nil {
			return false, err
		}
	}
	return req.VisibleTo(actorPartnerID, invited), nil
}

type participantCheckerFunc func(ctx context.Context, aggregateID, actorPartnerID string) (bool, error)

func (f participantCheckerFunc) IsParticipant(ctx context.Context, aggregateID, actorPartnerID string) (bool, error) {
	return f(ctx, aggregateID, actorPartnerID)
}
