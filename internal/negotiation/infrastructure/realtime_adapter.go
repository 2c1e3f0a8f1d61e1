package infrastructure

import (
	"context"

	"github.com/rnrl/tradecore/internal/negotiation/application"
	rtapp "github.com/rnrl/tradecore/internal/realtime/application"
)

// ParticipantCheckerAdapter satisfies realtime/application.ParticipantChecker
// for RoomNegotiation: only the negotiation's buyer/seller may join its room.
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
	neg, err := a.queries.Get(ctx, aggregateID)
	if err != nil {
		return false, err
	}
	return neg.IsParticipant(actorPartnerID), nil
}

type participantCheckerFunc func(ctx context.Context, aggregateID, actorPartnerID string) (bool, error)

func (f participantCheckerFunc) IsParticipant(ctx context.Context, aggregateID, actorPartnerID string) (bool, error) {
	return f(ctx, aggregateID, actorPartnerID)
}
