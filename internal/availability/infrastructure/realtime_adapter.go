package infrastructure

import (
	"context"

	"github.com/rnrl/tradecore/internal/availability/application"
	rtapp "github.com/rnrl/tradecore/internal/realtime/application"
)

// ParticipantCheckerAdapter satisfies realtime/application.ParticipantChecker
// for RoomAvailability: the owning seller, or a buyer currently holding a
// reservation against the listing, may join its room.
type ParticipantCheckerAdapter struct {
	queries  *application.QueryService
	reserved *application.ReservationService
}

func NewParticipantCheckerAdapter(queries *application.QueryService, reserved *application.ReservationService) *ParticipantCheckerAdapter {
	return &ParticipantCheckerAdapter{queries: queries, reserved: reserved}
}

func (a *ParticipantCheckerAdapter) Port() rtapp.ParticipantChecker {
	return participantCheckerFunc(a.isParticipant)
}

func (a *ParticipantCheckerAdapter) isParticipant(ctx context.Context, aggregateID, actorPartnerID string) (bool, error) {
	avail, err := a.queries.Get(ctx, aggregateID)
	if err != nil {
		return false, err
	}
	if avail.SellerPartnerID == actorPartnerID {
		return true, nil
	}
	held, err := a.reserved.HeldBy(ctx, aggregateID, actorPartnerID)
	if err != nil {
		return false, err
	}
	return held, nil
}

type participantCheckerFunc func(ctx context.Context, aggregateID, actorPartnerID string) (bool, error)

func (f participantCheckerFunc) IsParticipant(ctx context.Context, aggregateID, actorPartnerID string) (bool, error) {
	return f(ctx, aggregateID, actorPartnerID)
}
