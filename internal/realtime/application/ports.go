package application

import (
	"context"

	"github.com/rnrl/tradecore/internal/realtime/domain"
)

// ParticipantChecker is the C7→{C5,C4,C3} port: each room kind (neg/avail/req)
// is authorized by the context that owns that aggregate, wired in at the
// composition root exactly like every other cross-context dependency in
// this module.
type ParticipantChecker interface {
	IsParticipant(ctx context.Context, aggregateID, actorPartnerID string) (bool, error)
}

// SupervisorAuthorizer decides whether an actor holds read-only monitoring
// access to a room it is not a participant of.
type SupervisorAuthorizer interface {
	IsAuthorizedSupervisor(ctx context.Context, room domain.RoomID, actorPartnerID string) (bool, error)
}

// Bus is the cross-instance pub/sub port: shared pub/sub so
// horizontally-scaled instances deliver consistently. Publish fans an
// envelope out to every other instance; Subscribe feeds remotely-published
// envelopes into onRemote for local delivery.
type Bus interface {
	Publish(ctx context.Context, env domain.Envelope) error
	Subscribe(ctx context.Context, onRemote func(domain.Envelope)) error
}
