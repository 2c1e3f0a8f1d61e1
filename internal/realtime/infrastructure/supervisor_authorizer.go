// Package infrastructure provides the real-time fan-out's SupervisorAuthorizer,
// grounded on internal/platform/authctx's capability model: any partner
// holding the SUPERVISE capability may observe any room read-only without
// being a participant of it.
package infrastructure

import (
	"context"

	"github.com/rnrl/tradecore/internal/platform/authctx"
	"github.com/rnrl/tradecore/internal/realtime/domain"
)

type CapabilitySupervisorAuthorizer struct{}

// NewCapabilitySupervisorAuthorizer reads capabilities from the Principal the
// WS handshake already attached to ctx (the same JWT authctx.Middleware
// decodes for REST), so no separate lookup is needed.
func NewCapabilitySupervisorAuthorizer() *CapabilitySupervisorAuthorizer {
	return &CapabilitySupervisorAuthorizer{}
}

func (a *CapabilitySupervisorAuthorizer) IsAuthorizedSupervisor(ctx context.Context, room domain.RoomID, actorPartnerID string) (bool, error) {
	principal := authctx.FromContext(ctx)
	if principal == nil || principal.PartnerID != actorPartnerID {
		return false, nil
	}
	return principal.Has(authctx.CapSupervise), nil
}
