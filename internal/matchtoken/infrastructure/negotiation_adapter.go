package infrastructure

import (
	"context"
	"time"

	negapp "github.com/rnrl/tradecore/internal/negotiation/application"
	"github.com/rnrl/tradecore/internal/matchtoken/application"
	"github.com/rnrl/tradecore/internal/matchtoken/domain"
)

// TokenResolverAdapter satisfies internal/negotiation/application.TokenResolver,
// translating C4's Token aggregate into negotiation's local ResolvedToken
// snapshot so internal/negotiation never imports internal/matchtoken/domain
// directly — same composition pattern as internal/matching's adapters.
type TokenResolverAdapter struct {
	commands *application.CommandService
}

func NewTokenResolverAdapter(commands *application.CommandService) *TokenResolverAdapter {
	return &TokenResolverAdapter{commands: commands}
}

// ResolveForActor looks the handle up directly against the token store
// (bypassing the redacted View) because the negotiation start() flow needs
// the full requirement/availability/partner ids to create its aggregate,
// not the counterparty-withheld external view.
func (a *TokenResolverAdapter) ResolveForActor(ctx context.Context, handle, actorPartnerID string) (*negapp.ResolvedToken, error) {
	token, err := a.commands.ResolveRaw(ctx, handle, actorPartnerID)
	if err != nil {
		return nil, err
	}
	return &negapp.ResolvedToken{
		TokenID: token.TokenID, RequirementID: token.RequirementID, AvailabilityID: token.AvailabilityID,
		BuyerPartnerID: token.BuyerPartnerID, SellerPartnerID: token.SellerPartnerID,
		Expired: token.IsExpired(time.Now().UTC()),
	}, nil
}

func (a *TokenResolverAdapter) Reveal(ctx context.Context, tokenID, targetDisclosureLevel string) error {
	return a.commands.Reveal(ctx, tokenID, domain.DisclosureLevel(targetDisclosureLevel))
}
