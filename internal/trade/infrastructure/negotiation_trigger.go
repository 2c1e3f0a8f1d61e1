package infrastructure

import (
	"context"

	negapp "github.com/rnrl/tradecore/internal/negotiation/application"
	negdomain "github.com/rnrl/tradecore/internal/negotiation/domain"
	"github.com/rnrl/tradecore/internal/trade/application"
)

// TradeTriggerAdapter satisfies internal/negotiation/application.TradeTrigger:
// on ACCEPT, negotiation hands off to the trade engine's pre-flight
// completeness validation and trade creation flow.
type TradeTriggerAdapter struct {
	commands *application.CommandService
}

func NewTradeTriggerAdapter(commands *application.CommandService) *TradeTriggerAdapter {
	return &TradeTriggerAdapter{commands: commands}
}

func (a *TradeTriggerAdapter) Port() negapp.TradeTrigger {
	return negapp.TradeTrigger{OnAccepted: a.onAccepted}
}

func (a *TradeTriggerAdapter) onAccepted(ctx context.Context, n *negdomain.Negotiation) error {
	_, err := a.commands.Create(ctx, n.NegotiationID)
	return err
}
