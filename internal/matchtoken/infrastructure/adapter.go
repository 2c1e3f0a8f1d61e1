// Package infrastructure adapts C4's CommandService to the matching
// engine's TokenIssuer port, converting C3's ScoreBreakdown value into C4's
// own (distinct but field-identical) type so internal/matchtoken never
// imports internal/matching.
package infrastructure

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	matchapp "github.com/rnrl/tradecore/internal/matching/application"
	matchdomain "github.com/rnrl/tradecore/internal/matching/domain"
	"github.com/rnrl/tradecore/internal/matchtoken/application"
	tokendomain "github.com/rnrl/tradecore/internal/matchtoken/domain"
)

type TokenIssuerAdapter struct {
	commands *application.CommandService
}

func NewTokenIssuerAdapter(commands *application.CommandService) *TokenIssuerAdapter {
	return &TokenIssuerAdapter{commands: commands}
}

// Port returns the matchapp.TokenIssuer value wired into C3's CommandService.
func (a *TokenIssuerAdapter) Port() matchapp.TokenIssuer {
	return matchapp.TokenIssuer{Issue: a.issue}
}

func (a *TokenIssuerAdapter) issue(ctx context.Context, requirementID, availabilityID, buyerPartnerID, sellerPartnerID string, score matchdomain.ScoreBreakdown, expiresAt time.Time) (string, error) {
	breakdown := tokendomain.ScoreBreakdown{
		Quality: score.Quality, Price: score.Price, Quantity: score.Quantity,
		Location: score.Location, Timeline: score.Timeline, Risk: score.Risk, Total: score.Total,
	}
	token, err := a.commands.Issue(ctx, requirementID, availabilityID, buyerPartnerID, sellerPartnerID, decimal.NewFromFloat(score.Total), breakdown)
	if err != nil {
		return "", err
	}
	return token.TokenID, nil
}
