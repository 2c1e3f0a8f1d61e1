package application

import (
	"github.com/rnrl/tradecore/internal/platform/apierr"
	"github.com/rnrl/tradecore/internal/trade/domain"
)

func errNotFound(tradeID string) error {
	return apierr.NotFound("TRADE_NOT_FOUND", "trade "+tradeID+" not found")
}

func errNegotiationNotFound(negotiationID string) error {
	return apierr.NotFound("NEGOTIATION_NOT_FOUND", "negotiation "+negotiationID+" not found")
}

func errNegotiationNotAccepted(negotiationID string) error {
	return apierr.Precondition("NEGOTIATION_NOT_ACCEPTED", "negotiation "+negotiationID+" is not in an accepted state")
}

func errAlreadyExists(negotiationID string) error {
	return apierr.Conflict("TRADE_ALREADY_EXISTS", "a trade already exists for negotiation "+negotiationID)
}

func errIncompleteTerms(missing []domain.MissingField) error {
	fields := make([]apierr.FieldError, 0, len(missing))
	for _, m := range missing {
		fields = append(fields, apierr.FieldError{Field: m.Group + "." + m.Field, Reason: m.Issue})
	}
	return apierr.Validation("TRADE_TERMS_INCOMPLETE", "trade terms are incomplete", fields...)
}

func errAlreadySigned() error {
	return apierr.Conflict("TRADE_ALREADY_SIGNED", "this side has already signed the contract")
}

func errPrecondition(detail string) error {
	return apierr.Precondition("TRADE_PRECONDITION_FAILED", detail)
}

func errConflict(detail string) error {
	return apierr.Conflict("TRADE_VERSION_CONFLICT", detail)
}
