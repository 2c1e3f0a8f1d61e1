package application

import "github.com/rnrl/tradecore/internal/platform/apierr"

func errNotFound(negotiationID string) error {
	return apierr.NotFound("NEGOTIATION_NOT_FOUND", "negotiation "+negotiationID+" not found")
}

func errTokenNotFound(handle string) error {
	return apierr.NotFound("MATCH_TOKEN_NOT_FOUND", "no match token resolves to handle "+handle)
}

func errTokenExpired() error {
	return apierr.Precondition("MATCH_TOKEN_EXPIRED", "match token has expired")
}

func errAlreadyStarted(tokenID string) error {
	return apierr.Conflict("NEGOTIATION_ALREADY_EXISTS", "a negotiation already exists for match token "+tokenID)
}

func errPrecondition(detail string) error {
	return apierr.Precondition("NEGOTIATION_PRECONDITION_FAILED", detail)
}
