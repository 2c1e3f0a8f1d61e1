package application

import "github.com/rnrl/tradecore/internal/platform/apierr"

func errNotFound(requirementID string) error {
	return apierr.NotFound("REQUIREMENT_NOT_FOUND", "requirement "+requirementID+" not found")
}

func errPrecondition(detail string) error {
	return apierr.Precondition("REQUIREMENT_PRECONDITION_FAILED", detail)
}

func errConflict(detail string) error {
	return apierr.Conflict("REQUIREMENT_VERSION_CONFLICT", detail)
}
