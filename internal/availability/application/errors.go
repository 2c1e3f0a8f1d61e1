package application

import "github.com/rnrl/tradecore/internal/platform/apierr"

func errNotFound(availabilityID string) error {
	return apierr.NotFound("AVAILABILITY_NOT_FOUND", "availability "+availabilityID+" not found")
}

func errPrecondition(detail string) error {
	return apierr.Precondition("AVAILABILITY_PRECONDITION_FAILED", detail)
}

func errConflict(detail string) error {
	return apierr.Conflict("AVAILABILITY_VERSION_CONFLICT", detail)
}

func errReservationNotFound(buyerPartnerID string) error {
	return apierr.NotFound("RESERVATION_NOT_FOUND", "no active reservation for buyer "+buyerPartnerID)
}
