package application

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rnrl/tradecore/internal/availability/domain"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/pkg/logging"
)

const (
	maxReserveAttempts = 5
	reserveBaseBackoff = 25 * time.Millisecond
)

// ReservationService implements the atomic allocation flow:
// load by id+version, validate, conditional update WHERE id=?AND version=?,
// and on a zero-row update refetch and retry up to maxReserveAttempts with
// exponential backoff. It is used both by the HTTP
// POST /availabilities/{id}/reserve|release endpoints and, through the same
// Reserve method, by the matching engine's allocation step, which must never
// hold an outer transaction during scoring.
type ReservationService struct {
	repo    domain.Repository
	resRepo domain.ReservationRepository
	sleep   func(time.Duration)
}

func NewReservationService(repo domain.Repository, resRepo domain.ReservationRepository) *ReservationService {
	return &ReservationService{repo: repo, resRepo: resRepo, sleep: time.Sleep}
}

// Reserve attempts to hold qty units of availabilityID for buyerPartnerID,
// returning the created Reservation. Never runs inside an outer transaction:
// each attempt is its own short-lived Save/CompareAndSwapVersion pair so a
// slow caller never blocks other writers to the same row for longer than one
// attempt.
func (s *ReservationService) Reserve(ctx context.Context, availabilityID, buyerPartnerID string, qty float64, holdHours int) (*domain.Reservation, error) {
	quantity := decimal.NewFromFloat(qty)

	var avail *domain.Availability
	for attempt := 0; attempt < maxReserveAttempts; attempt++ {
		var err error
		avail, err = s.repo.Get(ctx, availabilityID)
		if err != nil {
			return nil, err
		}
		if avail == nil {
			return nil, errNotFound(availabilityID)
		}
		if !avail.IsMatchable() {
			return nil, errPrecondition("availability is not eligible for reservation")
		}
		if !avail.CanReserve(quantity) {
			return nil, errPrecondition("requested quantity exceeds available supply")
		}

		expectedVersion := avail.Version
		avail.Reserve(quantity)

		rows, err := s.repo.CompareAndSwapVersion(ctx, avail, expectedVersion)
		if err != nil {
			return nil, err
		}
		if rows > 0 {
			break
		}

		logging.Warn(ctx, "reservation CAS conflict, retrying", "availabilityId", availabilityID, "attempt", attempt)
		s.backoff(attempt)
		avail = nil
	}
	if avail == nil {
		return nil, errConflict("could not reserve after retries; concurrent writers exhausted the retry budget")
	}

	res := &domain.Reservation{
		ReservationID:  fmt.Sprintf("RSV-%d", idgen.GenID()),
		AvailabilityID: availabilityID,
		BuyerPartnerID: buyerPartnerID,
		Quantity:       quantity,
		Status:         domain.ReservationHeld,
		ExpiresAt:      time.Now().UTC().Add(time.Duration(holdHours) * time.Hour),
	}
	if err := s.resRepo.Save(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Release returns a held reservation's quantity to available supply.
func (s *ReservationService) Release(ctx context.Context, availabilityID, buyerPartnerID, reason string) error {
	return s.adjustReservation(ctx, availabilityID, buyerPartnerID, reason, domain.ReservationReleased, func(a *domain.Availability, qty decimal.Decimal) {
		a.Release(qty)
	})
}

// Sell converts a held reservation into a permanent sale once a trade
// settles the matched quantity.
func (s *ReservationService) Sell(ctx context.Context, availabilityID, buyerPartnerID string) error {
	return s.adjustReservation(ctx, availabilityID, buyerPartnerID, "", domain.ReservationSold, func(a *domain.Availability, qty decimal.Decimal) {
		a.Sell(qty)
	})
}

func (s *ReservationService) adjustReservation(ctx context.Context, availabilityID, buyerPartnerID, reason string, terminal domain.ReservationStatus, apply func(*domain.Availability, decimal.Decimal)) error {
	res, err := s.findHeldReservation(ctx, availabilityID, buyerPartnerID)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < maxReserveAttempts; attempt++ {
		avail, err := s.repo.Get(ctx, availabilityID)
		if err != nil {
			return err
		}
		if avail == nil {
			return errNotFound(availabilityID)
		}
		expectedVersion := avail.Version
		apply(avail, res.Quantity)

		rows, err := s.repo.CompareAndSwapVersion(ctx, avail, expectedVersion)
		if err != nil {
			return err
		}
		if rows > 0 {
			break
		}
		if attempt == maxReserveAttempts-1 {
			return errConflict("could not update availability after retries")
		}
		s.backoff(attempt)
	}

	return s.resRepo.WithTx(ctx, func(txCtx context.Context) error {
		res.Status = terminal
		res.ReleaseReason = reason
		return s.resRepo.Save(txCtx, res)
	})
}

// HeldBy reports whether buyerPartnerID currently holds an active
// reservation against availabilityID (internal/realtime's participant check
// for RoomAvailability rooms).
func (s *ReservationService) HeldBy(ctx context.Context, availabilityID, buyerPartnerID string) (bool, error) {
	res, err := s.resRepo.GetHeldByBuyer(ctx, availabilityID, buyerPartnerID)
	if err != nil {
		return false, err
	}
	return res != nil, nil
}

func (s *ReservationService) findHeldReservation(ctx context.Context, availabilityID, buyerPartnerID string) (*domain.Reservation, error) {
	res, err := s.resRepo.GetHeldByBuyer(ctx, availabilityID, buyerPartnerID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errReservationNotFound(buyerPartnerID)
	}
	return res, nil
}

func (s *ReservationService) backoff(attempt int) {
	base := float64(reserveBaseBackoff) * math.Pow(2, float64(attempt))
	jitter := time.Duration(rand.Int63n(int64(base) + 1))
	s.sleep(jitter)
}
