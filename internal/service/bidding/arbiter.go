package bidding

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/bid"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/errors"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/ride"
)

// Arbiter decides the winning bid. Concurrent selections on the same ride
// race through a repository compare-and-set, so exactly one wins regardless
// of interleaving.
type Arbiter struct {
	rideRepo RideRepository
	bidRepo  BidRepository
	logger   *slog.Logger
}

// NewArbiter creates a selection arbiter
func NewArbiter(rideRepo RideRepository, bidRepo BidRepository, logger *slog.Logger) *Arbiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Arbiter{rideRepo: rideRepo, bidRepo: bidRepo, logger: logger}
}

// Select commits driverID as the winner of rideID on behalf of actorID.
// Losing racers get AlreadyMatched; selections after expiry or cancellation
// get WindowClosed.
func (a *Arbiter) Select(ctx context.Context, rideID, driverID, actorID uuid.UUID) (*bid.Bid, *ride.Request, error) {
	current, err := a.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, nil, errors.ErrRideNotFound
		}
		return nil, nil, errors.NewInternalError("loading ride failed").WithCause(err)
	}

	if current.RiderID != actorID {
		a.logger.Warn("selection attempt by non-owner",
			"ride_id", rideID, "actor_id", actorID)
		return nil, nil, errors.NewUnauthorizedError("only the requesting rider can select a driver")
	}

	// Fast-path rejections before touching the ledger.
	switch {
	case current.Status == ride.StatusMatched || current.Status == ride.StatusActive || current.Status == ride.StatusCompleted:
		return nil, nil, errors.NewAlreadyMatchedError("a driver has already been selected")
	case current.Status == ride.StatusCancelled:
		return nil, nil, errors.NewWindowClosedError("ride has been cancelled")
	case !current.WindowOpen(time.Now()):
		return nil, nil, errors.NewWindowClosedError("bidding window has expired")
	}

	winning, err := a.bidRepo.GetActive(ctx, rideID, driverID)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, nil, errors.NewInvalidInputError("NO_ACTIVE_BID", "driver has no active bid on this ride")
		}
		return nil, nil, errors.NewInternalError("loading bid failed").WithCause(err)
	}
	if winning.Frozen {
		return nil, nil, errors.NewWindowClosedError("bid ledger is frozen")
	}

	matched, err := a.rideRepo.CommitSelection(ctx, rideID, driverID)
	if err != nil {
		if stderrors.Is(err, ErrSelectionConflict) {
			return nil, nil, a.classifyConflict(ctx, rideID)
		}
		if stderrors.Is(err, ErrNotFound) {
			return nil, nil, errors.ErrRideNotFound
		}
		return nil, nil, errors.NewInternalError("committing selection failed").WithCause(err)
	}

	if err := a.bidRepo.Freeze(ctx, rideID); err != nil {
		// The winner is committed; a failed freeze only delays ledger
		// closure and is retried by cancellation paths.
		a.logger.Error("freezing bid ledger failed",
			"ride_id", rideID, "error", err)
	}

	a.logger.Info("driver selected",
		"ride_id", rideID, "driver_id", driverID, "amount", winning.Amount.String())

	return winning, matched, nil
}

// classifyConflict re-reads the ride to report why the compare-and-set lost
func (a *Arbiter) classifyConflict(ctx context.Context, rideID uuid.UUID) error {
	current, err := a.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return errors.NewAlreadyMatchedError("a driver has already been selected")
	}
	if current.SelectedDriverID != nil {
		return errors.NewAlreadyMatchedError("a driver has already been selected")
	}
	return errors.NewWindowClosedError("bidding window is closed")
}
