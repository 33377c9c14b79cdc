package bidding

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/bid"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/errors"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/ride"
	"github.com/suntan-superman/rydeiq-backend/internal/service/fare"
)

const (
	bidRatePerMinute  = 30
	bidRateBurst      = 10
	storeRetries      = 3
	storeRetryBackoff = 50 * time.Millisecond
)

type service struct {
	rideRepo  RideRepository
	bidRepo   BidRepository
	estimator *fare.Estimator
	notifier  Notifier
	payments  PaymentProcessor
	drivers   DriverDirectory
	metrics   MetricsCollector
	arbiter   *Arbiter
	timer     *WindowTimer
	policy    WindowPolicy
	logger    *slog.Logger

	mu        sync.Mutex
	bidLimits map[uuid.UUID]*rate.Limiter
	extends   map[uuid.UUID]int
}

// NewService wires the lifecycle coordinator. payments, drivers and metrics
// may be nil; the corresponding steps become no-ops.
func NewService(
	rideRepo RideRepository,
	bidRepo BidRepository,
	estimator *fare.Estimator,
	notifier Notifier,
	payments PaymentProcessor,
	drivers DriverDirectory,
	metrics MetricsCollector,
	policy WindowPolicy,
	logger *slog.Logger,
) Service {
	if logger == nil {
		logger = slog.Default()
	}
	if policy.Window <= 0 {
		policy = DefaultWindowPolicy()
	}
	return &service{
		rideRepo:  rideRepo,
		bidRepo:   bidRepo,
		estimator: estimator,
		notifier:  notifier,
		payments:  payments,
		drivers:   drivers,
		metrics:   metrics,
		arbiter:   NewArbiter(rideRepo, bidRepo, logger),
		timer:     NewWindowTimer(),
		policy:    policy,
		logger:    logger,
		bidLimits: make(map[uuid.UUID]*rate.Limiter),
		extends:   make(map[uuid.UUID]int),
	}
}

func (s *service) RequestRide(ctx context.Context, input RequestRideInput) (*ride.Snapshot, error) {
	r, err := ride.NewRequest(input.RiderID, input.Pickup, input.Dropoff, input.Category)
	if err != nil {
		return nil, err
	}
	r.SpecialRequests = input.SpecialRequests
	r.PaymentMethod = input.PaymentMethod

	quote, err := s.estimator.Estimate(ctx, input.Pickup, input.Dropoff, input.Category)
	if err != nil {
		return nil, err
	}
	r.EstimatedFare = quote.Fare
	r.FareVersion = quote.RateVersion

	if err := s.withRetry(ctx, func() error {
		return s.rideRepo.Create(ctx, r)
	}); err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(s.policy.Window)
	published, err := s.rideRepo.Transition(ctx, r.ID, ride.StatusRequesting, func(cur *ride.Request) error {
		if err := cur.Transition(ride.StatusPending); err != nil {
			return err
		}
		return cur.BeginWindow(expiresAt)
	})
	if err != nil {
		return nil, s.mapStoreError(ctx, r.ID, err)
	}

	s.timer.Schedule(r.ID, s.policy.Window, s.handleWindowExpiry)

	if s.metrics != nil {
		s.metrics.RecordRideRequested(input.Category.String())
	}
	s.logger.Info("ride requested",
		"ride_id", r.ID, "rider_id", input.RiderID,
		"category", input.Category.String(), "fare", quote.Fare.String())

	snap := ride.NewSnapshot(published, nil)
	s.publish(ctx, snap)
	return snap, nil
}

func (s *service) SubmitBid(ctx context.Context, input SubmitBidInput) (*ride.Snapshot, error) {
	if err := s.checkBidRate(input.DriverID); err != nil {
		return nil, err
	}

	current, err := s.getRide(ctx, input.RideID)
	if err != nil {
		return nil, err
	}
	if !current.WindowOpen(time.Now()) {
		return nil, errors.NewWindowClosedError("bidding window is not open")
	}

	b, err := bid.NewBid(input.RideID, input.DriverID, input.Amount, input.ETAMinutes)
	if err != nil {
		return nil, err
	}
	b.Note = input.Note
	b.ServiceTags = input.ServiceTags

	if s.drivers != nil {
		profile, err := s.drivers.DriverProfile(ctx, input.DriverID)
		if err != nil {
			s.logger.Warn("driver profile lookup failed",
				"driver_id", input.DriverID, "error", err)
		} else {
			b.DriverRating = profile.Rating
			b.Vehicle = profile.Vehicle
		}
	}

	var ledger []*bid.Bid
	if err := s.withRetry(ctx, func() error {
		var upsertErr error
		ledger, upsertErr = s.bidRepo.Upsert(ctx, b)
		return upsertErr
	}); err != nil {
		if stderrors.Is(err, ErrLedgerFrozen) {
			return nil, errors.NewWindowClosedError("bid ledger is frozen")
		}
		if stderrors.Is(err, ErrNotFound) {
			return nil, errors.ErrRideNotFound
		}
		return nil, err
	}

	// First bid flips the ride into bidding. Losing that race to another
	// driver's bid is fine.
	if current.Status == ride.StatusPending {
		updated, err := s.rideRepo.Transition(ctx, input.RideID, ride.StatusPending, func(cur *ride.Request) error {
			return cur.OpenBidding()
		})
		switch {
		case err == nil:
			current = updated
		case stderrors.Is(err, ErrStatusConflict):
			if current, err = s.getRide(ctx, input.RideID); err != nil {
				return nil, err
			}
		default:
			return nil, s.mapStoreError(ctx, input.RideID, err)
		}
	}

	if s.metrics != nil {
		s.metrics.RecordBidSubmitted(input.RideID)
	}
	s.logger.Info("bid submitted",
		"ride_id", input.RideID, "driver_id", input.DriverID,
		"amount", input.Amount.String(), "eta_minutes", input.ETAMinutes)

	snap := ride.NewSnapshot(current, ledger)
	s.publish(ctx, snap)
	return snap, nil
}

func (s *service) SelectDriver(ctx context.Context, rideID, driverID, actorID uuid.UUID) (*ride.Snapshot, error) {
	winning, matched, err := s.arbiter.Select(ctx, rideID, driverID, actorID)
	if err != nil {
		return nil, err
	}

	s.timer.Cancel(rideID)
	if s.metrics != nil {
		s.metrics.RecordSelection("matched")
	}

	ledger, err := s.bidRepo.ListByRide(ctx, rideID)
	if err != nil {
		s.logger.Error("listing bids after selection failed", "ride_id", rideID, "error", err)
		ledger = []*bid.Bid{winning}
	}

	snap := ride.NewSnapshot(matched, ledger)
	s.publish(ctx, snap)

	if s.payments != nil {
		amount := winning.Amount
		go func() {
			holdCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			ref, err := s.payments.HoldFare(holdCtx, rideID, driverID, amount)
			if err != nil {
				s.logger.Error("fare hold failed",
					"ride_id", rideID, "driver_id", driverID, "error", err)
				return
			}
			s.logger.Info("fare hold placed", "ride_id", rideID, "hold_ref", ref)
		}()
	}

	return snap, nil
}

func (s *service) StartTrip(ctx context.Context, rideID, driverID uuid.UUID) (*ride.Snapshot, error) {
	updated, err := s.transition(ctx, rideID, ride.StatusMatched, func(cur *ride.Request) error {
		return cur.Start(driverID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("trip started", "ride_id", rideID, "driver_id", driverID)
	return s.snapshotAndPublish(ctx, updated)
}

func (s *service) CompleteTrip(ctx context.Context, rideID, driverID uuid.UUID) (*ride.Snapshot, error) {
	updated, err := s.transition(ctx, rideID, ride.StatusActive, func(cur *ride.Request) error {
		return cur.Complete(driverID)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("trip completed", "ride_id", rideID, "driver_id", driverID)
	return s.snapshotAndPublish(ctx, updated)
}

func (s *service) Cancel(ctx context.Context, rideID, actorID uuid.UUID) (*ride.Snapshot, error) {
	current, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}

	var actor, reason string
	switch {
	case current.RiderID == actorID:
		actor, reason = "rider", ride.ReasonRiderCancelled
	case current.SelectedDriverID != nil && *current.SelectedDriverID == actorID:
		actor, reason = "driver", ride.ReasonDriverCancelled
	default:
		return nil, errors.NewUnauthorizedError("only the rider or selected driver can cancel")
	}

	updated, err := s.transition(ctx, rideID, current.Status, func(cur *ride.Request) error {
		return cur.Cancel(actor, reason)
	})
	if err != nil {
		return nil, err
	}

	s.timer.Cancel(rideID)
	if err := s.bidRepo.Freeze(ctx, rideID); err != nil && !stderrors.Is(err, ErrNotFound) {
		s.logger.Error("freezing ledger on cancel failed", "ride_id", rideID, "error", err)
	}

	s.logger.Info("ride cancelled",
		"ride_id", rideID, "actor", actor, "reason", reason)
	return s.snapshotAndPublish(ctx, updated)
}

func (s *service) GetRide(ctx context.Context, rideID uuid.UUID) (*ride.Snapshot, error) {
	// Snapshots are cached on every commit, so a notifier that can serve
	// reads spares the primary store.
	if src, ok := s.notifier.(SnapshotReader); ok {
		if snap, err := src.Latest(ctx, rideID); err == nil {
			return snap, nil
		}
	}

	current, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	ledger, err := s.bidRepo.ListByRide(ctx, rideID)
	if err != nil {
		return nil, errors.NewInternalError("listing bids failed").WithCause(err)
	}
	return ride.NewSnapshot(current, ledger), nil
}

func (s *service) ListBids(ctx context.Context, rideID uuid.UUID, key bid.SortKey) ([]*bid.Bid, error) {
	if _, err := s.getRide(ctx, rideID); err != nil {
		return nil, err
	}
	ledger, err := s.bidRepo.ListByRide(ctx, rideID)
	if err != nil {
		return nil, errors.NewInternalError("listing bids failed").WithCause(err)
	}
	bid.Sort(ledger, key)
	return ledger, nil
}

func (s *service) Subscribe(ctx context.Context, rideID uuid.UUID) (Subscription, error) {
	snap, err := s.GetRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	return s.notifier.Subscribe(rideID, snap), nil
}

// Close stops all pending window timers
func (s *service) Close() {
	s.timer.Stop()
}

// handleWindowExpiry runs when a ride's bidding window elapses. It re-reads
// state so a selection or cancellation that won the race turns this into a
// no-op.
func (s *service) handleWindowExpiry(rideID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	current, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		s.logger.Error("window expiry load failed", "ride_id", rideID, "error", err)
		return
	}
	if current.Status != ride.StatusPending && current.Status != ride.StatusBidding {
		return
	}

	ledger, err := s.bidRepo.ListByRide(ctx, rideID)
	if err != nil {
		s.logger.Error("window expiry bid load failed", "ride_id", rideID, "error", err)
		ledger = nil
	}

	if s.policy.AutoExtend && len(ledger) > 0 && s.extendCount(rideID) < s.policy.MaxExtends {
		expiresAt := time.Now().Add(s.policy.Extension)
		_, err := s.rideRepo.Transition(ctx, rideID, current.Status, func(cur *ride.Request) error {
			return cur.ExtendWindow(expiresAt)
		})
		if err == nil {
			s.bumpExtendCount(rideID)
			s.timer.Schedule(rideID, s.policy.Extension, s.handleWindowExpiry)
			s.logger.Info("bidding window extended", "ride_id", rideID, "expires_at", expiresAt)
			return
		}
		// Fall through: a racing selection or cancel owns the ride now.
		if !stderrors.Is(err, ErrStatusConflict) {
			s.logger.Error("window extension failed", "ride_id", rideID, "error", err)
		}
		return
	}

	reason := ride.ReasonBiddingExpired
	outcome := "cancelled_unselected"
	if len(ledger) == 0 {
		reason = ride.ReasonNoBidsAccepted
		outcome = "cancelled_no_bids"
	}

	updated, err := s.rideRepo.Transition(ctx, rideID, current.Status, func(cur *ride.Request) error {
		return cur.Cancel("system", reason)
	})
	if err != nil {
		// Lost the race to a selection or manual cancel; nothing to do.
		if !stderrors.Is(err, ErrStatusConflict) {
			s.logger.Error("window expiry cancel failed", "ride_id", rideID, "error", err)
		}
		return
	}

	if err := s.bidRepo.Freeze(ctx, rideID); err != nil && !stderrors.Is(err, ErrNotFound) {
		s.logger.Error("freezing ledger on expiry failed", "ride_id", rideID, "error", err)
	}
	if s.metrics != nil {
		s.metrics.RecordWindowExpiry(outcome)
	}
	s.logger.Info("bidding window expired",
		"ride_id", rideID, "reason", reason, "bids", len(ledger))

	s.publish(ctx, ride.NewSnapshot(updated, ledger))
}

func (s *service) getRide(ctx context.Context, rideID uuid.UUID) (*ride.Request, error) {
	current, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, errors.ErrRideNotFound
		}
		return nil, errors.NewInternalError("loading ride failed").WithCause(err)
	}
	return current, nil
}

func (s *service) transition(ctx context.Context, rideID uuid.UUID, from ride.Status, apply func(*ride.Request) error) (*ride.Request, error) {
	updated, err := s.rideRepo.Transition(ctx, rideID, from, apply)
	if err != nil {
		return nil, s.mapStoreError(ctx, rideID, err)
	}
	return updated, nil
}

// mapStoreError converts store sentinels into caller-facing domain errors
func (s *service) mapStoreError(ctx context.Context, rideID uuid.UUID, err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	if stderrors.Is(err, ErrNotFound) {
		return errors.ErrRideNotFound
	}
	if stderrors.Is(err, ErrStatusConflict) {
		if current, getErr := s.rideRepo.GetByID(ctx, rideID); getErr == nil {
			return errors.NewIllegalTransitionError(current.Status.String(), "requested state")
		}
		return errors.NewIllegalTransitionError("unknown", "requested state")
	}
	return errors.NewInternalError("ride store operation failed").WithCause(err)
}

// withRetry retries infrastructure failures with doubling backoff. Domain
// errors and store sentinels pass through untouched.
func (s *service) withRetry(ctx context.Context, op func() error) error {
	backoff := storeRetryBackoff
	var lastErr error
	for attempt := 0; attempt < storeRetries; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) ||
			stderrors.Is(err, ErrNotFound) ||
			stderrors.Is(err, ErrStatusConflict) ||
			stderrors.Is(err, ErrSelectionConflict) ||
			stderrors.Is(err, ErrLedgerFrozen) {
			return err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return errors.NewUnavailableError("ride store unavailable").WithCause(lastErr)
}

func (s *service) snapshotAndPublish(ctx context.Context, r *ride.Request) (*ride.Snapshot, error) {
	ledger, err := s.bidRepo.ListByRide(ctx, r.ID)
	if err != nil {
		s.logger.Error("listing bids failed", "ride_id", r.ID, "error", err)
		ledger = nil
	}
	snap := ride.NewSnapshot(r, ledger)
	s.publish(ctx, snap)
	return snap, nil
}

func (s *service) publish(ctx context.Context, snap *ride.Snapshot) {
	if s.notifier != nil {
		s.notifier.Publish(ctx, snap)
	}
}

func (s *service) checkBidRate(driverID uuid.UUID) error {
	s.mu.Lock()
	limiter, ok := s.bidLimits[driverID]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(bidRatePerMinute)/60, bidRateBurst)
		s.bidLimits[driverID] = limiter
	}
	s.mu.Unlock()

	if !limiter.Allow() {
		return errors.NewInvalidInputError("BID_RATE_EXCEEDED", "bid rate limit exceeded").
			WithDetails(map[string]interface{}{"driver_id": driverID.String()})
	}
	return nil
}

func (s *service) extendCount(rideID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.extends[rideID]
}

func (s *service) bumpExtendCount(rideID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extends[rideID]++
}
