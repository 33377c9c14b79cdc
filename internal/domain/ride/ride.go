package ride

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/errors"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/values"
)

// Cancellation reasons recorded on the ride.
const (
	ReasonNoBidsAccepted  = "no_bids_accepted"
	ReasonBiddingExpired  = "bidding_expired"
	ReasonRiderCancelled  = "rider_cancelled"
	ReasonDriverCancelled = "driver_cancelled"
)

// Request is the ride request aggregate. It owns the lifecycle state machine:
// every status change goes through Transition so illegal moves cannot be
// persisted.
type Request struct {
	ID              uuid.UUID
	RiderID         uuid.UUID
	Pickup          values.Location
	Dropoff         values.Location
	Category        values.Category
	SpecialRequests []string
	PaymentMethod   string

	Status           Status
	EstimatedFare    values.Money
	FareVersion      string
	BiddingExpiresAt *time.Time
	SelectedDriverID *uuid.UUID
	CancelReason     string
	CancelActor      string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRequest creates a ride request in the requesting state
func NewRequest(riderID uuid.UUID, pickup, dropoff values.Location, category values.Category) (*Request, error) {
	if riderID == uuid.Nil {
		return nil, errors.NewInvalidInputError("MISSING_RIDER_ID", "rider ID is required")
	}
	if err := pickup.Validate(); err != nil {
		return nil, errors.NewInvalidInputError("INVALID_PICKUP", "invalid pickup location").WithCause(err)
	}
	if err := dropoff.Validate(); err != nil {
		return nil, errors.NewInvalidInputError("INVALID_DROPOFF", "invalid dropoff location").WithCause(err)
	}
	if _, err := values.ParseCategory(category.String()); err != nil {
		return nil, errors.NewInvalidInputError("INVALID_CATEGORY", "invalid ride category").WithCause(err)
	}

	now := time.Now()
	return &Request{
		ID:        uuid.New(),
		RiderID:   riderID,
		Pickup:    pickup,
		Dropoff:   dropoff,
		Category:  category,
		Status:    StatusRequesting,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Transition moves the ride to the target status, rejecting illegal moves.
// The ride is left unchanged on error.
func (r *Request) Transition(to Status) error {
	if !r.Status.CanTransitionTo(to) {
		return errors.NewIllegalTransitionError(r.Status.String(), to.String())
	}
	r.Status = to
	r.UpdatedAt = time.Now()
	return nil
}

// BeginWindow sets the bidding deadline. The ride must be pending; the window
// deadline is fixed at publication time, before any bid arrives.
func (r *Request) BeginWindow(expiresAt time.Time) error {
	if r.Status != StatusPending {
		return errors.NewIllegalTransitionError(r.Status.String(), "pending window")
	}
	t := expiresAt
	r.BiddingExpiresAt = &t
	r.UpdatedAt = time.Now()
	return nil
}

// OpenBidding transitions the ride into bidding when the first bid arrives
func (r *Request) OpenBidding() error {
	return r.Transition(StatusBidding)
}

// ExtendWindow pushes the bidding deadline out; the window must still be set
func (r *Request) ExtendWindow(expiresAt time.Time) error {
	if r.Status != StatusPending && r.Status != StatusBidding {
		return errors.NewWindowClosedError("bidding window is closed")
	}
	if r.BiddingExpiresAt == nil {
		return errors.NewInternalError("bidding window was never opened")
	}
	t := expiresAt
	r.BiddingExpiresAt = &t
	r.UpdatedAt = time.Now()
	return nil
}

// WindowOpen reports whether bids and selections are still being accepted
func (r *Request) WindowOpen(now time.Time) bool {
	if r.Status != StatusPending && r.Status != StatusBidding {
		return false
	}
	if r.BiddingExpiresAt == nil {
		return false
	}
	return now.Before(*r.BiddingExpiresAt)
}

// Match records the winning driver and closes the bidding window
func (r *Request) Match(driverID uuid.UUID) error {
	if driverID == uuid.Nil {
		return errors.NewInvalidInputError("MISSING_DRIVER_ID", "driver ID is required")
	}
	if err := r.Transition(StatusMatched); err != nil {
		return err
	}
	d := driverID
	r.SelectedDriverID = &d
	r.BiddingExpiresAt = nil
	return nil
}

// Start moves a matched ride into the active trip state
func (r *Request) Start(driverID uuid.UUID) error {
	if r.SelectedDriverID == nil || *r.SelectedDriverID != driverID {
		return errors.NewUnauthorizedError("only the selected driver can start the trip")
	}
	return r.Transition(StatusActive)
}

// Complete finishes an active trip
func (r *Request) Complete(driverID uuid.UUID) error {
	if r.SelectedDriverID == nil || *r.SelectedDriverID != driverID {
		return errors.NewUnauthorizedError("only the selected driver can complete the trip")
	}
	return r.Transition(StatusCompleted)
}

// Cancel moves the ride to cancelled and records who and why
func (r *Request) Cancel(actor, reason string) error {
	if err := r.Transition(StatusCancelled); err != nil {
		return err
	}
	r.CancelActor = actor
	r.CancelReason = reason
	r.BiddingExpiresAt = nil
	return nil
}

// CheckInvariants verifies internal consistency; repositories call this
// before committing a mutation.
func (r *Request) CheckInvariants() error {
	hasDriver := r.SelectedDriverID != nil
	inMatchedStates := r.Status == StatusMatched || r.Status == StatusActive || r.Status == StatusCompleted
	if hasDriver != inMatchedStates {
		return fmt.Errorf("selected driver presence (%v) disagrees with status %s", hasDriver, r.Status)
	}
	if r.BiddingExpiresAt != nil && r.Status != StatusPending && r.Status != StatusBidding {
		return fmt.Errorf("bidding deadline set while status is %s", r.Status)
	}
	return nil
}

// Clone returns a deep copy of the request
func (r *Request) Clone() *Request {
	clone := *r
	if r.BiddingExpiresAt != nil {
		t := *r.BiddingExpiresAt
		clone.BiddingExpiresAt = &t
	}
	if r.SelectedDriverID != nil {
		d := *r.SelectedDriverID
		clone.SelectedDriverID = &d
	}
	if r.SpecialRequests != nil {
		clone.SpecialRequests = append([]string(nil), r.SpecialRequests...)
	}
	return &clone
}
