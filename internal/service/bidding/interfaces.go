package bidding

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/bid"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/ride"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/values"
)

// Service orchestrates the ride request lifecycle from quote to completion.
type Service interface {
	RequestRide(ctx context.Context, input RequestRideInput) (*ride.Snapshot, error)
	SubmitBid(ctx context.Context, input SubmitBidInput) (*ride.Snapshot, error)
	SelectDriver(ctx context.Context, rideID, driverID, actorID uuid.UUID) (*ride.Snapshot, error)
	StartTrip(ctx context.Context, rideID, driverID uuid.UUID) (*ride.Snapshot, error)
	CompleteTrip(ctx context.Context, rideID, driverID uuid.UUID) (*ride.Snapshot, error)
	Cancel(ctx context.Context, rideID, actorID uuid.UUID) (*ride.Snapshot, error)
	GetRide(ctx context.Context, rideID uuid.UUID) (*ride.Snapshot, error)
	ListBids(ctx context.Context, rideID uuid.UUID, key bid.SortKey) ([]*bid.Bid, error)
	Subscribe(ctx context.Context, rideID uuid.UUID) (Subscription, error)
	// Close stops all pending window timers; in-flight operations finish
	Close()
}

// Store sentinels. Repositories return these; the service maps them to
// domain errors with caller-facing context.
var (
	ErrNotFound          = stderrors.New("not found")
	ErrStatusConflict    = stderrors.New("status conflict")
	ErrSelectionConflict = stderrors.New("selection conflict")
	ErrLedgerFrozen      = stderrors.New("bid ledger frozen")
)

// RideRepository persists ride requests with atomic per-ride updates
type RideRepository interface {
	Create(ctx context.Context, r *ride.Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*ride.Request, error)
	// Transition atomically applies a mutation to the ride iff its current
	// status equals from. Returns ErrStatusConflict otherwise.
	Transition(ctx context.Context, id uuid.UUID, from ride.Status, apply func(*ride.Request) error) (*ride.Request, error)
	// CommitSelection atomically records the winning driver iff the ride is
	// still in bidding with no winner. Returns ErrSelectionConflict when the
	// compare-and-set loses.
	CommitSelection(ctx context.Context, id uuid.UUID, driverID uuid.UUID) (*ride.Request, error)
}

// BidRepository persists the bid ledger for each ride
type BidRepository interface {
	// Upsert inserts the bid, replacing the driver's earlier bid on the same
	// ride if present. Returns the full ledger after the write, or
	// ErrLedgerFrozen once selection has closed the ledger.
	Upsert(ctx context.Context, b *bid.Bid) ([]*bid.Bid, error)
	ListByRide(ctx context.Context, rideID uuid.UUID) ([]*bid.Bid, error)
	GetActive(ctx context.Context, rideID, driverID uuid.UUID) (*bid.Bid, error)
	Freeze(ctx context.Context, rideID uuid.UUID) error
}

// Subscription is a live feed of ride snapshots
type Subscription interface {
	Updates() <-chan *ride.Snapshot
	Close()
}

// Notifier fans committed snapshots out to subscribers
type Notifier interface {
	Publish(ctx context.Context, snap *ride.Snapshot)
	// Subscribe registers for updates on one ride; current is delivered
	// first so late subscribers converge immediately.
	Subscribe(rideID uuid.UUID, current *ride.Snapshot) Subscription
}

// SnapshotReader is optionally implemented by notifiers whose sinks can serve
// the latest committed snapshot back to readers. Reads fall through to the
// repositories when the notifier cannot answer.
type SnapshotReader interface {
	Latest(ctx context.Context, rideID uuid.UUID) (*ride.Snapshot, error)
}

// PaymentProcessor places a hold on the agreed fare after matching
type PaymentProcessor interface {
	HoldFare(ctx context.Context, rideID, driverID uuid.UUID, amount values.Money) (holdRef string, err error)
}

// DriverDirectory resolves driver profile data captured onto bids
type DriverDirectory interface {
	DriverProfile(ctx context.Context, driverID uuid.UUID) (*DriverProfile, error)
}

// DriverProfile is the subset of driver data snapshotted onto a bid
type DriverProfile struct {
	Rating  float64
	Vehicle bid.Vehicle
}

// MetricsCollector records business metrics
type MetricsCollector interface {
	RecordRideRequested(category string)
	RecordBidSubmitted(rideID uuid.UUID)
	RecordSelection(outcome string)
	RecordWindowExpiry(outcome string)
}

// RequestRideInput carries rider-supplied fields for a new ride request
type RequestRideInput struct {
	RiderID         uuid.UUID
	Pickup          values.Location
	Dropoff         values.Location
	Category        values.Category
	SpecialRequests []string
	PaymentMethod   string
}

// SubmitBidInput carries driver-supplied fields for a bid
type SubmitBidInput struct {
	RideID      uuid.UUID
	DriverID    uuid.UUID
	Amount      values.Money
	ETAMinutes  int
	Note        string
	ServiceTags []string
}

// WindowPolicy controls the bidding window timing
type WindowPolicy struct {
	Window     time.Duration
	AutoExtend bool
	Extension  time.Duration
	MaxExtends int
}

// DefaultWindowPolicy returns the standard two-minute window without
// automatic extension
func DefaultWindowPolicy() WindowPolicy {
	return WindowPolicy{
		Window:     2 * time.Minute,
		AutoExtend: false,
		Extension:  time.Minute,
		MaxExtends: 3,
	}
}
