package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/bid"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/ride"
	"github.com/suntan-superman/rydeiq-backend/internal/service/bidding"
)

// MemoryStore is an in-process implementation of the ride and bid
// repositories. A single mutex per store stands in for the durable store's
// per-document atomic write: every mutation to a ride happens under it, so
// CommitSelection is a true compare-and-set. Used by tests and local dev.
type MemoryStore struct {
	mu     sync.Mutex
	rides  map[uuid.UUID]*ride.Request
	bids   map[uuid.UUID][]*bid.Bid // rideID -> bids in submission order
	frozen map[uuid.UUID]bool
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rides:  make(map[uuid.UUID]*ride.Request),
		bids:   make(map[uuid.UUID][]*bid.Bid),
		frozen: make(map[uuid.UUID]bool),
	}
}

var (
	_ bidding.RideRepository = (*MemoryStore)(nil)
	_ bidding.BidRepository  = (*MemoryStore)(nil)
)

// Create persists a new ride request
func (s *MemoryStore) Create(_ context.Context, r *ride.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rides[r.ID] = r.Clone()
	return nil
}

// GetByID retrieves a ride request
func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*ride.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rides[id]
	if !ok {
		return nil, bidding.ErrNotFound
	}
	return r.Clone(), nil
}

// Transition applies a conditional state change under the store lock
func (s *MemoryStore) Transition(_ context.Context, id uuid.UUID, from ride.Status, apply func(*ride.Request) error) (*ride.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.rides[id]
	if !ok {
		return nil, bidding.ErrNotFound
	}
	if stored.Status != from {
		return nil, bidding.ErrStatusConflict
	}

	next := stored.Clone()
	if err := apply(next); err != nil {
		return nil, err
	}
	if err := next.CheckInvariants(); err != nil {
		return nil, err
	}

	s.rides[id] = next
	return next.Clone(), nil
}

// CommitSelection is the atomic compare-and-set: it succeeds only while the
// stored row is still BIDDING with no winner.
func (s *MemoryStore) CommitSelection(_ context.Context, id, driverID uuid.UUID) (*ride.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.rides[id]
	if !ok {
		return nil, bidding.ErrNotFound
	}
	if stored.Status != ride.StatusBidding || stored.SelectedDriverID != nil {
		return nil, bidding.ErrSelectionConflict
	}

	next := stored.Clone()
	if err := next.Match(driverID); err != nil {
		return nil, bidding.ErrSelectionConflict
	}

	s.rides[id] = next
	return next.Clone(), nil
}

// Upsert inserts or replaces the driver's bid and returns the current list
func (s *MemoryStore) Upsert(_ context.Context, b *bid.Bid) ([]*bid.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen[b.RideID] {
		return nil, bidding.ErrLedgerFrozen
	}

	list := s.bids[b.RideID]
	replaced := false
	for i, existing := range list {
		if existing.DriverID == b.DriverID {
			list[i] = b.Clone()
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, b.Clone())
	}
	s.bids[b.RideID] = list

	return s.listLocked(b.RideID), nil
}

// ListByRide returns all bids for a request in submission order
func (s *MemoryStore) ListByRide(_ context.Context, rideID uuid.UUID) ([]*bid.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(rideID), nil
}

// GetActive returns the driver's current bid
func (s *MemoryStore) GetActive(_ context.Context, rideID, driverID uuid.UUID) (*bid.Bid, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.bids[rideID] {
		if b.DriverID == driverID {
			return b.Clone(), nil
		}
	}
	return nil, bidding.ErrNotFound
}

// Freeze marks the ride's ledger read-only
func (s *MemoryStore) Freeze(_ context.Context, rideID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frozen[rideID] = true
	for _, b := range s.bids[rideID] {
		b.Frozen = true
	}
	return nil
}

func (s *MemoryStore) listLocked(rideID uuid.UUID) []*bid.Bid {
	list := s.bids[rideID]
	out := make([]*bid.Bid, len(list))
	for i, b := range list {
		out[i] = b.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out
}
