package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/ride"
	"github.com/suntan-superman/rydeiq-backend/internal/service/bidding"
)

const subscriberBuffer = 16

// Hub is the in-process snapshot fan-out. Subscribers get the current
// snapshot first, then every committed update in order. Slow subscribers
// drop intermediate snapshots rather than block the publisher; the latest
// snapshot always gets through because each one is complete state.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[*subscription]struct{}
	closed bool
	logger *slog.Logger
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[uuid.UUID]map[*subscription]struct{}),
		logger: logger,
	}
}

type subscription struct {
	hub    *Hub
	rideID uuid.UUID
	ch     chan *ride.Snapshot
	once   sync.Once

	mu     sync.Mutex
	closed bool
}

func (s *subscription) Updates() <-chan *ride.Snapshot {
	return s.ch
}

func (s *subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
	})
}

// deliver pushes the snapshot without blocking. When the channel is full the
// oldest buffered snapshot is discarded first so the subscriber converges on
// the newest state.
func (s *subscription) deliver(snap *ride.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- snap:
			return
		default:
			select {
			case <-s.ch:
			default:
			}
		}
	}
}

// Publish fans the snapshot out to all subscribers of its ride
func (h *Hub) Publish(_ context.Context, snap *ride.Snapshot) {
	h.mu.RLock()
	targets := make([]*subscription, 0, len(h.subs[snap.Request.ID]))
	for s := range h.subs[snap.Request.ID] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		s.deliver(snap)
	}
}

// Subscribe registers for one ride's updates; current is delivered first
func (h *Hub) Subscribe(rideID uuid.UUID, current *ride.Snapshot) bidding.Subscription {
	s := &subscription{
		hub:    h,
		rideID: rideID,
		ch:     make(chan *ride.Snapshot, subscriberBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		s.Close()
		return s
	}
	if h.subs[rideID] == nil {
		h.subs[rideID] = make(map[*subscription]struct{})
	}
	h.subs[rideID][s] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("subscriber attached", "ride_id", rideID)

	if current != nil {
		s.deliver(current)
	}
	return s
}

func (h *Hub) remove(s *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[s.rideID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, s.rideID)
		}
	}
}

// Close shuts the hub down and closes all subscriber channels
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	var all []*subscription
	for _, set := range h.subs {
		for s := range set {
			all = append(all, s)
		}
	}
	h.subs = make(map[uuid.UUID]map[*subscription]struct{})
	h.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}
