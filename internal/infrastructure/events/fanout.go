package events

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/ride"
	"github.com/suntan-superman/rydeiq-backend/internal/infrastructure/cache"
	"github.com/suntan-superman/rydeiq-backend/internal/service/bidding"
)

// Sink receives every committed snapshot. Sinks must not block; slow
// transports buffer or drop internally.
type Sink interface {
	Publish(ctx context.Context, snap *ride.Snapshot)
}

// Fanout is the composite notifier: the hub serves live subscriptions while
// additional sinks (snapshot cache, Kafka) observe every publish.
type Fanout struct {
	hub   *Hub
	sinks []Sink
}

// NewFanout builds a notifier around hub with optional extra sinks
func NewFanout(hub *Hub, sinks ...Sink) *Fanout {
	return &Fanout{hub: hub, sinks: sinks}
}

// Publish delivers the snapshot to the hub and all sinks
func (f *Fanout) Publish(ctx context.Context, snap *ride.Snapshot) {
	f.hub.Publish(ctx, snap)
	for _, s := range f.sinks {
		s.Publish(ctx, snap)
	}
}

// Subscribe delegates to the hub
func (f *Fanout) Subscribe(rideID uuid.UUID, current *ride.Snapshot) bidding.Subscription {
	return f.hub.Subscribe(rideID, current)
}

// snapshotSource is implemented by sinks that can serve the latest committed
// snapshot back to readers.
type snapshotSource interface {
	Latest(ctx context.Context, rideID uuid.UUID) (*ride.Snapshot, error)
}

// Latest serves the newest committed snapshot from the first sink that can
// answer reads. Returns ErrSnapshotNotFound when no caching sink is
// configured so callers fall through to the primary store.
func (f *Fanout) Latest(ctx context.Context, rideID uuid.UUID) (*ride.Snapshot, error) {
	for _, s := range f.sinks {
		if src, ok := s.(snapshotSource); ok {
			return src.Latest(ctx, rideID)
		}
	}
	return nil, cache.ErrSnapshotNotFound
}

// CacheSink adapts the snapshot cache to the Sink interface
type CacheSink struct {
	cache  *cache.SnapshotCache
	logger *zap.Logger
}

// NewCacheSink wraps a snapshot cache
func NewCacheSink(c *cache.SnapshotCache, logger *zap.Logger) *CacheSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheSink{cache: c, logger: logger}
}

// Publish stores the snapshot, logging failures without propagating them.
// Terminal rides are evicted instead: no more live reads are coming and the
// primary store remains authoritative for history.
func (s *CacheSink) Publish(ctx context.Context, snap *ride.Snapshot) {
	if snap.Request.Status.IsTerminal() {
		if err := s.cache.Invalidate(ctx, snap.Request.ID); err != nil {
			s.logger.Error("evicting snapshot failed",
				zap.String("ride_id", snap.Request.ID.String()), zap.Error(err))
		}
		return
	}
	if err := s.cache.Put(ctx, snap); err != nil {
		s.logger.Error("caching snapshot failed",
			zap.String("ride_id", snap.Request.ID.String()), zap.Error(err))
	}
}

// Latest returns the cached snapshot for the ride
func (s *CacheSink) Latest(ctx context.Context, rideID uuid.UUID) (*ride.Snapshot, error) {
	return s.cache.Get(ctx, rideID)
}
