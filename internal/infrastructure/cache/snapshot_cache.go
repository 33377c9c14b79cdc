package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/ride"
	"github.com/suntan-superman/rydeiq-backend/internal/infrastructure/config"
)

// ErrSnapshotNotFound is returned when no cached snapshot exists for a ride
var ErrSnapshotNotFound = errors.New("snapshot not cached")

// SnapshotCache keeps the latest committed snapshot per ride in Redis so
// read traffic and late websocket subscribers do not hit the primary store.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewSnapshotCache connects to Redis and verifies the connection
func NewSnapshotCache(cfg *config.RedisConfig, logger *zap.Logger) (*SnapshotCache, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.URL,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info("snapshot cache initialized",
		zap.String("addr", cfg.URL),
		zap.Duration("ttl", cfg.SnapshotTTL))

	return &SnapshotCache{client: client, ttl: cfg.SnapshotTTL, logger: logger}, nil
}

// NewSnapshotCacheWithClient wraps an existing client, used by tests
func NewSnapshotCacheWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *SnapshotCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotCache{client: client, ttl: ttl, logger: logger}
}

func snapshotKey(rideID uuid.UUID) string {
	return "ride:snapshot:" + rideID.String()
}

// Put stores the snapshot, replacing any earlier one for the ride
func (c *SnapshotCache) Put(ctx context.Context, snap *ride.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	if err := c.client.Set(ctx, snapshotKey(snap.Request.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("storing snapshot: %w", err)
	}
	return nil
}

// Get returns the cached snapshot or ErrSnapshotNotFound
func (c *SnapshotCache) Get(ctx context.Context, rideID uuid.UUID) (*ride.Snapshot, error) {
	data, err := c.client.Get(ctx, snapshotKey(rideID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	var snap ride.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &snap, nil
}

// Invalidate removes the cached snapshot for a ride
func (c *SnapshotCache) Invalidate(ctx context.Context, rideID uuid.UUID) error {
	return c.client.Del(ctx, snapshotKey(rideID)).Err()
}

// Close shuts down the Redis client
func (c *SnapshotCache) Close() error {
	return c.client.Close()
}
