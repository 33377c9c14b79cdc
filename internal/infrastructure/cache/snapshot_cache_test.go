package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/bid"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/ride"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/values"
)

func newTestCache(t *testing.T) (*SnapshotCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSnapshotCacheWithClient(client, time.Hour, nil), mr
}

func testSnapshot(t *testing.T) *ride.Snapshot {
	t.Helper()
	pickup, err := values.NewLocation(37.7749, -122.4194, "Market St")
	require.NoError(t, err)
	dropoff, err := values.NewLocation(37.8044, -122.2712, "Broadway")
	require.NoError(t, err)

	r, err := ride.NewRequest(uuid.New(), pickup, dropoff, values.CategoryStandard)
	require.NoError(t, err)
	r.EstimatedFare = values.MustNewMoneyFromFloat(14.75, values.USD)

	b, err := bid.NewBid(r.ID, uuid.New(), values.MustNewMoneyFromFloat(12.00, values.USD), 5)
	require.NoError(t, err)

	return ride.NewSnapshot(r, []*bid.Bid{b})
}

func TestSnapshotCachePutGet(t *testing.T) {
	c, _ := newTestCache(t)
	snap := testSnapshot(t)

	require.NoError(t, c.Put(context.Background(), snap))

	got, err := c.Get(context.Background(), snap.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.Request.ID, got.Request.ID)
	assert.Equal(t, snap.Request.Status, got.Request.Status)
	assert.True(t, snap.Request.EstimatedFare.Equal(got.Request.EstimatedFare))
	require.Len(t, got.Bids, 1)
	assert.Equal(t, snap.Bids[0].ID, got.Bids[0].ID)
	assert.True(t, snap.Bids[0].Amount.Equal(got.Bids[0].Amount))
}

func TestSnapshotCacheMiss(t *testing.T) {
	c, _ := newTestCache(t)

	_, err := c.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestSnapshotCacheReplaceAndInvalidate(t *testing.T) {
	c, _ := newTestCache(t)
	snap := testSnapshot(t)

	require.NoError(t, c.Put(context.Background(), snap))

	require.NoError(t, snap.Request.Transition(ride.StatusPending))
	updated := ride.NewSnapshot(snap.Request, nil)
	require.NoError(t, c.Put(context.Background(), updated))

	got, err := c.Get(context.Background(), snap.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, ride.StatusPending, got.Request.Status)
	assert.Empty(t, got.Bids)

	require.NoError(t, c.Invalidate(context.Background(), snap.Request.ID))
	_, err = c.Get(context.Background(), snap.Request.ID)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestSnapshotCacheExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewSnapshotCacheWithClient(client, time.Minute, nil)
	snap := testSnapshot(t)

	require.NoError(t, c.Put(context.Background(), snap))

	mr.FastForward(2 * time.Minute)

	_, err := c.Get(context.Background(), snap.Request.ID)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}
