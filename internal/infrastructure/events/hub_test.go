package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/ride"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/values"
)

func hubSnapshot(t *testing.T, status ride.Status) *ride.Snapshot {
	t.Helper()
	pickup, err := values.NewLocation(37.7749, -122.4194, "")
	require.NoError(t, err)
	dropoff, err := values.NewLocation(37.8044, -122.2712, "")
	require.NoError(t, err)
	r, err := ride.NewRequest(uuid.New(), pickup, dropoff, values.CategoryStandard)
	require.NoError(t, err)
	r.Status = status
	return ride.NewSnapshot(r, nil)
}

func recv(t *testing.T, ch <-chan *ride.Snapshot) *ride.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "channel closed early")
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestHubDeliversCurrentThenUpdates(t *testing.T) {
	h := NewHub(nil)
	defer h.Close()

	current := hubSnapshot(t, ride.StatusPending)
	sub := h.Subscribe(current.Request.ID, current)
	defer sub.Close()

	got := recv(t, sub.Updates())
	assert.Equal(t, ride.StatusPending, got.Request.Status)

	update := hubSnapshot(t, ride.StatusBidding)
	update.Request.ID = current.Request.ID
	h.Publish(context.Background(), update)

	got = recv(t, sub.Updates())
	assert.Equal(t, ride.StatusBidding, got.Request.Status)
}

func TestHubIsolatesRides(t *testing.T) {
	h := NewHub(nil)
	defer h.Close()

	a := hubSnapshot(t, ride.StatusPending)
	b := hubSnapshot(t, ride.StatusPending)

	subA := h.Subscribe(a.Request.ID, nil)
	defer subA.Close()

	h.Publish(context.Background(), b)

	select {
	case <-subA.Updates():
		t.Fatal("received snapshot for a different ride")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubSlowSubscriberConvergesOnLatest(t *testing.T) {
	h := NewHub(nil)
	defer h.Close()

	first := hubSnapshot(t, ride.StatusPending)
	sub := h.Subscribe(first.Request.ID, nil)
	defer sub.Close()

	// Flood well past the channel buffer without draining.
	for i := 0; i < subscriberBuffer*3; i++ {
		status := ride.StatusBidding
		if i == subscriberBuffer*3-1 {
			status = ride.StatusMatched
		}
		snap := hubSnapshot(t, status)
		snap.Request.ID = first.Request.ID
		h.Publish(context.Background(), snap)
	}

	var last *ride.Snapshot
	for {
		select {
		case snap := <-sub.Updates():
			last = snap
			continue
		case <-time.After(50 * time.Millisecond):
		}
		break
	}
	require.NotNil(t, last)
	assert.Equal(t, ride.StatusMatched, last.Request.Status, "latest snapshot must survive drops")
}

func TestHubCloseUnblocksSubscribers(t *testing.T) {
	h := NewHub(nil)
	snap := hubSnapshot(t, ride.StatusPending)
	sub := h.Subscribe(snap.Request.ID, nil)

	h.Close()

	select {
	case _, ok := <-sub.Updates():
		assert.False(t, ok, "channel must be closed")
	case <-time.After(time.Second):
		t.Fatal("subscriber not released on close")
	}
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	h := NewHub(nil)
	defer h.Close()

	sub := h.Subscribe(uuid.New(), nil)
	sub.Close()
	sub.Close()

	// Publishing after close must not panic.
	snap := hubSnapshot(t, ride.StatusPending)
	h.Publish(context.Background(), snap)
}
