package bidding

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestWindowTimerFires(t *testing.T) {
	timer := NewWindowTimer()
	defer timer.Stop()

	fired := make(chan uuid.UUID, 1)
	rideID := uuid.New()
	timer.Schedule(rideID, 10*time.Millisecond, func(id uuid.UUID) {
		fired <- id
	})

	select {
	case id := <-fired:
		assert.Equal(t, rideID, id)
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
	assert.Equal(t, 0, timer.Active())
}

func TestWindowTimerCancelPreventsFire(t *testing.T) {
	timer := NewWindowTimer()
	defer timer.Stop()

	var fires int32
	rideID := uuid.New()
	timer.Schedule(rideID, 50*time.Millisecond, func(uuid.UUID) {
		atomic.AddInt32(&fires, 1)
	})

	assert.True(t, timer.Cancel(rideID))
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&fires))
	assert.False(t, timer.Cancel(rideID), "second cancel finds nothing")
}

func TestWindowTimerRescheduleReplaces(t *testing.T) {
	timer := NewWindowTimer()
	defer timer.Stop()

	var early, late int32
	rideID := uuid.New()
	timer.Schedule(rideID, 20*time.Millisecond, func(uuid.UUID) {
		atomic.AddInt32(&early, 1)
	})
	timer.Schedule(rideID, 60*time.Millisecond, func(uuid.UUID) {
		atomic.AddInt32(&late, 1)
	})

	assert.Equal(t, 1, timer.Active())
	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&early), "replaced timer must not fire")
	assert.Equal(t, int32(1), atomic.LoadInt32(&late))
}

func TestWindowTimerStopCancelsAll(t *testing.T) {
	timer := NewWindowTimer()

	var fires int32
	for i := 0; i < 5; i++ {
		timer.Schedule(uuid.New(), 50*time.Millisecond, func(uuid.UUID) {
			atomic.AddInt32(&fires, 1)
		})
	}
	assert.Equal(t, 5, timer.Active())

	timer.Stop()
	assert.Equal(t, 0, timer.Active())
	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, atomic.LoadInt32(&fires))
}
