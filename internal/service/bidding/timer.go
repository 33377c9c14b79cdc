package bidding

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// WindowTimer tracks one expiry timer per ride. Scheduling for a ride that
// already has a timer replaces it.
type WindowTimer struct {
	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
}

// NewWindowTimer creates an empty timer registry
func NewWindowTimer() *WindowTimer {
	return &WindowTimer{timers: make(map[uuid.UUID]*time.Timer)}
}

// Schedule arms fn to run after d for the given ride
func (w *WindowTimer) Schedule(rideID uuid.UUID, d time.Duration, fn func(uuid.UUID)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if existing, ok := w.timers[rideID]; ok {
		existing.Stop()
	}

	w.timers[rideID] = time.AfterFunc(d, func() {
		w.mu.Lock()
		delete(w.timers, rideID)
		w.mu.Unlock()
		fn(rideID)
	})
}

// Cancel stops the ride's timer. Returns false when the timer already fired
// or was never scheduled.
func (w *WindowTimer) Cancel(rideID uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	t, ok := w.timers[rideID]
	if !ok {
		return false
	}
	delete(w.timers, rideID)
	return t.Stop()
}

// Active returns the number of armed timers
func (w *WindowTimer) Active() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.timers)
}

// Stop cancels all timers
func (w *WindowTimer) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, t := range w.timers {
		t.Stop()
		delete(w.timers, id)
	}
}
