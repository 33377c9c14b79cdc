package ride

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/errors"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/values"
)

func validPickup(t *testing.T) values.Location {
	t.Helper()
	loc, err := values.NewLocation(37.7749, -122.4194, "Market St")
	require.NoError(t, err)
	return loc
}

func validDropoff(t *testing.T) values.Location {
	t.Helper()
	loc, err := values.NewLocation(37.8044, -122.2712, "Broadway")
	require.NoError(t, err)
	return loc
}

func newTestRequest(t *testing.T) *Request {
	t.Helper()
	r, err := NewRequest(uuid.New(), validPickup(t), validDropoff(t), values.CategoryStandard)
	require.NoError(t, err)
	return r
}

func TestNewRequest(t *testing.T) {
	tests := []struct {
		name     string
		riderID  uuid.UUID
		pickup   values.Location
		dropoff  values.Location
		category values.Category
		wantCode string
	}{
		{
			name:     "valid request",
			riderID:  uuid.New(),
			pickup:   values.Location{Latitude: 37.7749, Longitude: -122.4194},
			dropoff:  values.Location{Latitude: 37.8044, Longitude: -122.2712},
			category: values.CategoryStandard,
		},
		{
			name:     "missing rider",
			riderID:  uuid.Nil,
			pickup:   values.Location{Latitude: 37.7749, Longitude: -122.4194},
			dropoff:  values.Location{Latitude: 37.8044, Longitude: -122.2712},
			category: values.CategoryStandard,
			wantCode: "MISSING_RIDER_ID",
		},
		{
			name:     "invalid pickup",
			riderID:  uuid.New(),
			pickup:   values.Location{Latitude: 99, Longitude: 0.5},
			dropoff:  values.Location{Latitude: 37.8044, Longitude: -122.2712},
			category: values.CategoryStandard,
			wantCode: "INVALID_PICKUP",
		},
		{
			name:     "invalid dropoff",
			riderID:  uuid.New(),
			pickup:   values.Location{Latitude: 37.7749, Longitude: -122.4194},
			dropoff:  values.Location{},
			category: values.CategoryStandard,
			wantCode: "INVALID_DROPOFF",
		},
		{
			name:     "invalid category",
			riderID:  uuid.New(),
			pickup:   values.Location{Latitude: 37.7749, Longitude: -122.4194},
			dropoff:  values.Location{Latitude: 37.8044, Longitude: -122.2712},
			category: values.Category("luxury"),
			wantCode: "INVALID_CATEGORY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRequest(tt.riderID, tt.pickup, tt.dropoff, tt.category)
			if tt.wantCode != "" {
				require.Error(t, err)
				appErr, ok := err.(*errors.AppError)
				require.True(t, ok)
				assert.Equal(t, tt.wantCode, appErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StatusRequesting, r.Status)
			assert.NotEqual(t, uuid.Nil, r.ID)
			assert.Nil(t, r.BiddingExpiresAt)
			assert.Nil(t, r.SelectedDriverID)
		})
	}
}

func TestStatusTransitionTable(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusRequesting, StatusPending, true},
		{StatusPending, StatusBidding, true},
		{StatusPending, StatusCancelled, true},
		{StatusBidding, StatusMatched, true},
		{StatusBidding, StatusCancelled, true},
		{StatusMatched, StatusActive, true},
		{StatusMatched, StatusCancelled, true},
		{StatusActive, StatusCompleted, true},
		{StatusActive, StatusCancelled, true},

		// skips and reversals
		{StatusRequesting, StatusBidding, false},
		{StatusRequesting, StatusMatched, false},
		{StatusPending, StatusMatched, false},
		{StatusPending, StatusActive, false},
		{StatusBidding, StatusPending, false},
		{StatusBidding, StatusActive, false},
		{StatusBidding, StatusCompleted, false},
		{StatusMatched, StatusBidding, false},
		{StatusMatched, StatusCompleted, false},
		{StatusActive, StatusMatched, false},

		// terminal states
		{StatusCompleted, StatusActive, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusBidding, false},
	}

	for _, tt := range tests {
		name := tt.from.String() + "_to_" + tt.to.String()
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTransition_IllegalLeavesStateUnchanged(t *testing.T) {
	r := newTestRequest(t)

	err := r.Transition(StatusMatched)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeIllegalTransition))
	assert.Equal(t, StatusRequesting, r.Status)
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusBidding.IsTerminal())
	assert.False(t, StatusMatched.IsTerminal())
}

func TestBiddingWindow(t *testing.T) {
	r := newTestRequest(t)

	err := r.BeginWindow(time.Now().Add(time.Minute))
	require.Error(t, err, "window must not open before pending")

	require.NoError(t, r.Transition(StatusPending))
	require.NoError(t, r.BeginWindow(time.Now().Add(time.Minute)))
	assert.True(t, r.WindowOpen(time.Now()))

	require.NoError(t, r.OpenBidding())
	assert.Equal(t, StatusBidding, r.Status)
	assert.True(t, r.WindowOpen(time.Now()))

	require.NoError(t, r.ExtendWindow(time.Now().Add(2*time.Minute)))
	assert.True(t, r.WindowOpen(time.Now().Add(90*time.Second)))

	assert.False(t, r.WindowOpen(time.Now().Add(3*time.Minute)), "window closed after deadline")
}

func TestMatchClearsDeadlineAndSetsDriver(t *testing.T) {
	r := newTestRequest(t)
	require.NoError(t, r.Transition(StatusPending))
	require.NoError(t, r.BeginWindow(time.Now().Add(time.Minute)))
	require.NoError(t, r.OpenBidding())

	driverID := uuid.New()
	require.NoError(t, r.Match(driverID))

	assert.Equal(t, StatusMatched, r.Status)
	require.NotNil(t, r.SelectedDriverID)
	assert.Equal(t, driverID, *r.SelectedDriverID)
	assert.Nil(t, r.BiddingExpiresAt)
	assert.NoError(t, r.CheckInvariants())
}

func TestStartAndComplete_DriverValidation(t *testing.T) {
	r := newTestRequest(t)
	require.NoError(t, r.Transition(StatusPending))
	require.NoError(t, r.BeginWindow(time.Now().Add(time.Minute)))
	require.NoError(t, r.OpenBidding())

	winner := uuid.New()
	require.NoError(t, r.Match(winner))

	err := r.Start(uuid.New())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeUnauthorized))
	assert.Equal(t, StatusMatched, r.Status)

	require.NoError(t, r.Start(winner))
	assert.Equal(t, StatusActive, r.Status)

	err = r.Complete(uuid.New())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeUnauthorized))

	require.NoError(t, r.Complete(winner))
	assert.Equal(t, StatusCompleted, r.Status)
	assert.NoError(t, r.CheckInvariants())
}

func TestCancelRecordsActorAndReason(t *testing.T) {
	r := newTestRequest(t)
	require.NoError(t, r.Transition(StatusPending))
	require.NoError(t, r.BeginWindow(time.Now().Add(time.Minute)))

	require.NoError(t, r.Cancel("rider", ReasonRiderCancelled))
	assert.Equal(t, StatusCancelled, r.Status)
	assert.Equal(t, "rider", r.CancelActor)
	assert.Equal(t, ReasonRiderCancelled, r.CancelReason)
	assert.Nil(t, r.BiddingExpiresAt)
	assert.NoError(t, r.CheckInvariants())

	err := r.Cancel("rider", ReasonRiderCancelled)
	require.Error(t, err, "cancel is not idempotent at the domain level")
}

func TestCheckInvariants_DetectsDisagreement(t *testing.T) {
	r := newTestRequest(t)
	assert.NoError(t, r.CheckInvariants())

	d := uuid.New()
	r.SelectedDriverID = &d
	assert.Error(t, r.CheckInvariants(), "driver set while not matched")

	r.SelectedDriverID = nil
	r.Status = StatusMatched
	assert.Error(t, r.CheckInvariants(), "matched without driver")

	r.Status = StatusCompleted
	deadline := time.Now().Add(time.Minute)
	r.SelectedDriverID = &d
	r.BiddingExpiresAt = &deadline
	assert.Error(t, r.CheckInvariants(), "deadline in terminal state")
}

func TestCloneIsIndependent(t *testing.T) {
	r := newTestRequest(t)
	require.NoError(t, r.Transition(StatusPending))
	require.NoError(t, r.BeginWindow(time.Now().Add(time.Minute)))
	r.SpecialRequests = []string{"child_seat"}

	clone := r.Clone()
	clone.Status = StatusCancelled
	*clone.BiddingExpiresAt = time.Now().Add(time.Hour)
	clone.SpecialRequests[0] = "quiet_ride"

	assert.Equal(t, StatusPending, r.Status)
	assert.True(t, r.BiddingExpiresAt.Before(time.Now().Add(2*time.Minute)))
	assert.Equal(t, "child_seat", r.SpecialRequests[0])
}

func TestParseStatusRoundTrip(t *testing.T) {
	for _, s := range []Status{StatusRequesting, StatusPending, StatusBidding, StatusMatched, StatusActive, StatusCompleted, StatusCancelled} {
		parsed, err := ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseStatus("warping")
	assert.Error(t, err)

	var s Status
	assert.Error(t, s.UnmarshalText([]byte("warping")))
	require.NoError(t, s.UnmarshalText([]byte("matched")))
	assert.Equal(t, StatusMatched, s)
}
