package fixtures

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/ride"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/values"
)

// RideBuilder builds test ride requests
type RideBuilder struct {
	riderID  uuid.UUID
	pickup   values.Location
	dropoff  values.Location
	category values.Category
	status   ride.Status
	window   time.Duration
	fare     float64
}

// NewRideBuilder creates a builder with sane defaults
func NewRideBuilder() *RideBuilder {
	return &RideBuilder{
		riderID:  uuid.New(),
		pickup:   values.Location{Latitude: 37.7749, Longitude: -122.4194, Address: "Market St"},
		dropoff:  values.Location{Latitude: 37.8044, Longitude: -122.2712, Address: "Broadway"},
		category: values.CategoryStandard,
		status:   ride.StatusRequesting,
		window:   2 * time.Minute,
		fare:     14.50,
	}
}

func (b *RideBuilder) WithRider(id uuid.UUID) *RideBuilder {
	b.riderID = id
	return b
}

func (b *RideBuilder) WithCategory(c values.Category) *RideBuilder {
	b.category = c
	return b
}

func (b *RideBuilder) WithStatus(s ride.Status) *RideBuilder {
	b.status = s
	return b
}

func (b *RideBuilder) WithWindow(d time.Duration) *RideBuilder {
	b.window = d
	return b
}

func (b *RideBuilder) WithFare(amount float64) *RideBuilder {
	b.fare = amount
	return b
}

// Build creates the ride and walks it to the requested status
func (b *RideBuilder) Build(t *testing.T) *ride.Request {
	t.Helper()

	r, err := ride.NewRequest(b.riderID, b.pickup, b.dropoff, b.category)
	require.NoError(t, err)
	r.EstimatedFare = values.MustNewMoneyFromFloat(b.fare, values.USD)
	r.FareVersion = "test"

	if b.status == ride.StatusRequesting {
		return r
	}

	require.NoError(t, r.Transition(ride.StatusPending))
	require.NoError(t, r.BeginWindow(time.Now().Add(b.window)))
	if b.status == ride.StatusPending {
		return r
	}

	if b.status == ride.StatusCancelled {
		require.NoError(t, r.Cancel("rider", ride.ReasonRiderCancelled))
		return r
	}

	require.NoError(t, r.OpenBidding())
	if b.status == ride.StatusBidding {
		return r
	}

	driverID := uuid.New()
	require.NoError(t, r.Match(driverID))
	if b.status == ride.StatusMatched {
		return r
	}

	require.NoError(t, r.Start(driverID))
	if b.status == ride.StatusActive {
		return r
	}

	require.NoError(t, r.Complete(driverID))
	require.Equal(t, b.status, r.Status, "unsupported target status")
	return r
}
