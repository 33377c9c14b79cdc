package repository

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/ride"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/values"
	"github.com/suntan-superman/rydeiq-backend/internal/service/bidding"
)

// stubRow feeds canned column values into scanRide without a database.
type stubRow struct {
	vals []any
	err  error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		if r.vals[i] == nil {
			continue
		}
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.vals[i]))
	}
	return nil
}

// rideRowValues returns column values in rideColumns order for a ride in the
// bidding state.
func rideRowValues(expires time.Time, now time.Time) []any {
	return []any{
		uuid.New(), uuid.New(),
		37.7749, -122.4194, "Market St",
		37.8044, -122.2712, "Broadway",
		"standard", []string(nil), "card",
		"bidding", values.MustNewMoneyFromFloat(14.30, values.USD), "USD", "2025-06-01",
		&expires, (*uuid.UUID)(nil), "", "",
		now, now,
	}
}

func TestScanRide(t *testing.T) {
	now := time.Now()
	expires := now.Add(2 * time.Minute)

	got, err := scanRide(stubRow{vals: rideRowValues(expires, now)})
	require.NoError(t, err)

	assert.Equal(t, ride.StatusBidding, got.Status)
	assert.Equal(t, values.CategoryStandard, got.Category)
	assert.True(t, got.EstimatedFare.Equal(values.MustNewMoneyFromFloat(14.30, values.USD)))
	require.NotNil(t, got.BiddingExpiresAt)
	assert.True(t, got.BiddingExpiresAt.Equal(expires))
	assert.Nil(t, got.SelectedDriverID)
}

func TestScanRideUnknownStatus(t *testing.T) {
	now := time.Now()
	vals := rideRowValues(now.Add(time.Minute), now)
	vals[11] = "teleporting"

	_, err := scanRide(stubRow{vals: vals})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stored ride status")
}

func TestScanRideNoRows(t *testing.T) {
	_, err := scanRide(stubRow{err: pgx.ErrNoRows})
	assert.ErrorIs(t, err, bidding.ErrNotFound)
}
