package bid

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/errors"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/values"
)

func TestNewBid(t *testing.T) {
	rideID := uuid.New()
	driverID := uuid.New()

	tests := []struct {
		name     string
		rideID   uuid.UUID
		driverID uuid.UUID
		amount   values.Money
		eta      int
		wantCode string
	}{
		{
			name:     "valid bid",
			rideID:   rideID,
			driverID: driverID,
			amount:   values.MustNewMoneyFromFloat(14.25, values.USD),
			eta:      6,
		},
		{
			name:     "missing ride",
			rideID:   uuid.Nil,
			driverID: driverID,
			amount:   values.MustNewMoneyFromFloat(14.25, values.USD),
			eta:      6,
			wantCode: "MISSING_RIDE_ID",
		},
		{
			name:     "missing driver",
			rideID:   rideID,
			driverID: uuid.Nil,
			amount:   values.MustNewMoneyFromFloat(14.25, values.USD),
			eta:      6,
			wantCode: "MISSING_DRIVER_ID",
		},
		{
			name:     "zero amount",
			rideID:   rideID,
			driverID: driverID,
			amount:   values.Zero(values.USD),
			eta:      6,
			wantCode: "INVALID_BID_AMOUNT",
		},
		{
			name:     "negative amount",
			rideID:   rideID,
			driverID: driverID,
			amount:   values.MustNewMoneyFromFloat(-1.00, values.USD),
			eta:      6,
			wantCode: "INVALID_BID_AMOUNT",
		},
		{
			name:     "negative eta",
			rideID:   rideID,
			driverID: driverID,
			amount:   values.MustNewMoneyFromFloat(14.25, values.USD),
			eta:      -1,
			wantCode: "INVALID_BID_ETA",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBid(tt.rideID, tt.driverID, tt.amount, tt.eta)
			if tt.wantCode != "" {
				require.Error(t, err)
				appErr, ok := err.(*errors.AppError)
				require.True(t, ok)
				assert.Equal(t, tt.wantCode, appErr.Code)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, b.ID)
			assert.False(t, b.Frozen)
			assert.WithinDuration(t, time.Now(), b.SubmittedAt, time.Second)
		})
	}
}

func makeBid(t *testing.T, amount float64, rating float64, eta int, submitted time.Time) *Bid {
	t.Helper()
	b, err := NewBid(uuid.New(), uuid.New(), values.MustNewMoneyFromFloat(amount, values.USD), eta)
	require.NoError(t, err)
	b.DriverRating = rating
	b.SubmittedAt = submitted
	return b
}

func TestSort(t *testing.T) {
	base := time.Now()
	cheapLate := makeBid(t, 10.00, 4.2, 12, base.Add(2*time.Second))
	midFast := makeBid(t, 12.00, 4.9, 3, base.Add(time.Second))
	priceyTop := makeBid(t, 15.00, 5.0, 8, base)

	tests := []struct {
		name string
		key  SortKey
		want []*Bid
	}{
		{
			name: "price ascending",
			key:  SortPriceAsc,
			want: []*Bid{cheapLate, midFast, priceyTop},
		},
		{
			name: "rating descending",
			key:  SortRatingDesc,
			want: []*Bid{priceyTop, midFast, cheapLate},
		},
		{
			name: "eta ascending",
			key:  SortETAAsc,
			want: []*Bid{midFast, priceyTop, cheapLate},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bids := []*Bid{priceyTop, cheapLate, midFast}
			Sort(bids, tt.key)
			require.Len(t, bids, 3)
			for i, want := range tt.want {
				assert.Equal(t, want.ID, bids[i].ID, "position %d", i)
			}
		})
	}
}

func TestSortTieBreaksByEarliestSubmission(t *testing.T) {
	base := time.Now()
	second := makeBid(t, 10.00, 4.5, 5, base.Add(time.Second))
	first := makeBid(t, 10.00, 4.5, 5, base)

	bids := []*Bid{second, first}
	Sort(bids, SortPriceAsc)

	assert.Equal(t, first.ID, bids[0].ID)
	assert.Equal(t, second.ID, bids[1].ID)
}

func TestParseSortKey(t *testing.T) {
	got, err := ParseSortKey("rating_desc")
	require.NoError(t, err)
	assert.Equal(t, SortRatingDesc, got)

	got, err = ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, SortPriceAsc, got)

	_, err = ParseSortKey("alphabetical")
	assert.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	b := makeBid(t, 11.00, 4.7, 4, time.Now())
	b.ServiceTags = []string{"child_seat"}

	clone := b.Clone()
	clone.ServiceTags[0] = "cargo"
	clone.Frozen = true

	assert.Equal(t, "child_seat", b.ServiceTags[0])
	assert.False(t, b.Frozen)
}
