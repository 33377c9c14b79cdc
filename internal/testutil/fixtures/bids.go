package fixtures

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/bid"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/values"
)

// BidBuilder builds test bids
type BidBuilder struct {
	rideID      uuid.UUID
	driverID    uuid.UUID
	amount      float64
	etaMinutes  int
	rating      float64
	submittedAt time.Time
}

// NewBidBuilder creates a builder with sane defaults
func NewBidBuilder(rideID uuid.UUID) *BidBuilder {
	return &BidBuilder{
		rideID:      rideID,
		driverID:    uuid.New(),
		amount:      12.00,
		etaMinutes:  5,
		rating:      4.8,
		submittedAt: time.Now(),
	}
}

func (b *BidBuilder) WithDriver(id uuid.UUID) *BidBuilder {
	b.driverID = id
	return b
}

func (b *BidBuilder) WithAmount(amount float64) *BidBuilder {
	b.amount = amount
	return b
}

func (b *BidBuilder) WithETA(minutes int) *BidBuilder {
	b.etaMinutes = minutes
	return b
}

func (b *BidBuilder) WithRating(rating float64) *BidBuilder {
	b.rating = rating
	return b
}

func (b *BidBuilder) WithSubmittedAt(t time.Time) *BidBuilder {
	b.submittedAt = t
	return b
}

// Build creates the bid
func (b *BidBuilder) Build(t *testing.T) *bid.Bid {
	t.Helper()

	built, err := bid.NewBid(b.rideID, b.driverID,
		values.MustNewMoneyFromFloat(b.amount, values.USD), b.etaMinutes)
	require.NoError(t, err)
	built.DriverRating = b.rating
	built.SubmittedAt = b.submittedAt
	built.Vehicle = bid.Vehicle{Make: "Toyota", Model: "Camry", Year: 2022, Color: "silver"}
	return built
}
