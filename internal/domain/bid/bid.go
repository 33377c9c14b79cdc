package bid

import (
	"time"

	"github.com/google/uuid"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/errors"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/values"
)

// Bid is a driver's offer on a ride request. One active bid per driver per
// ride; resubmitting replaces the earlier bid.
type Bid struct {
	ID           uuid.UUID    `json:"id"`
	RideID       uuid.UUID    `json:"ride_id"`
	DriverID     uuid.UUID    `json:"driver_id"`
	Amount       values.Money `json:"amount"`
	ETAMinutes   int          `json:"eta_minutes"`
	DriverRating float64      `json:"driver_rating"`
	Vehicle      Vehicle      `json:"vehicle"`
	Note         string       `json:"note,omitempty"`
	ServiceTags  []string     `json:"service_tags,omitempty"`
	SubmittedAt  time.Time    `json:"submitted_at"`
	Frozen       bool         `json:"frozen"`
}

// Vehicle describes the car offered with the bid
type Vehicle struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year,omitempty"`
	Color        string `json:"color,omitempty"`
	LicensePlate string `json:"license_plate,omitempty"`
}

// NewBid creates a validated bid
func NewBid(rideID, driverID uuid.UUID, amount values.Money, etaMinutes int) (*Bid, error) {
	if rideID == uuid.Nil {
		return nil, errors.NewInvalidInputError("MISSING_RIDE_ID", "ride ID is required")
	}
	if driverID == uuid.Nil {
		return nil, errors.NewInvalidInputError("MISSING_DRIVER_ID", "driver ID is required")
	}
	if !amount.IsPositive() {
		return nil, errors.NewInvalidInputError("INVALID_BID_AMOUNT", "bid amount must be positive")
	}
	if etaMinutes < 0 {
		return nil, errors.NewInvalidInputError("INVALID_BID_ETA", "bid ETA cannot be negative")
	}

	return &Bid{
		ID:          uuid.New(),
		RideID:      rideID,
		DriverID:    driverID,
		Amount:      amount,
		ETAMinutes:  etaMinutes,
		SubmittedAt: time.Now(),
	}, nil
}

// Clone returns a deep copy of the bid
func (b *Bid) Clone() *Bid {
	clone := *b
	if b.ServiceTags != nil {
		clone.ServiceTags = append([]string(nil), b.ServiceTags...)
	}
	return &clone
}
