package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/bid"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/ride"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/values"
	"github.com/suntan-superman/rydeiq-backend/internal/service/bidding"
)

// RideRepository mock
type RideRepository struct {
	mock.Mock
}

func (m *RideRepository) Create(ctx context.Context, r *ride.Request) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *RideRepository) GetByID(ctx context.Context, id uuid.UUID) (*ride.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ride.Request), args.Error(1)
}

func (m *RideRepository) Transition(ctx context.Context, id uuid.UUID, from ride.Status, apply func(*ride.Request) error) (*ride.Request, error) {
	args := m.Called(ctx, id, from, apply)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ride.Request), args.Error(1)
}

func (m *RideRepository) CommitSelection(ctx context.Context, id uuid.UUID, driverID uuid.UUID) (*ride.Request, error) {
	args := m.Called(ctx, id, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ride.Request), args.Error(1)
}

// BidRepository mock
type BidRepository struct {
	mock.Mock
}

func (m *BidRepository) Upsert(ctx context.Context, b *bid.Bid) ([]*bid.Bid, error) {
	args := m.Called(ctx, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*bid.Bid), args.Error(1)
}

func (m *BidRepository) ListByRide(ctx context.Context, rideID uuid.UUID) ([]*bid.Bid, error) {
	args := m.Called(ctx, rideID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*bid.Bid), args.Error(1)
}

func (m *BidRepository) GetActive(ctx context.Context, rideID, driverID uuid.UUID) (*bid.Bid, error) {
	args := m.Called(ctx, rideID, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bid.Bid), args.Error(1)
}

func (m *BidRepository) Freeze(ctx context.Context, rideID uuid.UUID) error {
	args := m.Called(ctx, rideID)
	return args.Error(0)
}

// PaymentProcessor mock
type PaymentProcessor struct {
	mock.Mock
}

func (m *PaymentProcessor) HoldFare(ctx context.Context, rideID, driverID uuid.UUID, amount values.Money) (string, error) {
	args := m.Called(ctx, rideID, driverID, amount)
	return args.String(0), args.Error(1)
}

// DriverDirectory mock
type DriverDirectory struct {
	mock.Mock
}

func (m *DriverDirectory) DriverProfile(ctx context.Context, driverID uuid.UUID) (*bidding.DriverProfile, error) {
	args := m.Called(ctx, driverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bidding.DriverProfile), args.Error(1)
}

// Notifier mock records published snapshots
type Notifier struct {
	mock.Mock
}

func (m *Notifier) Publish(ctx context.Context, snap *ride.Snapshot) {
	m.Called(ctx, snap)
}

func (m *Notifier) Subscribe(rideID uuid.UUID, current *ride.Snapshot) bidding.Subscription {
	args := m.Called(rideID, current)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(bidding.Subscription)
}

// MetricsCollector mock
type MetricsCollector struct {
	mock.Mock
}

func (m *MetricsCollector) RecordRideRequested(category string) {
	m.Called(category)
}

func (m *MetricsCollector) RecordBidSubmitted(rideID uuid.UUID) {
	m.Called(rideID)
}

func (m *MetricsCollector) RecordSelection(outcome string) {
	m.Called(outcome)
}

func (m *MetricsCollector) RecordWindowExpiry(outcome string) {
	m.Called(outcome)
}
