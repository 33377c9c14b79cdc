package bidding_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/errors"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/ride"
	"github.com/suntan-superman/rydeiq-backend/internal/service/bidding"
	"github.com/suntan-superman/rydeiq-backend/internal/service/fare"
	"github.com/suntan-superman/rydeiq-backend/internal/testutil/fixtures"
	"github.com/suntan-superman/rydeiq-backend/internal/testutil/mocks"
)

func newMockedService(t *testing.T, rideRepo *mocks.RideRepository, bidRepo *mocks.BidRepository) bidding.Service {
	t.Helper()
	svc := bidding.NewService(
		rideRepo, bidRepo,
		fare.NewEstimator(fare.DefaultRateTable(), nil),
		nil, nil, nil, nil,
		bidding.DefaultWindowPolicy(), nil,
	)
	t.Cleanup(svc.Close)
	return svc
}

func TestRequestRide_StoreOutageExhaustsRetries(t *testing.T) {
	rideRepo := &mocks.RideRepository{}
	bidRepo := &mocks.BidRepository{}
	rideRepo.On("Create", mock.Anything, mock.Anything).
		Return(fmt.Errorf("dial tcp: connection refused"))

	svc := newMockedService(t, rideRepo, bidRepo)

	start := time.Now()
	_, err := svc.RequestRide(context.Background(), rideInput(uuid.New()))
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeUnavailable))
	assert.True(t, errors.IsRetryable(err))
	rideRepo.AssertNumberOfCalls(t, "Create", 3)
	// Backoff doubles between attempts, so two waits is the floor.
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
}

func TestRequestRide_TransientStoreFailureRetried(t *testing.T) {
	rideRepo := &mocks.RideRepository{}
	bidRepo := &mocks.BidRepository{}
	pending := fixtures.NewRideBuilder().WithStatus(ride.StatusPending).Build(t)

	rideRepo.On("Create", mock.Anything, mock.Anything).
		Return(fmt.Errorf("dial tcp: connection refused")).Once()
	rideRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	rideRepo.On("Transition", mock.Anything, mock.Anything, ride.StatusRequesting, mock.Anything).
		Return(pending, nil)

	svc := newMockedService(t, rideRepo, bidRepo)

	snap, err := svc.RequestRide(context.Background(), rideInput(uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, ride.StatusPending, snap.Request.Status)
	rideRepo.AssertNumberOfCalls(t, "Create", 2)
}

func TestSubmitBid_FrozenLedgerNotRetried(t *testing.T) {
	rideRepo := &mocks.RideRepository{}
	bidRepo := &mocks.BidRepository{}
	open := fixtures.NewRideBuilder().WithStatus(ride.StatusBidding).Build(t)

	rideRepo.On("GetByID", mock.Anything, open.ID).Return(open, nil)
	bidRepo.On("Upsert", mock.Anything, mock.Anything).Return(nil, bidding.ErrLedgerFrozen)

	svc := newMockedService(t, rideRepo, bidRepo)

	_, err := svc.SubmitBid(context.Background(), bidInput(open.ID, uuid.New(), 10.00))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeWindowClosed))
	bidRepo.AssertNumberOfCalls(t, "Upsert", 1)
}

// servingNotifier answers reads from a canned snapshot
type servingNotifier struct {
	latest *ride.Snapshot
}

func (n *servingNotifier) Publish(context.Context, *ride.Snapshot) {}

func (n *servingNotifier) Subscribe(uuid.UUID, *ride.Snapshot) bidding.Subscription { return nil }

func (n *servingNotifier) Latest(_ context.Context, rideID uuid.UUID) (*ride.Snapshot, error) {
	if n.latest == nil || n.latest.Request.ID != rideID {
		return nil, fmt.Errorf("snapshot not cached")
	}
	return n.latest, nil
}

func TestGetRide_ServedFromSnapshotReader(t *testing.T) {
	rideRepo := &mocks.RideRepository{}
	bidRepo := &mocks.BidRepository{}
	open := fixtures.NewRideBuilder().WithStatus(ride.StatusBidding).Build(t)

	svc := bidding.NewService(
		rideRepo, bidRepo,
		fare.NewEstimator(fare.DefaultRateTable(), nil),
		&servingNotifier{latest: ride.NewSnapshot(open, nil)},
		nil, nil, nil, bidding.DefaultWindowPolicy(), nil,
	)
	t.Cleanup(svc.Close)

	got, err := svc.GetRide(context.Background(), open.ID)
	require.NoError(t, err)
	assert.Equal(t, open.ID, got.Request.ID)
	rideRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	bidRepo.AssertNotCalled(t, "ListByRide", mock.Anything, mock.Anything)
}

func TestClose_StopsWindowTimers(t *testing.T) {
	policy := bidding.DefaultWindowPolicy()
	policy.Window = 30 * time.Millisecond
	env := newTestEnv(t, policy)

	snap, err := env.svc.RequestRide(context.Background(), rideInput(uuid.New()))
	require.NoError(t, err)

	env.svc.Close()
	time.Sleep(80 * time.Millisecond)

	got, err := env.svc.GetRide(context.Background(), snap.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, ride.StatusPending, got.Request.Status)
}
