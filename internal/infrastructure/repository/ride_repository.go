package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/ride"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/values"
	"github.com/suntan-superman/rydeiq-backend/internal/service/bidding"
)

// rideRepository implements bidding.RideRepository on PostgreSQL. The
// selection commit is a single conditional UPDATE so the row's own
// atomicity provides the compare-and-set; everything else runs under a row
// lock in a transaction.
type rideRepository struct {
	pool *pgxpool.Pool
}

// NewRideRepository creates a Postgres-backed ride repository
func NewRideRepository(pool *pgxpool.Pool) bidding.RideRepository {
	return &rideRepository{pool: pool}
}

const rideColumns = `
	id, rider_id,
	pickup_lat, pickup_lng, pickup_address,
	dropoff_lat, dropoff_lng, dropoff_address,
	category, special_requests, payment_method,
	status, estimated_fare, fare_currency, fare_version,
	bidding_expires_at, selected_driver_id,
	cancel_reason, cancel_actor,
	created_at, updated_at`

// Create inserts a new ride request
func (r *rideRepository) Create(ctx context.Context, req *ride.Request) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`

	_, err := r.pool.Exec(ctx, query,
		req.ID, req.RiderID,
		req.Pickup.Latitude, req.Pickup.Longitude, req.Pickup.Address,
		req.Dropoff.Latitude, req.Dropoff.Longitude, req.Dropoff.Address,
		req.Category.String(), req.SpecialRequests, req.PaymentMethod,
		req.Status.String(), req.EstimatedFare.Amount(), req.EstimatedFare.Currency(), req.FareVersion,
		req.BiddingExpiresAt, req.SelectedDriverID,
		req.CancelReason, req.CancelActor,
		req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ride: %w", err)
	}
	return nil
}

// GetByID retrieves a ride request
func (r *rideRepository) GetByID(ctx context.Context, id uuid.UUID) (*ride.Request, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, id)
	return scanRide(row)
}

// Transition applies a conditional state change: the row is locked, the
// status precondition checked, the domain mutation applied and the row
// rewritten, all in one transaction.
func (r *rideRepository) Transition(ctx context.Context, id uuid.UUID, from ride.Status, apply func(*ride.Request) error) (*ride.Request, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin transition tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1 FOR UPDATE`, id)
	current, err := scanRide(row)
	if err != nil {
		return nil, err
	}

	if current.Status != from {
		return nil, bidding.ErrStatusConflict
	}

	if err := apply(current); err != nil {
		return nil, err
	}
	if err := current.CheckInvariants(); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE rides SET
			status = $2, estimated_fare = $3, fare_version = $4,
			bidding_expires_at = $5, selected_driver_id = $6,
			cancel_reason = $7, cancel_actor = $8, updated_at = $9
		WHERE id = $1`,
		current.ID, current.Status.String(), current.EstimatedFare.Amount(), current.FareVersion,
		current.BiddingExpiresAt, current.SelectedDriverID,
		current.CancelReason, current.CancelActor, current.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update ride: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return current, nil
}

// CommitSelection performs the atomic compare-and-set that decides the
// selection race. The WHERE clause is the precondition; rows affected tells
// us whether this caller won.
func (r *rideRepository) CommitSelection(ctx context.Context, id, driverID uuid.UUID) (*ride.Request, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE rides SET
			status = 'matched',
			selected_driver_id = $2,
			bidding_expires_at = NULL,
			updated_at = now()
		WHERE id = $1
		  AND status = 'bidding'
		  AND selected_driver_id IS NULL
		RETURNING `+rideColumns,
		id, driverID,
	)

	updated, err := scanRide(row)
	if err == nil {
		return updated, nil
	}
	if !stderrors.Is(err, bidding.ErrNotFound) {
		return nil, err
	}

	// No row matched the precondition. Distinguish a lost race from an
	// unknown id.
	var exists bool
	if qErr := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rides WHERE id = $1)`, id).Scan(&exists); qErr != nil {
		return nil, fmt.Errorf("check ride existence: %w", qErr)
	}
	if !exists {
		return nil, bidding.ErrNotFound
	}
	return nil, bidding.ErrSelectionConflict
}

func scanRide(row pgx.Row) (*ride.Request, error) {
	var (
		req            ride.Request
		categoryStr    string
		statusStr      string
		fareAmount     values.Money
		fareCurrency   string
	)

	err := row.Scan(
		&req.ID, &req.RiderID,
		&req.Pickup.Latitude, &req.Pickup.Longitude, &req.Pickup.Address,
		&req.Dropoff.Latitude, &req.Dropoff.Longitude, &req.Dropoff.Address,
		&categoryStr, &req.SpecialRequests, &req.PaymentMethod,
		&statusStr, &fareAmount, &fareCurrency, &req.FareVersion,
		&req.BiddingExpiresAt, &req.SelectedDriverID,
		&req.CancelReason, &req.CancelActor,
		&req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, bidding.ErrNotFound
		}
		return nil, fmt.Errorf("scan ride: %w", err)
	}

	req.Category = values.Category(categoryStr)
	status, err := ride.ParseStatus(statusStr)
	if err != nil {
		return nil, fmt.Errorf("unknown stored ride status: %q", statusStr)
	}
	req.Status = status

	fare, err := values.NewMoney(fareAmount.Amount(), fareCurrency)
	if err != nil {
		return nil, fmt.Errorf("stored fare: %w", err)
	}
	req.EstimatedFare = fare

	return &req, nil
}
