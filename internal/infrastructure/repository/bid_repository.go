package repository

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/bid"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/values"
	"github.com/suntan-superman/rydeiq-backend/internal/service/bidding"
)

// bidRepository implements bidding.BidRepository on PostgreSQL. The
// (ride_id, driver_id) unique constraint is the upsert key: a driver's later
// bid replaces the earlier one at the store level, not in application code.
type bidRepository struct {
	pool *pgxpool.Pool
}

// NewBidRepository creates a Postgres-backed bid repository
func NewBidRepository(pool *pgxpool.Pool) bidding.BidRepository {
	return &bidRepository{pool: pool}
}

const bidColumns = `
	id, ride_id, driver_id, amount, currency, eta_minutes,
	driver_rating, vehicle, note, service_tags, submitted_at, frozen`

// Upsert inserts or replaces the driver's bid and returns the full list. The
// ledger freeze flag on the parent ride is checked under a shared row lock so
// an upsert can never slip past a concurrent freeze.
func (r *bidRepository) Upsert(ctx context.Context, b *bid.Bid) ([]*bid.Bid, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var frozen bool
	err = tx.QueryRow(ctx, `SELECT bids_frozen FROM rides WHERE id = $1 FOR SHARE`, b.RideID).Scan(&frozen)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, bidding.ErrNotFound
		}
		return nil, fmt.Errorf("check ledger freeze: %w", err)
	}
	if frozen {
		return nil, bidding.ErrLedgerFrozen
	}

	vehicleJSON, err := json.Marshal(b.Vehicle)
	if err != nil {
		return nil, fmt.Errorf("marshal vehicle: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO bids (`+bidColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,false)
		ON CONFLICT (ride_id, driver_id) DO UPDATE SET
			id = EXCLUDED.id,
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			eta_minutes = EXCLUDED.eta_minutes,
			driver_rating = EXCLUDED.driver_rating,
			vehicle = EXCLUDED.vehicle,
			note = EXCLUDED.note,
			service_tags = EXCLUDED.service_tags,
			submitted_at = EXCLUDED.submitted_at`,
		b.ID, b.RideID, b.DriverID, b.Amount.Amount(), b.Amount.Currency(), b.ETAMinutes,
		b.DriverRating, vehicleJSON, b.Note, b.ServiceTags, b.SubmittedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert bid: %w", err)
	}

	list, err := r.listTx(ctx, tx, b.RideID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit upsert: %w", err)
	}
	return list, nil
}

// ListByRide returns all bids for a ride in submission order
func (r *bidRepository) ListByRide(ctx context.Context, rideID uuid.UUID) ([]*bid.Bid, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bidColumns+` FROM bids
		WHERE ride_id = $1
		ORDER BY submitted_at ASC`, rideID)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	defer rows.Close()

	return scanBids(rows)
}

// GetActive returns the driver's current bid on a ride
func (r *bidRepository) GetActive(ctx context.Context, rideID, driverID uuid.UUID) (*bid.Bid, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+bidColumns+` FROM bids
		WHERE ride_id = $1 AND driver_id = $2`, rideID, driverID)

	b, err := scanBid(row)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, bidding.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// Freeze marks the ledger read-only: flag on the ride plus history flags on
// the bids, committed together.
func (r *bidRepository) Freeze(ctx context.Context, rideID uuid.UUID) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin freeze tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE rides SET bids_frozen = true WHERE id = $1`, rideID)
	if err != nil {
		return fmt.Errorf("freeze ledger: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return bidding.ErrNotFound
	}

	if _, err := tx.Exec(ctx, `UPDATE bids SET frozen = true WHERE ride_id = $1`, rideID); err != nil {
		return fmt.Errorf("freeze bids: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit freeze: %w", err)
	}
	return nil
}

func (r *bidRepository) listTx(ctx context.Context, tx pgx.Tx, rideID uuid.UUID) ([]*bid.Bid, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+bidColumns+` FROM bids
		WHERE ride_id = $1
		ORDER BY submitted_at ASC`, rideID)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	defer rows.Close()

	return scanBids(rows)
}

func scanBids(rows pgx.Rows) ([]*bid.Bid, error) {
	var out []*bid.Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bids: %w", err)
	}
	return out, nil
}

func scanBid(row pgx.Row) (*bid.Bid, error) {
	var (
		b           bid.Bid
		amount      values.Money
		currency    string
		vehicleJSON []byte
	)

	err := row.Scan(
		&b.ID, &b.RideID, &b.DriverID, &amount, &currency, &b.ETAMinutes,
		&b.DriverRating, &vehicleJSON, &b.Note, &b.ServiceTags, &b.SubmittedAt, &b.Frozen,
	)
	if err != nil {
		return nil, err
	}

	money, err := values.NewMoney(amount.Amount(), currency)
	if err != nil {
		return nil, fmt.Errorf("stored bid amount: %w", err)
	}
	b.Amount = money

	if len(vehicleJSON) > 0 {
		if err := json.Unmarshal(vehicleJSON, &b.Vehicle); err != nil {
			return nil, fmt.Errorf("unmarshal vehicle: %w", err)
		}
	}

	return &b, nil
}
