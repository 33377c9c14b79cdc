package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema matches the columns the repositories read and write. Applied at
// startup; every statement is idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS rides (
    id                 UUID PRIMARY KEY,
    rider_id           UUID NOT NULL,
    pickup_lat         DOUBLE PRECISION NOT NULL,
    pickup_lng         DOUBLE PRECISION NOT NULL,
    pickup_address     TEXT NOT NULL DEFAULT '',
    dropoff_lat        DOUBLE PRECISION NOT NULL,
    dropoff_lng        DOUBLE PRECISION NOT NULL,
    dropoff_address    TEXT NOT NULL DEFAULT '',
    category           TEXT NOT NULL,
    special_requests   TEXT[] NOT NULL DEFAULT '{}',
    payment_method     TEXT NOT NULL DEFAULT '',
    status             TEXT NOT NULL,
    estimated_fare     NUMERIC(12,4) NOT NULL DEFAULT 0,
    fare_currency      TEXT NOT NULL DEFAULT 'USD',
    fare_version       TEXT NOT NULL DEFAULT '',
    bidding_expires_at TIMESTAMPTZ,
    selected_driver_id UUID,
    cancel_reason      TEXT NOT NULL DEFAULT '',
    cancel_actor       TEXT NOT NULL DEFAULT '',
    bids_frozen        BOOLEAN NOT NULL DEFAULT FALSE,
    created_at         TIMESTAMPTZ NOT NULL,
    updated_at         TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rides_rider ON rides (rider_id);
CREATE INDEX IF NOT EXISTS idx_rides_status ON rides (status);

CREATE TABLE IF NOT EXISTS bids (
    id            UUID PRIMARY KEY,
    ride_id       UUID NOT NULL REFERENCES rides (id),
    driver_id     UUID NOT NULL,
    amount        NUMERIC(12,4) NOT NULL,
    currency      TEXT NOT NULL DEFAULT 'USD',
    eta_minutes   INT NOT NULL,
    driver_rating DOUBLE PRECISION NOT NULL DEFAULT 0,
    vehicle       JSONB NOT NULL DEFAULT '{}',
    note          TEXT NOT NULL DEFAULT '',
    service_tags  TEXT[] NOT NULL DEFAULT '{}',
    submitted_at  TIMESTAMPTZ NOT NULL,
    frozen        BOOLEAN NOT NULL DEFAULT FALSE,
    UNIQUE (ride_id, driver_id)
);

CREATE INDEX IF NOT EXISTS idx_bids_ride ON bids (ride_id);
`

// Migrate applies the schema
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}
