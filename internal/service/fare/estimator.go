package fare

import (
	"context"
	"math"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/errors"
	"github.com/suntan-superman/rydeiq-backend/internal/domain/values"
)

// DistanceProvider resolves a route's distance and duration. A road-network
// implementation can back this; the default falls back to great-circle math.
type DistanceProvider interface {
	RouteEstimate(ctx context.Context, origin, dest values.Location) (distanceKm, durationMinutes float64, err error)
}

// RateTable holds the versioned pricing inputs. Quotes always record the
// version they were computed under so re-quotes are comparable.
type RateTable struct {
	Version     string
	Currency    string
	BaseFare    float64
	PerKm       float64
	PerMinute   float64
	MinimumFare float64
	Multipliers map[values.Category]float64
}

// DefaultRateTable returns the rate table active for new deployments
func DefaultRateTable() RateTable {
	return RateTable{
		Version:     "2025-06-01",
		Currency:    values.USD,
		BaseFare:    2.50,
		PerKm:       1.10,
		PerMinute:   0.35,
		MinimumFare: 6.00,
		Multipliers: map[values.Category]float64{
			values.CategoryStandard:    1.00,
			values.CategoryPremium:     1.65,
			values.CategoryWheelchair:  1.15,
			values.CategoryPetFriendly: 1.10,
		},
	}
}

// Quote is a deterministic fare estimate
type Quote struct {
	Fare            values.Money `json:"fare"`
	DistanceKm      float64      `json:"distance_km"`
	DurationMinutes float64      `json:"duration_minutes"`
	RateVersion     string       `json:"rate_version"`
}

// Estimator computes fare quotes from a rate table and a distance provider
type Estimator struct {
	rates    RateTable
	provider DistanceProvider
}

// NewEstimator creates an estimator; a nil provider falls back to haversine
// distance at an assumed urban average speed.
func NewEstimator(rates RateTable, provider DistanceProvider) *Estimator {
	if provider == nil {
		provider = haversineProvider{avgSpeedKmh: 32}
	}
	return &Estimator{rates: rates, provider: provider}
}

// Estimate computes a quote for the trip. Same inputs and rate version always
// produce the same fare.
func (e *Estimator) Estimate(ctx context.Context, pickup, dropoff values.Location, category values.Category) (*Quote, error) {
	if err := pickup.Validate(); err != nil {
		return nil, errors.NewInvalidInputError("INVALID_PICKUP", "invalid pickup location").WithCause(err)
	}
	if err := dropoff.Validate(); err != nil {
		return nil, errors.NewInvalidInputError("INVALID_DROPOFF", "invalid dropoff location").WithCause(err)
	}

	multiplier, ok := e.rates.Multipliers[category]
	if !ok {
		return nil, errors.NewInvalidInputError("INVALID_CATEGORY", "no rate multiplier for category "+category.String())
	}

	distanceKm, durationMinutes, err := e.provider.RouteEstimate(ctx, pickup, dropoff)
	if err != nil {
		return nil, errors.NewUnavailableError("route estimate failed").WithCause(err)
	}

	raw := e.rates.BaseFare + e.rates.PerKm*distanceKm + e.rates.PerMinute*durationMinutes
	raw *= multiplier
	if raw < e.rates.MinimumFare {
		raw = e.rates.MinimumFare
	}

	fare, err := values.NewMoneyFromFloat(round2(raw), e.rates.Currency)
	if err != nil {
		return nil, errors.NewInternalError("fare construction failed").WithCause(err)
	}

	return &Quote{
		Fare:            fare,
		DistanceKm:      distanceKm,
		DurationMinutes: durationMinutes,
		RateVersion:     e.rates.Version,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type haversineProvider struct {
	avgSpeedKmh float64
}

func (p haversineProvider) RouteEstimate(_ context.Context, origin, dest values.Location) (float64, float64, error) {
	distanceKm := origin.DistanceKm(dest)
	durationMinutes := distanceKm / p.avgSpeedKmh * 60
	return distanceKm, durationMinutes, nil
}
