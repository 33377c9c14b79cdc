package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/suntan-superman/rydeiq-backend/internal/domain/values"
)

// RouteProvider resolves road-network distance and duration through the
// Google Maps Directions API. It satisfies the fare estimator's
// DistanceProvider; without an API key the estimator falls back to
// great-circle math.
type RouteProvider struct {
	client *maps.Client
}

// NewRouteProvider creates a provider with the given API key
func NewRouteProvider(apiKey string) (*RouteProvider, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating maps client: %w", err)
	}
	return &RouteProvider{client: client}, nil
}

// RouteEstimate returns driving distance in km and duration in minutes for
// the best route between the two points.
func (p *RouteProvider) RouteEstimate(ctx context.Context, origin, dest values.Location) (float64, float64, error) {
	req := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", origin.Latitude, origin.Longitude),
		Destination: fmt.Sprintf("%f,%f", dest.Latitude, dest.Longitude),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := p.client.Directions(ctx, req)
	if err != nil {
		return 0, 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, 0, fmt.Errorf("no route found")
	}

	var meters int
	var seconds float64
	for _, leg := range routes[0].Legs {
		meters += leg.Distance.Meters
		seconds += leg.Duration.Seconds()
	}

	return float64(meters) / 1000, seconds / 60, nil
}
