package values

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0

// Location is a geographic point with an optional human-readable address.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// NewLocation creates a validated Location
func NewLocation(lat, lng float64, address string) (Location, error) {
	loc := Location{Latitude: lat, Longitude: lng, Address: address}
	if err := loc.Validate(); err != nil {
		return Location{}, err
	}
	return loc, nil
}

// Validate checks coordinate bounds. The null island origin is rejected since
// it only ever shows up as a zero-value bug upstream.
func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("latitude out of range: %f", l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("longitude out of range: %f", l.Longitude)
	}
	if l.Latitude == 0 && l.Longitude == 0 {
		return fmt.Errorf("location coordinates are unset")
	}
	return nil
}

// DistanceKm returns the haversine great-circle distance to another location
func (l Location) DistanceKm(other Location) float64 {
	lat1 := l.Latitude * math.Pi / 180
	lat2 := other.Latitude * math.Pi / 180
	dLat := (other.Latitude - l.Latitude) * math.Pi / 180
	dLng := (other.Longitude - l.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func (l Location) String() string {
	if l.Address != "" {
		return l.Address
	}
	return fmt.Sprintf("(%.6f, %.6f)", l.Latitude, l.Longitude)
}
