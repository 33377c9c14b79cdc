package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationValidate(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{
			name: "valid san francisco",
			lat:  37.7749,
			lng:  -122.4194,
		},
		{
			name:    "latitude too high",
			lat:     91.0,
			lng:     0.5,
			wantErr: true,
		},
		{
			name:    "longitude too low",
			lat:     10.0,
			lng:     -180.5,
			wantErr: true,
		},
		{
			name:    "null island rejected",
			lat:     0,
			lng:     0,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLocation(tt.lat, tt.lng, "")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLocationDistanceKm(t *testing.T) {
	sf, err := NewLocation(37.7749, -122.4194, "San Francisco")
	require.NoError(t, err)
	oakland, err := NewLocation(37.8044, -122.2712, "Oakland")
	require.NoError(t, err)

	dist := sf.DistanceKm(oakland)
	assert.InDelta(t, 13.4, dist, 0.5)
	assert.InDelta(t, dist, oakland.DistanceKm(sf), 0.001)
	assert.Zero(t, sf.DistanceKm(sf))
}

func TestParseCategory(t *testing.T) {
	got, err := ParseCategory("premium")
	require.NoError(t, err)
	assert.Equal(t, CategoryPremium, got)

	got, err = ParseCategory("")
	require.NoError(t, err)
	assert.Equal(t, CategoryStandard, got)

	_, err = ParseCategory("luxury")
	assert.Error(t, err)
}
