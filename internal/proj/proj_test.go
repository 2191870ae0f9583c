package proj

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToEPSG3413(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float64
		x, y     float64
	}{
		{"true-scale point on central meridian", -45, 70, 0, -2187927.649},
		{"greenwich at 75N", 0, 75, 1155327.272, -1155327.272},
		{"90E at 80N", 90, 80, 767861.606, 767861.606},
		{"antimeridian at 85N", 180, 85, -383228.329, 383228.329},
		{"90W at 65N", -90, 65, -1944718.777, -1944718.777},
		{"beaufort-side point", 10, 72.5, 1564587.600, -1095536.032},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := ToEPSG3413(tt.lon, tt.lat)
			assert.InDelta(t, tt.x, x, 0.01)
			assert.InDelta(t, tt.y, y, 0.01)
		})
	}
}

func TestToEPSG3413PoleIsOrigin(t *testing.T) {
	// The pole must map to the origin for any longitude.
	for _, lon := range []float64{-180, -45, 0, 90, 179.9} {
		x, y := ToEPSG3413(lon, 90)
		assert.InDelta(t, 0, x, 1e-6)
		assert.InDelta(t, 0, y, 1e-6)
	}
}

func TestToEPSG3413ScaleTrueAt70N(t *testing.T) {
	// At the true-scale parallel a small east-west step projects to the
	// same length as the ellipsoidal arc it spans.
	const lat, lon, step = 70.0, -45.0, 0.001
	x1, y1 := ToEPSG3413(lon, lat)
	x2, y2 := ToEPSG3413(lon+step, lat)
	planar := math.Hypot(x2-x1, y2-y1)

	n := semiMajor / math.Sqrt(1-e2*math.Sin(lat*math.Pi/180)*math.Sin(lat*math.Pi/180))
	arc := n * math.Cos(lat*math.Pi/180) * step * math.Pi / 180

	assert.InDelta(t, 1.0, planar/arc, 1e-9)
}
