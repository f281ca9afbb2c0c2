package spatial

import (
	"math"
	"testing"
)

func TestHaversineKM(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{"same point", 52.52, 13.405, 52.52, 13.405, 0, 0.001},
		{"one degree longitude at equator", 0, 0, 0, 1, 111.2, 0.5},
		{"berlin to paris", 52.5200, 13.4050, 48.8566, 2.3522, 878, 5},
		{"antipodal-ish", 0, 0, 0, 180, 20015, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKM(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("HaversineKM = %.2f, want %.2f ± %.2f", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestHaversineKMSymmetric(t *testing.T) {
	a := HaversineKM(40.7128, -74.0060, 34.0522, -118.2437)
	b := HaversineKM(34.0522, -118.2437, 40.7128, -74.0060)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("distance not symmetric: %v vs %v", a, b)
	}
}
