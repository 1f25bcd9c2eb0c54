package geo

import (
	"math"
	"testing"
)

func TestDistanceZero(t *testing.T) {
	if d := Distance(-34.6037, -58.3816, -34.6037, -58.3816); d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestDistanceBuenosAiresToLaPlata(t *testing.T) {
	// Obelisco to La Plata cathedral, roughly 52 km.
	d := Distance(-34.6037, -58.3816, -34.9215, -57.9545)
	if d < 48 || d > 56 {
		t.Fatalf("expected ~52km, got %f", d)
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := Distance(-34.60, -58.38, -34.92, -57.95)
	b := Distance(-34.92, -57.95, -34.60, -58.38)
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("distance not symmetric: %f vs %f", a, b)
	}
}

func TestFormatDistanceMetres(t *testing.T) {
	cases := []struct {
		km   float64
		want string
	}{
		{0.0994, "99m"},
		{0.5, "500m"},
		{0.9996, "1000m"},
		{1.0, "1.0km"},
		{1.26, "1.3km"},
		{12.04, "12.0km"},
	}
	for _, tc := range cases {
		if got := FormatDistance(tc.km); got != tc.want {
			t.Errorf("FormatDistance(%f) = %q, want %q", tc.km, got, tc.want)
		}
	}
}
