package geo

import (
	"math"
	"testing"
)

func TestDistanceIdenticalPointsIsZero(t *testing.T) {
	points := [][2]float64{
		{0, 0},
		{5.6, -0.2},
		{-33.8688, 151.2093},
		{89.9, 179.9},
	}
	for _, p := range points {
		if d := DistanceMeters(p[0], p[1], p[0], p[1]); d != 0 {
			t.Errorf("DistanceMeters(%v, %v, same) = %v, want 0", p[0], p[1], d)
		}
	}
}

func TestDistanceSymmetry(t *testing.T) {
	cases := [][4]float64{
		{5.6, -0.2, 5.61, -0.21},
		{51.5074, -0.1278, 48.8566, 2.3522},
		{-1.2921, 36.8219, 6.5244, 3.3792},
	}
	for _, c := range cases {
		ab := DistanceMeters(c[0], c[1], c[2], c[3])
		ba := DistanceMeters(c[2], c[3], c[0], c[1])
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("distance not symmetric: %v vs %v", ab, ba)
		}
	}
}

func TestDistanceKnownSeparation(t *testing.T) {
	// ~200m north of the reference point: 1 degree latitude ~= 111,195m,
	// so 200m ~= 0.0017986 degrees.
	const lat, lon = 5.6000, -0.2000
	d := DistanceMeters(lat, lon, lat+0.0017986, lon)
	if math.Abs(d-200) > 5 {
		t.Errorf("expected ~200m, got %.2fm", d)
	}
}

func TestDistanceLondonParis(t *testing.T) {
	// Sanity check against a well-known pair, ~343km.
	d := DistanceMeters(51.5074, -0.1278, 48.8566, 2.3522)
	if d < 330e3 || d > 350e3 {
		t.Errorf("London-Paris distance out of range: %.0fm", d)
	}
}

func TestWithinRadiusBoundary(t *testing.T) {
	if !WithinRadius(100, 100) {
		t.Error("distance equal to radius must be accepted")
	}
	if WithinRadius(100.01, 100) {
		t.Error("distance just over radius must be rejected")
	}
	if !WithinRadius(0, 10) {
		t.Error("zero distance must be accepted")
	}
}
