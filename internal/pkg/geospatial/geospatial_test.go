package geospatial_test

import (
	"math"
	"testing"

	"github.com/samirrijal/photomap/internal/pkg/geospatial"
)

const eps = 1e-9

func r(num, den int64) geospatial.Rational {
	return geospatial.Rational{Num: num, Den: den}
}

func TestDMS_Decimal(t *testing.T) {
	tests := []struct {
		name string
		dms  geospatial.DMS
		want float64
	}{
		{"half degree from minutes", geospatial.DMS{Degrees: r(10, 1), Minutes: r(30, 1), Seconds: r(0, 1)}, 10.5},
		{"seconds as hundredths", geospatial.DMS{Degrees: r(0, 1), Minutes: r(0, 1), Seconds: r(3600, 100)}, 36.0 / 3600.0},
		{"unreduced denominators", geospatial.DMS{Degrees: r(86, 2), Minutes: r(150, 10), Seconds: r(1800, 60)}, 43 + 15.0/60 + 30.0/3600},
		{"all parts", geospatial.DMS{Degrees: r(2, 1), Minutes: r(56, 1), Seconds: r(1234, 100)}, 2 + 56.0/60 + 12.34/3600},
		{"zero", geospatial.DMS{Degrees: r(0, 1), Minutes: r(0, 1), Seconds: r(0, 1)}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.dms.Decimal()
			if math.Abs(got-tt.want) > eps {
				t.Errorf("Decimal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSignLatitude(t *testing.T) {
	tests := []struct {
		name string
		ref  geospatial.Hemisphere
		want float64
	}{
		{"south flips", geospatial.Hemisphere{Ref: "S", Present: true}, -12.5},
		{"north keeps", geospatial.Hemisphere{Ref: "N", Present: true}, 12.5},
		{"absent keeps", geospatial.Hemisphere{}, 12.5},
		{"unknown flips", geospatial.Hemisphere{Ref: "X", Present: true}, -12.5},
		{"lowercase n flips", geospatial.Hemisphere{Ref: "n", Present: true}, -12.5},
		{"only first char counts", geospatial.Hemisphere{Ref: "North", Present: true}, 12.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := geospatial.SignLatitude(12.5, tt.ref); got != tt.want {
				t.Errorf("SignLatitude() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSignLongitude(t *testing.T) {
	tests := []struct {
		name string
		ref  geospatial.Hemisphere
		want float64
	}{
		{"west flips", geospatial.Hemisphere{Ref: "W", Present: true}, -3.25},
		{"east keeps", geospatial.Hemisphere{Ref: "E", Present: true}, 3.25},
		{"absent keeps", geospatial.Hemisphere{}, 3.25},
		{"north on longitude flips", geospatial.Hemisphere{Ref: "N", Present: true}, -3.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := geospatial.SignLongitude(3.25, tt.ref); got != tt.want {
				t.Errorf("SignLongitude() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHaversine(t *testing.T) {
	// Bilbao Abando to Bilbao Moyua is roughly 600m.
	d := geospatial.Haversine(43.2606, -2.9275, 43.2631, -2.9350)
	if d < 500 || d > 750 {
		t.Errorf("unexpected distance %v", d)
	}
	if geospatial.Haversine(10, 20, 10, 20) != 0 {
		t.Error("distance to self must be zero")
	}
}

func TestBoundingBox(t *testing.T) {
	minLat, minLng, maxLat, maxLng := geospatial.BoundingBox(43.26, -2.93, 1000)
	if !(minLat < 43.26 && maxLat > 43.26 && minLng < -2.93 && maxLng > -2.93) {
		t.Errorf("box does not contain centre: %v %v %v %v", minLat, minLng, maxLat, maxLng)
	}

	_, minLng, _, maxLng = geospatial.BoundingBox(90, 10, 1000)
	if minLng != -180 || maxLng != 180 {
		t.Errorf("expected full longitude span at the pole, got %v..%v", minLng, maxLng)
	}
}
