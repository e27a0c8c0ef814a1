package geo

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm_Zero(t *testing.T) {
	p := Point{Lat: -6.2, Lon: 106.8}
	assert.Equal(t, 0.0, DistanceKm(p, p))
}

func TestDistanceKm_EquatorDegree(t *testing.T) {
	// One degree of longitude at the equator is ~111.19 km.
	d := DistanceKm(Point{0, 0}, Point{0, 1})
	assert.InDelta(t, 111.19, d, 0.05)
}

func TestDistanceKm_Symmetric(t *testing.T) {
	a := Point{Lat: -6.1754, Lon: 106.8272}
	b := Point{Lat: -6.9175, Lon: 107.6191}
	assert.InDelta(t, DistanceKm(a, b), DistanceKm(b, a), 1e-9)
}

func TestClassify(t *testing.T) {
	anchor := Point{0, 0}

	// Latitude offsets at the equator: 0.01 deg ~= 1.112 km.
	tests := []struct {
		name string
		lat  float64
		want Zone
	}{
		{"well outside proximity", 0.0135, ZoneFar}, // ~1.5 km
		{"just outside proximity", 0.0108, ZoneFar}, // ~1.2 km
		{"inside proximity", 0.0045, ZoneNear},      // ~0.5 km
		{"inside arrival", 0.00045, ZoneArrived},    // ~0.05 km
		{"at anchor", 0, ZoneArrived},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(Point{Lat: tt.lat, Lon: 0}, anchor, 1.0, 0.1)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_ArrivalImpliesNear(t *testing.T) {
	// Any distance inside the arrival radius is also inside proximity.
	anchor := Point{0, 0}
	for _, lat := range []float64{0, 0.0002, 0.0005, 0.00088} {
		d := DistanceKm(Point{Lat: lat, Lon: 0}, anchor)
		if d <= 0.1 {
			assert.LessOrEqual(t, d, 1.0)
			assert.Equal(t, ZoneArrived, Classify(Point{Lat: lat, Lon: 0}, anchor, 1.0, 0.1))
		}
	}
}

func TestClassify_Concurrent(t *testing.T) {
	anchor := Point{Lat: -6.2, Lon: 106.8}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				Classify(Point{Lat: -6.21, Lon: 106.81}, anchor, 1.0, 0.1)
			}
		}()
	}
	wg.Wait()
}
