// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package gpsd

import (
	"math"
	"testing"
	"time"

	"github.com/stratoberry/go-gpsd"

	"github.com/wneessen/placepicker/internal/geobus"
)

const (
	testLat = 48.85845
	testLon = 2.29455
)

func TestNewGeolocationGPSDProvider(t *testing.T) {
	t.Run("defaults are applied", func(t *testing.T) {
		provider := NewGeolocationGPSDProvider("", "")
		if provider.addr != "localhost:2947" {
			t.Errorf("expected default address, got %q", provider.addr)
		}
		if provider.Name() != name {
			t.Errorf("expected provider name to be %s, got %s", name, provider.Name())
		}
	})
	t.Run("custom host and port", func(t *testing.T) {
		provider := NewGeolocationGPSDProvider("gps.local", "1234")
		if provider.addr != "gps.local:1234" {
			t.Errorf("expected custom address, got %q", provider.addr)
		}
	})
}

func TestCoordinateFromTPV(t *testing.T) {
	tests := []struct {
		name string
		tpv  *gpsd.TPVReport
		ok   bool
		acc  float64
	}{
		{"nil report", nil, false, 0},
		{"no fix", &gpsd.TPVReport{Mode: gpsd.NoFix, Lat: testLat, Lon: testLon}, false, 0},
		{"2D fix without error estimate", &gpsd.TPVReport{Mode: gpsd.Mode2D, Lat: testLat, Lon: testLon}, true, fallbackAccuracy2DFix},
		{"3D fix without error estimate", &gpsd.TPVReport{Mode: gpsd.Mode3D, Lat: testLat, Lon: testLon}, true, fallbackAccuracy3DFix},
		{"3D fix with error estimate", &gpsd.TPVReport{Mode: gpsd.Mode3D, Lat: testLat, Lon: testLon, Epx: 3, Epy: 4}, true, 5},
		{"invalid position", &gpsd.TPVReport{Mode: gpsd.Mode3D, Lat: 123, Lon: testLon}, false, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			coord, ok := coordinateFromTPV(tc.tpv)
			if ok != tc.ok {
				t.Fatalf("expected ok to be %t, got %t", tc.ok, ok)
			}
			if !ok {
				return
			}
			if math.Abs(coord.Acc-tc.acc) > 1e-9 {
				t.Errorf("expected accuracy %f, got %f", tc.acc, coord.Acc)
			}
			if coord.Lat != 48.8584 || coord.Lon != 2.2945 {
				t.Errorf("expected truncated coordinates, got %s", coord)
			}
		})
	}
}

func TestGeolocationGPSDProvider_createResult(t *testing.T) {
	provider := NewGeolocationGPSDProvider("", "")
	result := provider.createResult("test", geobus.Coordinate{Lat: testLat, Lon: testLon, Acc: 5})
	if result.Key != "test" || result.Source != name || result.AccuracyMeters != 5 {
		t.Errorf("unexpected result: %+v", result)
	}
	if result.TTL != time.Minute*2 {
		t.Errorf("expected TTL to be 2m, got %s", result.TTL)
	}
}
