// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package gpsd reads the device location from a local gpsd daemon.
package gpsd

import (
	"context"
	"math"
	"net"
	"time"

	"github.com/stratoberry/go-gpsd"

	"github.com/wneessen/placepicker/internal/geobus"
)

const (
	DefaultHost = "localhost"
	DefaultPort = "2947"
	name        = "gpsd"

	fallbackAccuracy3DFix = 10 // ~10 m typical consumer GPS in open sky
	fallbackAccuracy2DFix = 25
)

type GeolocationGPSDProvider struct {
	addr      string
	reconnect time.Duration
	ttl       time.Duration
}

func NewGeolocationGPSDProvider(host, port string) *GeolocationGPSDProvider {
	if host == "" {
		host = DefaultHost
	}
	if port == "" {
		port = DefaultPort
	}
	return &GeolocationGPSDProvider{
		addr:      net.JoinHostPort(host, port),
		reconnect: time.Second * 30,
		ttl:       time.Minute * 2,
	}
}

func (p *GeolocationGPSDProvider) Name() string {
	return name
}

// LookupStream watches gpsd for TPV reports and emits every significant position change.
// A lost connection is re-established after the reconnect delay.
func (p *GeolocationGPSDProvider) LookupStream(ctx context.Context, key string) <-chan geobus.Result {
	out := make(chan geobus.Result)
	go func() {
		defer close(out)
		fixes := make(chan geobus.Coordinate, 1)
		state := geobus.GeolocationState{}

		for {
			session, err := gpsd.Dial(p.addr)
			if err != nil {
				if !p.wait(ctx) {
					return
				}
				continue
			}

			session.AddFilter("TPV", func(r interface{}) {
				tpv, ok := r.(*gpsd.TPVReport)
				if !ok {
					return
				}
				coord, ok := coordinateFromTPV(tpv)
				if !ok {
					return
				}
				// Keep only the latest fix if the consumer is slow
				select {
				case fixes <- coord:
				default:
					select {
					case <-fixes:
					default:
					}
					fixes <- coord
				}
			})
			done := session.Watch()

		watch:
			for {
				select {
				case <-ctx.Done():
					return
				case <-done:
					break watch
				case coord := <-fixes:
					if !state.HasChanged(coord) {
						continue
					}
					state.Update(coord)
					select {
					case <-ctx.Done():
						return
					case out <- p.createResult(key, coord):
					}
				}
			}

			if !p.wait(ctx) {
				return
			}
		}
	}()
	return out
}

func (p *GeolocationGPSDProvider) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(p.reconnect):
		return true
	}
}

func (p *GeolocationGPSDProvider) createResult(key string, coord geobus.Coordinate) geobus.Result {
	return geobus.Result{
		Key:            key,
		Lat:            coord.Lat,
		Lon:            coord.Lon,
		AccuracyMeters: coord.Acc,
		Source:         name,
		At:             time.Now(),
		TTL:            p.ttl,
	}
}

// coordinateFromTPV converts a TPV report into a coordinate. Reports without at least a 2D
// fix are rejected.
func coordinateFromTPV(tpv *gpsd.TPVReport) (geobus.Coordinate, bool) {
	if tpv == nil || tpv.Mode < gpsd.Mode2D {
		return geobus.Coordinate{}, false
	}
	coord := geobus.Coordinate{
		Lat:   geobus.Truncate(tpv.Lat, geobus.TruncPrecision),
		Lon:   geobus.Truncate(tpv.Lon, geobus.TruncPrecision),
		Acc:   horizontalAccuracy(tpv),
		Found: true,
	}
	return coord, coord.Valid()
}

func horizontalAccuracy(tpv *gpsd.TPVReport) float64 {
	if tpv.Epx > 0 && tpv.Epy > 0 {
		return math.Hypot(tpv.Epx, tpv.Epy)
	}
	if tpv.Mode == gpsd.Mode3D {
		return fallbackAccuracy3DFix
	}
	return fallbackAccuracy2DFix
}
