// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geobus

import (
	"context"
	"time"
)

// Poller implements the lookup loop shared by the polling providers. The first lookup runs
// immediately, following lookups every Period. Failed lookups are skipped and a result is
// only emitted when the position changed significantly since the last emit.
type Poller struct {
	Source string
	Period time.Duration
	TTL    time.Duration
	Locate func(ctx context.Context) (Coordinate, error)
}

// Stream starts the polling loop for key. The channel is closed when ctx is done.
func (p Poller) Stream(ctx context.Context, key string) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)
		state := GeolocationState{}
		firstRun := true

		for {
			if !firstRun && !sleepOrDone(ctx, p.Period) {
				return
			}
			firstRun = false

			coord, err := p.Locate(ctx)
			if err != nil || !coord.Valid() {
				continue
			}
			if !state.HasChanged(coord) {
				continue
			}
			state.Update(coord)

			select {
			case <-ctx.Done():
				return
			case out <- p.result(key, coord):
			}
		}
	}()
	return out
}

func (p Poller) result(key string, coord Coordinate) Result {
	return Result{
		Key:            key,
		Lat:            coord.Lat,
		Lon:            coord.Lon,
		AccuracyMeters: coord.Acc,
		Source:         p.Source,
		At:             time.Now(),
		TTL:            p.TTL,
	}
}
