// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geobus

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Orchestrator coordinates the tracking and publication of geolocation results from multiple
// providers through a GeoBus.
type Orchestrator struct {
	Bus       *GeoBus
	Providers []Provider
}

// Track runs all providers concurrently for key until ctx is cancelled.
func (o *Orchestrator) Track(ctx context.Context, key string) {
	var wg sync.WaitGroup
	for _, p := range o.Providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			o.trackProvider(ctx, p, key)
		}(p)
	}
	wg.Wait()
}

// trackProvider publishes a provider's stream to the bus and restarts the stream with
// exponential backoff whenever it ends.
func (o *Orchestrator) trackProvider(ctx context.Context, p Provider, key string) {
	backoff := initialBackoff
	for {
		if ctx.Err() != nil {
			return
		}

		lookupChan := o.safeLookup(ctx, p, key)
		if lookupChan != nil {
			o.drain(ctx, lookupChan, &backoff)
		}
		if ctx.Err() != nil {
			return
		}

		o.Bus.logger.Debug("geolocation provider stream ended, retrying", slog.String("provider", p.Name()),
			slog.Duration("backoff", backoff))
		if !sleepOrDone(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff)
	}
}

func (o *Orchestrator) drain(ctx context.Context, lookupChan <-chan Result, backoff *time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-lookupChan:
			if !ok {
				return
			}
			o.Bus.Publish(r)
			*backoff = initialBackoff
		}
	}
}

// safeLookup invokes LookupStream and recovers from provider panics, returning nil in that case.
func (o *Orchestrator) safeLookup(ctx context.Context, provider Provider, key string) (ch <-chan Result) {
	defer func() {
		if r := recover(); r != nil {
			o.Bus.logger.Error("geolocation provider panicked", slog.String("provider", provider.Name()),
				slog.Any("panic", r))
			ch = nil
		}
	}()
	return provider.LookupStream(ctx, key)
}
