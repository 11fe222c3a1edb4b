// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geobus collects device location fixes from multiple providers and hands the best
// known fix to its subscribers.
package geobus

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/wneessen/placepicker/internal/logger"
)

const (
	accuracyEpsilon = 1e-6
	initialBackoff  = time.Second
	maxBackoff      = 30 * time.Second
)

const (
	AccuracyCountry = 300000
	AccuracyRegion  = 100000
	AccuracyCity    = 15000
	AccuracyZip     = 3000
	AccuracyUnknown = 1000000
	TruncPrecision  = 4
)

// Provider defines an interface for geolocation service providers that stream results for a key.
type Provider interface {
	Name() string
	LookupStream(ctx context.Context, key string) <-chan Result
}

// GeoBus coordinates the publishing and subscribing of geolocation results between providers
// and consumers.
type GeoBus struct {
	mu          sync.RWMutex
	logger      *logger.Logger
	best        map[string]Result
	subscribers map[string]map[chan Result]struct{}
}

// Result represents a geolocation result with associated metadata.
type Result struct {
	Key            string
	Lat, Lon       float64
	Alt            float64
	AccuracyMeters float64
	Source         string
	At             time.Time
	TTL            time.Duration
}

// Coordinate returns the position of the Result.
func (r Result) Coordinate() Coordinate {
	return Coordinate{Lat: r.Lat, Lon: r.Lon, Acc: r.AccuracyMeters, Found: true}
}

// BetterThan reports whether r is more accurate than prev. Older results never win.
func (r Result) BetterThan(prev Result) bool {
	if prev.Key == "" {
		return true
	}
	if r.At.Before(prev.At) {
		return false
	}
	return r.AccuracyMeters < prev.AccuracyMeters-accuracyEpsilon
}

// IsExpired checks if the Result has exceeded its time-to-live.
func (r Result) IsExpired() bool {
	return r.TTL > 0 && time.Since(r.At) > r.TTL
}

// New returns an empty GeoBus.
func New(logger *logger.Logger) *GeoBus {
	return &GeoBus{
		logger:      logger,
		best:        make(map[string]Result),
		subscribers: make(map[string]map[chan Result]struct{}),
	}
}

// NewOrchestrator returns an Orchestrator that publishes the results of the given providers
// to the bus.
func (b *GeoBus) NewOrchestrator(providers []Provider) *Orchestrator {
	return &Orchestrator{
		Bus:       b,
		Providers: providers,
	}
}

// Subscribe adds a subscriber for the given key. The best unexpired result is delivered right
// away. The returned function unsubscribes and closes the channel.
func (b *GeoBus) Subscribe(key string, size int) (<-chan Result, func()) {
	if size < 1 {
		size = 1
	}
	resultChan := make(chan Result, size)
	b.mu.Lock()
	if _, ok := b.subscribers[key]; !ok {
		b.subscribers[key] = make(map[chan Result]struct{})
	}
	b.subscribers[key][resultChan] = struct{}{}
	if best, ok := b.best[key]; ok && !best.IsExpired() {
		resultChan <- best
	}
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			if subs, ok := b.subscribers[key]; ok {
				delete(subs, resultChan)
				if len(subs) == 0 {
					delete(b.subscribers, key)
				}
			}
			b.mu.Unlock()
			close(resultChan)
		})
	}

	return resultChan, unsub
}

// Publish offers r to the bus. It becomes the new best result for its key if there is no
// previous result, the previous one expired, or r is better and moved significantly.
func (b *GeoBus) Publish(r Result) {
	if r.AccuracyMeters == 0 || !r.Coordinate().Valid() {
		return
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	prev, have := b.best[r.Key]
	if !have || prev.IsExpired() || r.BetterThan(prev) && r.Coordinate().PosHasSignificantChange(prev.Coordinate()) {
		b.best[r.Key] = r
		b.broadcastResult(r)
		b.logger.Debug("new best geolocation result", slog.String("key", r.Key),
			slog.String("source", r.Source), slog.Float64("accuracy", r.AccuracyMeters))
		return
	}

	// Same source reporting again keeps the current best alive
	if prev.Source == r.Source {
		prev.At = r.At
		b.best[r.Key] = prev
	}
}

// Republish broadcasts the current best result for key again, if it is still valid.
func (b *GeoBus) Republish(key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	best, ok := b.best[key]
	if !ok || best.IsExpired() {
		return false
	}
	b.broadcastResult(best)
	return true
}

// broadcastResult never blocks; full subscriber buffers drop the result.
func (b *GeoBus) broadcastResult(r Result) {
	for ch := range b.subscribers[r.Key] {
		select {
		case ch <- r:
		default:
		}
	}
}

// Best returns the best unexpired result for key.
func (b *GeoBus) Best(key string) (Result, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	r, ok := b.best[key]
	return r, ok && !r.IsExpired()
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d *= 2; d > maxBackoff {
		return maxBackoff
	}
	return d
}

// Truncate cuts x down to the given number of decimal places.
func Truncate(x float64, precision int) float64 {
	p := math.Pow(10, float64(precision))
	return math.Trunc(x*p) / p
}
