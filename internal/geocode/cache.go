// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/wneessen/placepicker/internal/geobus"
)

// coordPrecision is the precision used to quantize coordinates (0.00001 degrees ≈ 1.1 m).
// A dragged pin has to resolve to the place under it, so entries are only shared between
// coordinates a metre apart.
const coordPrecision = 1e-5

type reverseKey struct {
	Provider string
	LatQ     int32
	LonQ     int32
}

type searchKey struct {
	Provider string
	Query    string
	Limit    int
}

type cacheEntry[T any] struct {
	Value  T
	Expiry time.Time
}

// CachedGeocoder keeps successful lookups of the wrapped Geocoder for ttlHit and empty
// ones for ttlMiss. Errors are never cached.
type CachedGeocoder struct {
	coder   Geocoder
	ttlHit  time.Duration
	ttlMiss time.Duration

	mu       sync.RWMutex
	reverse  map[reverseKey]cacheEntry[Place]
	searches map[searchKey]cacheEntry[[]Place]
}

func NewCachedGeocoder(coder Geocoder, ttlHit, ttlMiss time.Duration) *CachedGeocoder {
	return &CachedGeocoder{
		coder:    coder,
		ttlHit:   ttlHit,
		ttlMiss:  ttlMiss,
		reverse:  make(map[reverseKey]cacheEntry[Place]),
		searches: make(map[searchKey]cacheEntry[[]Place]),
	}
}

func (c *CachedGeocoder) Name() string {
	return "geocoder cache using " + c.coder.Name()
}

func (c *CachedGeocoder) Reverse(ctx context.Context, coords geobus.Coordinate) (Place, error) {
	key := newReverseKey(c.coder.Name(), coords.Lat, coords.Lon)

	c.mu.RLock()
	entry, ok := c.reverse[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.Expiry) {
		place := entry.Value
		place.CacheHit = true
		return place, nil
	}

	place, err := c.coder.Reverse(ctx, coords)
	if err != nil {
		return place, err
	}

	ttl := c.ttlHit
	if !place.Found {
		ttl = c.ttlMiss
	}
	c.mu.Lock()
	c.reverse[key] = cacheEntry[Place]{Value: place, Expiry: time.Now().Add(ttl)}
	c.mu.Unlock()

	return place, nil
}

func (c *CachedGeocoder) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	key := searchKey{
		Provider: c.coder.Name(),
		Query:    strings.ToLower(strings.TrimSpace(query)),
		Limit:    limit,
	}

	c.mu.RLock()
	entry, ok := c.searches[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.Expiry) {
		places := slices.Clone(entry.Value)
		for i := range places {
			places[i].CacheHit = true
		}
		return places, nil
	}

	places, err := c.coder.Search(ctx, query, limit)
	if err != nil {
		return places, err
	}

	ttl := c.ttlHit
	if len(places) == 0 {
		ttl = c.ttlMiss
	}
	c.mu.Lock()
	c.searches[key] = cacheEntry[[]Place]{Value: slices.Clone(places), Expiry: time.Now().Add(ttl)}
	c.mu.Unlock()

	return places, nil
}

func quantizeCoord(val float64) int32 {
	return int32(math.Round(val / coordPrecision))
}

func newReverseKey(provider string, lat, lon float64) reverseKey {
	return reverseKey{
		Provider: provider,
		LatQ:     quantizeCoord(lat),
		LonQ:     quantizeCoord(lon),
	}
}

// Prune removes all entries that expired before now and returns how many were removed.
func (c *CachedGeocoder) Prune(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.reverse {
		if !now.Before(entry.Expiry) {
			delete(c.reverse, key)
			removed++
		}
	}
	for key, entry := range c.searches {
		if !now.Before(entry.Expiry) {
			delete(c.searches, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of cached lookups, expired ones included.
func (c *CachedGeocoder) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.reverse) + len(c.searches)
}
