// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/wneessen/placepicker/internal/geobus"
)

// RateLimitedGeocoder spaces the requests to the wrapped Geocoder according to a
// token bucket limiter.
type RateLimitedGeocoder struct {
	coder   Geocoder
	limiter *rate.Limiter
}

// NewRateLimitedGeocoder allows perSecond requests per second with a burst of one.
// A non-positive rate disables limiting.
func NewRateLimitedGeocoder(coder Geocoder, perSecond float64) *RateLimitedGeocoder {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &RateLimitedGeocoder{
		coder:   coder,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (r *RateLimitedGeocoder) Name() string {
	return r.coder.Name()
}

func (r *RateLimitedGeocoder) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}
	return r.coder.Search(ctx, query, limit)
}

func (r *RateLimitedGeocoder) Reverse(ctx context.Context, coords geobus.Coordinate) (Place, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return Place{}, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}
	return r.coder.Reverse(ctx, coords)
}
