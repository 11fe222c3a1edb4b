// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"testing"
	"testing/synctest"
	"time"
)

func TestRateLimitedGeocoder(t *testing.T) {
	t.Run("name is passed through", func(t *testing.T) {
		coder := NewRateLimitedGeocoder(&mockGeocoder{}, 1)
		if coder.Name() != "mock" {
			t.Errorf("expected name to be mock, got %q", coder.Name())
		}
	})
	t.Run("requests are spaced by the limit", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			coder := NewRateLimitedGeocoder(&mockGeocoder{}, 1)
			start := time.Now()
			for range 3 {
				if _, err := coder.Search(t.Context(), "eiffel", 10); err != nil {
					t.Fatal(err)
				}
			}
			if _, err := coder.Reverse(t.Context(), testCoords); err != nil {
				t.Fatal(err)
			}
			if elapsed := time.Since(start); elapsed < 3*time.Second {
				t.Errorf("expected at least 3s between four requests, got %s", elapsed)
			}
		})
	})
	t.Run("a non-positive rate disables limiting", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			coder := NewRateLimitedGeocoder(&mockGeocoder{}, 0)
			start := time.Now()
			for range 5 {
				if _, err := coder.Reverse(t.Context(), testCoords); err != nil {
					t.Fatal(err)
				}
			}
			if elapsed := time.Since(start); elapsed != 0 {
				t.Errorf("expected no waiting, got %s", elapsed)
			}
		})
	})
	t.Run("waiting honours context cancellation", func(t *testing.T) {
		coder := NewRateLimitedGeocoder(&mockGeocoder{}, 0.001)
		if _, err := coder.Search(t.Context(), "eiffel", 10); err != nil {
			t.Fatal(err)
		}
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		if _, err := coder.Search(ctx, "eiffel", 10); err == nil {
			t.Error("expected the canceled wait to fail")
		}
	})
}
