// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package mainloop

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"testing/synctest"
)

func TestLoop(t *testing.T) {
	t.Run("posted functions run in order", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			loop := New()
			ctx, cancel := context.WithCancel(t.Context())
			go func() { _ = loop.Run(ctx) }()

			var got []int
			for i := range 100 {
				loop.Post(func() { got = append(got, i) })
			}
			loop.Flush()
			cancel()
			synctest.Wait()

			want := make([]int, 100)
			for i := range want {
				want[i] = i
			}
			if !slices.Equal(got, want) {
				t.Errorf("expected functions to run in posting order, got %v", got)
			}
		})
	})
	t.Run("functions posted from many goroutines never run concurrently", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			loop := New()
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()
			go func() { _ = loop.Run(ctx) }()

			counter := 0
			var wg sync.WaitGroup
			for range 10 {
				wg.Go(func() {
					for range 50 {
						loop.Post(func() { counter++ })
					}
				})
			}
			wg.Wait()
			loop.Flush()
			if counter != 500 {
				t.Errorf("expected 500 increments, got %d", counter)
			}
		})
	})
	t.Run("functions may post follow-ups", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			loop := New()
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()
			go func() { _ = loop.Run(ctx) }()

			var got []string
			loop.Post(func() {
				got = append(got, "first")
				loop.Post(func() { got = append(got, "third") })
			})
			loop.Post(func() { got = append(got, "second") })
			loop.Flush()
			loop.Flush()
			if !slices.Equal(got, []string{"first", "second", "third"}) {
				t.Errorf("unexpected order: %v", got)
			}
		})
	})
	t.Run("run returns the context error", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			loop := New()
			ctx, cancel := context.WithCancel(t.Context())
			errs := make(chan error, 1)
			go func() { errs <- loop.Run(ctx) }()
			cancel()
			if err := <-errs; !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		})
	})
	t.Run("post fails after the loop stopped", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			loop := New()
			ctx, cancel := context.WithCancel(t.Context())
			go func() { _ = loop.Run(ctx) }()
			cancel()
			<-loop.Done()
			if loop.Post(func() {}) {
				t.Error("expected post to fail on a stopped loop")
			}
			loop.Flush()
		})
	})
	t.Run("nil functions are rejected", func(t *testing.T) {
		if New().Post(nil) {
			t.Error("expected nil function to be rejected")
		}
	})
}
