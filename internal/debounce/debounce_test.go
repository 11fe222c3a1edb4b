// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package debounce

import (
	"slices"
	"sync"
	"testing"
	"testing/synctest"
	"time"
)

const testInterval = 500 * time.Millisecond

type recorder struct {
	mu    sync.Mutex
	fired []string
}

func (r *recorder) fire(v string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, v)
}

func (r *recorder) values() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.fired)
}

func TestDebouncer(t *testing.T) {
	t.Run("values are delivered after the interval", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			rec := &recorder{}
			d := New(testInterval, rec.fire)
			d.Push("paris")
			time.Sleep(testInterval - time.Millisecond)
			synctest.Wait()
			if len(rec.values()) != 0 {
				t.Fatal("expected no fire before the interval elapsed")
			}
			time.Sleep(time.Millisecond)
			synctest.Wait()
			if got := rec.values(); !slices.Equal(got, []string{"paris"}) {
				t.Errorf("expected [paris], got %v", got)
			}
		})
	})
	t.Run("rapid pushes collapse into the last value", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			rec := &recorder{}
			d := New(testInterval, rec.fire)
			for _, v := range []string{"p", "pa", "par", "pari", "paris"} {
				d.Push(v)
				time.Sleep(100 * time.Millisecond)
			}
			time.Sleep(testInterval)
			synctest.Wait()
			if got := rec.values(); !slices.Equal(got, []string{"paris"}) {
				t.Errorf("expected [paris], got %v", got)
			}
		})
	})
	t.Run("settled duplicates are dropped", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			rec := &recorder{}
			d := New(testInterval, rec.fire)
			d.Push("paris")
			time.Sleep(testInterval * 2)
			d.Push("parisx")
			time.Sleep(100 * time.Millisecond)
			d.Push("paris")
			time.Sleep(testInterval * 2)
			d.Push("berlin")
			time.Sleep(testInterval * 2)
			d.Push("paris")
			time.Sleep(testInterval * 2)
			synctest.Wait()
			if got := rec.values(); !slices.Equal(got, []string{"paris", "berlin", "paris"}) {
				t.Errorf("expected [paris berlin paris], got %v", got)
			}
		})
	})
	t.Run("the first value is never suppressed", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			rec := &recorder{}
			d := New(testInterval, rec.fire)
			d.Push("")
			time.Sleep(testInterval * 2)
			synctest.Wait()
			if got := rec.values(); !slices.Equal(got, []string{""}) {
				t.Errorf("expected the zero value to fire, got %q", got)
			}
		})
	})
	t.Run("stop cancels a pending fire", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			rec := &recorder{}
			d := New(testInterval, rec.fire)
			d.Push("paris")
			time.Sleep(testInterval / 2)
			d.Stop()
			d.Push("berlin")
			time.Sleep(testInterval * 2)
			synctest.Wait()
			if got := rec.values(); len(got) != 0 {
				t.Errorf("expected no fire after stop, got %v", got)
			}
		})
	})
}
