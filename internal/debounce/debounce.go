// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package debounce delays a stream of values until it settled for an interval and drops
// settled values equal to the previously delivered one.
package debounce

import (
	"sync"
	"time"
)

type Debouncer[T comparable] struct {
	interval time.Duration
	fire     func(T)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	last    T
	fired   bool
	stopped bool
}

// New returns a Debouncer calling fire on its own goroutine once a pushed value stayed
// unchanged for interval.
func New[T comparable](interval time.Duration, fire func(T)) *Debouncer[T] {
	return &Debouncer[T]{interval: interval, fire: fire}
}

// Push restarts the interval with v as the pending value.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.interval, func() { d.settle(gen, v) })
}

// Stop cancels a pending fire. Values pushed afterwards are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debouncer[T]) settle(gen uint64, v T) {
	d.mu.Lock()
	// A timer that already started can lose against Push or Stop
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	if d.fired && d.last == v {
		d.mu.Unlock()
		return
	}
	d.last = v
	d.fired = true
	d.mu.Unlock()

	d.fire(v)
}
