// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package mainloop provides a single-consumer event loop. Every state mutation in the
// application runs on the loop, async completions are marshalled back with Post.
package mainloop

import (
	"context"
	"sync"
)

type Loop struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post enqueues fn for execution on the loop. It never blocks and returns false once the
// loop has stopped.
func (l *Loop) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Run executes the queued functions in FIFO order on the calling goroutine until ctx is
// done. Functions still queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stop()
	for {
		for _, fn := range l.take() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fn()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Flush blocks until every function posted before the call has run, or the loop stopped.
// It must not be called from a function running on the loop.
func (l *Loop) Flush() {
	flushed := make(chan struct{})
	if !l.Post(func() { close(flushed) }) {
		return
	}
	select {
	case <-flushed:
	case <-l.done:
	}
}

// Done is closed when the loop has stopped.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) take() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	queue := l.queue
	l.queue = nil
	return queue
}

func (l *Loop) stop() {
	l.once.Do(func() {
		l.mu.Lock()
		l.stopped = true
		l.queue = nil
		l.mu.Unlock()
		close(l.done)
	})
}
