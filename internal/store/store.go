// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package store implements an observable state container with latest-value delivery.
package store

import "sync"

// Store holds a single value of S. Subscribers receive value copies of S, so slices and
// maps inside S must be replaced on update, never modified in place.
type Store[S any] struct {
	mu    sync.Mutex
	state S
	next  int
	subs  map[int]chan S
}

func New[S any](initial S) *Store[S] {
	return &Store[S]{
		state: initial,
		subs:  make(map[int]chan S),
	}
}

// Get returns a snapshot of the current state.
func (s *Store[S]) Get() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Update applies fn to the state and notifies all subscribers with the result.
func (s *Store[S]) Update(fn func(*S)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
	for _, ch := range s.subs {
		offer(ch, s.state)
	}
}

// Subscribe returns a channel that immediately carries the current state and afterwards
// the latest state after every update. A slow reader skips intermediate states but never
// misses the most recent one. The returned func unsubscribes and closes the channel.
func (s *Store[S]) Subscribe() (<-chan S, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	ch := make(chan S, 1)
	ch <- s.state
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// offer replaces an undelivered snapshot with state. Only Update sends, under the lock,
// so there is always room after the drain.
func offer[S any](ch chan S, state S) {
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- state:
	default:
	}
}
