// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package permission models the location authorization of the application.
package permission

import (
	"fmt"
	"strings"
	"sync"
)

type Status int

const (
	NotDetermined Status = iota
	AuthorizedWhenInUse
	AuthorizedAlways
	Denied
	Restricted
)

var names = map[Status]string{
	NotDetermined:       "not-determined",
	AuthorizedWhenInUse: "when-in-use",
	AuthorizedAlways:    "always",
	Denied:              "denied",
	Restricted:          "restricted",
}

func (s Status) String() string {
	if name, ok := names[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Granted reports whether the status allows location fixes.
func (s Status) Granted() bool {
	return s == AuthorizedWhenInUse || s == AuthorizedAlways
}

// ParseStatus parses the textual form returned by Status.String.
func ParseStatus(value string) (Status, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for status, name := range names {
		if name == value {
			return status, nil
		}
	}
	return NotDetermined, fmt.Errorf("unknown authorization status %q", value)
}

// Manager holds the current authorization and pushes changes to its subscribers.
// Without a system dialog, RequestWhenInUse answers an undetermined authorization with
// the configured grant.
type Manager struct {
	mu     sync.Mutex
	status Status
	grant  Status
	next   int
	subs   map[int]chan Status
}

func NewManager(initial, grant Status) *Manager {
	return &Manager{
		status: initial,
		grant:  grant,
		subs:   make(map[int]chan Status),
	}
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Set changes the authorization. Subscribers are only notified on a change.
func (m *Manager) Set(status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(status)
}

// RequestWhenInUse asks for authorization. Only an undetermined status is answered.
func (m *Manager) RequestWhenInUse() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != NotDetermined {
		return
	}
	m.set(m.grant)
}

// set requires m.mu to be held.
func (m *Manager) set(status Status) {
	if status == m.status {
		return
	}
	m.status = status
	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- status:
		default:
		}
	}
}

// Subscribe delivers the current status immediately and afterwards every change. A slow
// reader only sees the most recent status.
func (m *Manager) Subscribe() (<-chan Status, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.next
	m.next++
	ch := make(chan Status, 1)
	ch <- m.status
	m.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subs, id)
			close(ch)
		})
	}
}
