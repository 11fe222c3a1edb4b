// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"io"
	"testing"
	"testing/synctest"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/wneessen/placepicker/internal/logger"
)

func TestResumeWatcher_handle(t *testing.T) {
	resumed := &dbus.Signal{Name: logindInterface + "." + logindMember, Body: []any{false}}

	t.Run("resume triggers a refresh after the network settled", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			watcher, calls := testWatcher()
			watcher.handle(t.Context(), resumed)
			if *calls != 1 {
				t.Errorf("expected 1 refresh, got %d", *calls)
			}
		})
	})
	t.Run("going to sleep is ignored", func(t *testing.T) {
		watcher, calls := testWatcher()
		watcher.handle(t.Context(), &dbus.Signal{Body: []any{true}})
		if *calls != 0 {
			t.Errorf("expected no refresh, got %d", *calls)
		}
	})
	t.Run("malformed signals are ignored", func(t *testing.T) {
		watcher, calls := testWatcher()
		watcher.handle(t.Context(), nil)
		watcher.handle(t.Context(), &dbus.Signal{Body: []any{"false"}})
		watcher.handle(t.Context(), &dbus.Signal{Body: []any{false, false}})
		if *calls != 0 {
			t.Errorf("expected no refresh, got %d", *calls)
		}
	})
	t.Run("repeated resumes are debounced", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			watcher, calls := testWatcher()
			watcher.settle = 0
			watcher.handle(t.Context(), resumed)
			time.Sleep(time.Second)
			watcher.handle(t.Context(), resumed)
			time.Sleep(resumeDebounce)
			watcher.handle(t.Context(), resumed)
			if *calls != 2 {
				t.Errorf("expected 2 refreshes, got %d", *calls)
			}
		})
	})
	t.Run("cancelled context skips the refresh", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			watcher, calls := testWatcher()
			ctx, cancel := context.WithCancel(t.Context())
			cancel()
			watcher.handle(ctx, resumed)
			if *calls != 0 {
				t.Errorf("expected no refresh, got %d", *calls)
			}
		})
	})
}

func testWatcher() (*resumeWatcher, *int) {
	calls := 0
	return newResumeWatcher(logger.NewLogger(0, io.Discard), func() { calls++ }), &calls
}
