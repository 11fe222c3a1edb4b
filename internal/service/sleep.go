// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/wneessen/placepicker/internal/logger"
)

const (
	logindInterface = "org.freedesktop.login1.Manager"
	logindMember    = "PrepareForSleep"

	resumeDebounce   = 2 * time.Second
	signalBufferSize = 8

	busRetryDelay       = 5 * time.Second
	networkSettleDelay  = 10 * time.Second
	resubscribeDelay    = 2 * time.Second
	matchRuleRetryDelay = 10 * time.Second
)

// resumeWatcher calls onResume whenever logind reports that the system woke up.
type resumeWatcher struct {
	logger     *logger.Logger
	onResume   func()
	settle     time.Duration
	lastResume time.Time
}

func newResumeWatcher(log *logger.Logger, onResume func()) *resumeWatcher {
	return &resumeWatcher{logger: log, onResume: onResume, settle: networkSettleDelay}
}

// Watch keeps a system bus subscription alive until ctx is cancelled.
func (w *resumeWatcher) Watch(ctx context.Context) {
	for {
		conn, ok := w.connect(ctx)
		if !ok {
			return
		}

		signals := make(chan *dbus.Signal, signalBufferSize)
		conn.Signal(signals)
		w.logger.Debug("watching for resume events", slog.String("interface", logindInterface),
			slog.String("member", logindMember))
		w.consume(ctx, signals)

		conn.RemoveSignal(signals)
		if err := conn.Close(); err != nil {
			w.logger.Error("failed to close system bus connection", logger.Err(err))
		}
		if !wait(ctx, resubscribeDelay) {
			return
		}
	}
}

// connect returns a system bus connection with the logind match rule installed.
func (w *resumeWatcher) connect(ctx context.Context) (*dbus.Conn, bool) {
	for {
		conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
		if err != nil {
			w.logger.Debug("system bus not available", logger.Err(err))
			if !wait(ctx, busRetryDelay) {
				return nil, false
			}
			continue
		}

		err = conn.AddMatchSignal(dbus.WithMatchInterface(logindInterface), dbus.WithMatchMember(logindMember))
		if err == nil {
			return conn, true
		}
		w.logger.Error("failed to add dbus match rule", slog.String("member", logindMember), logger.Err(err))
		if err = conn.Close(); err != nil {
			w.logger.Error("failed to close system bus connection", logger.Err(err))
		}
		if !wait(ctx, matchRuleRetryDelay) {
			return nil, false
		}
	}
}

// consume returns when ctx is done or the bus closes the signal channel.
func (w *resumeWatcher) consume(ctx context.Context, signals <-chan *dbus.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-signals:
			if !ok {
				return
			}
			w.handle(ctx, sig)
		}
	}
}

// handle reacts to PrepareForSleep(false). Resumes closer together than resumeDebounce
// count as one.
func (w *resumeWatcher) handle(ctx context.Context, sig *dbus.Signal) {
	if sig == nil || len(sig.Body) != 1 {
		return
	}
	if sleeping, ok := sig.Body[0].(bool); !ok || sleeping {
		return
	}

	now := time.Now()
	if !w.lastResume.IsZero() && now.Sub(w.lastResume) < resumeDebounce {
		return
	}
	w.lastResume = now

	// the network usually needs a moment after wake-up
	if !wait(ctx, w.settle) {
		return
	}
	w.logger.Debug("system resumed, refreshing device location")
	w.onResume()
}

func wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
