// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// refreshSignal makes the service re-query all geolocation providers.
const refreshSignal = syscall.SIGUSR1

// signalSource abstracts os/signal so tests can inject signals.
type signalSource interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

type osSignals struct{}

func (osSignals) Notify(c chan<- os.Signal, sig ...os.Signal) { signal.Notify(c, sig...) }
func (osSignals) Stop(c chan<- os.Signal)                     { signal.Stop(c) }

// watchSignals subscribes to the refresh signal and asks the coordinator for a fresh
// device location each time it arrives. It returns once ctx is done.
func (s *Service) watchSignals(ctx context.Context) {
	received := make(chan os.Signal, 1)
	s.signals.Notify(received, refreshSignal)
	defer s.signals.Stop(received)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-received:
			if sig != refreshSignal {
				continue
			}
			s.logger.Debug("refresh signal received", slog.String("signal", sig.String()))
			s.coordinator.RefreshLocation()
		}
	}
}
