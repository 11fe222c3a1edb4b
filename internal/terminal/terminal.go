// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package terminal reads line commands and turns them into coordinator events.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vorlif/spreak"

	"github.com/wneessen/placepicker/internal/coordinator"
	"github.com/wneessen/placepicker/internal/geobus"
	"github.com/wneessen/placepicker/internal/permission"
)

var (
	ErrInvalidIndex      = errors.New("candidate number must be a positive integer")
	ErrInvalidCoordinate = errors.New("coordinate must be given as LAT,LON")
	ErrMissingArgument   = errors.New("missing argument")
)

// Coordinator is the set of interactions the terminal can trigger.
type Coordinator interface {
	SetQuery(text string)
	SelectCandidateAt(index int)
	UseCurrentLocation()
	OnPinDragged(coord geobus.Coordinate)
	OnConfirmationClosed()
	Confirm()
	State() coordinator.State
}

// Authorization receives authorization changes typed by the user.
type Authorization interface {
	Set(status permission.Status)
}

// Terminal parses one command per line. Parsing errors are printed and never stop the loop.
type Terminal struct {
	coordinator Coordinator
	auth        Authorization
	localizer   *spreak.Localizer
	output      func(string)
}

// New returns a Terminal that prints hints through output.
func New(coord Coordinator, auth Authorization, loc *spreak.Localizer, output func(string)) *Terminal {
	return &Terminal{
		coordinator: coord,
		auth:        auth,
		localizer:   loc,
		output:      output,
	}
}

// Run reads commands from input until ctx is done, input ends or /quit is entered.
func (t *Terminal) Run(ctx context.Context, input io.Reader) error {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				errs <- nil
				return
			}
		}
		errs <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-errs; err != nil {
					return fmt.Errorf("failed to read input: %w", err)
				}
				return nil
			}
			if quit := t.Handle(line); quit {
				return nil
			}
		}
	}
}

// Handle executes a single line and reports whether the session should end.
func (t *Terminal) Handle(line string) bool {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		t.coordinator.SetQuery(line)
		return false
	}

	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(command) {
	case "/quit", "/exit":
		return true
	case "/clear":
		t.coordinator.SetQuery("")
	case "/pick":
		if state := t.coordinator.State(); state.Screen != coordinator.ScreenSearch || len(state.Candidates) == 0 {
			t.unavailable(command)
			return false
		}
		index, err := parseIndex(arg)
		if err != nil {
			t.invalid(err)
			return false
		}
		t.coordinator.SelectCandidateAt(index)
	case "/here":
		// only offered while the search screen has no candidates
		if state := t.coordinator.State(); state.Screen != coordinator.ScreenSearch || len(state.Candidates) > 0 {
			t.unavailable(command)
			return false
		}
		t.coordinator.UseCurrentLocation()
	case "/drag":
		if t.coordinator.State().Screen != coordinator.ScreenMap {
			t.unavailable(command)
			return false
		}
		coord, err := ParseCoordinate(arg)
		if err != nil {
			t.invalid(err)
			return false
		}
		t.coordinator.OnPinDragged(coord)
	case "/back":
		t.coordinator.OnConfirmationClosed()
	case "/confirm":
		t.coordinator.Confirm()
	case "/auth":
		status, err := permission.ParseStatus(arg)
		if err != nil {
			t.invalid(err)
			return false
		}
		t.auth.Set(status)
	case "/help":
		t.output(t.localizer.Get("Commands: /pick N, /here, /drag LAT,LON, /back, /confirm, /auth STATUS, /clear, /quit"))
	default:
		t.output(t.localizer.Getf("Unknown command %q, try /help", command))
	}
	return false
}

func (t *Terminal) unavailable(command string) {
	t.output(t.localizer.Getf("%s is not available on this screen", command))
}

func (t *Terminal) invalid(err error) {
	t.output(t.localizer.Getf("Invalid argument: %s", err))
}

// parseIndex converts a 1-based candidate number into a 0-based index.
func parseIndex(arg string) (int, error) {
	if arg == "" {
		return 0, ErrMissingArgument
	}
	number, err := strconv.Atoi(arg)
	if err != nil || number < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIndex, arg)
	}
	return number - 1, nil
}

// ParseCoordinate parses "LAT,LON" or "LAT LON". Range validation is left to the receiver.
func ParseCoordinate(arg string) (geobus.Coordinate, error) {
	if arg == "" {
		return geobus.Coordinate{}, ErrMissingArgument
	}
	fields := strings.FieldsFunc(arg, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) != 2 {
		return geobus.Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, arg)
	}
	lat, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return geobus.Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, arg)
	}
	lon, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return geobus.Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, arg)
	}
	return geobus.Coordinate{Lat: lat, Lon: lon}, nil
}
