// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package coordinator owns the search and pick interaction. All state lives in a single
// store that is only mutated on the coordinator's event loop. Network completions are
// marshalled back onto the loop and only applied when they belong to the most recently
// issued request.
package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/wneessen/placepicker/internal/debounce"
	"github.com/wneessen/placepicker/internal/geocode"
	"github.com/wneessen/placepicker/internal/logger"
	"github.com/wneessen/placepicker/internal/mainloop"
	"github.com/wneessen/placepicker/internal/store"
)

const (
	DefaultDebounce       = 500 * time.Millisecond
	DefaultLimit          = 10
	DefaultRegionMeters   = 1000
	DefaultRequestTimeout = 15 * time.Second
)

var (
	ErrNoDeviceLocation    = errors.New("device location is not available")
	ErrInvalidCoordinate   = errors.New("coordinate is out of range")
	ErrLocationDenied      = errors.New("location access was denied")
	ErrCandidateOutOfRange = errors.New("candidate index is out of range")
	ErrNoPin               = errors.New("no pin on the map")
	ErrPlaceNotFound       = errors.New("no place found at coordinate")
	ErrNothingToConfirm    = errors.New("no resolved place to confirm")
)

// Locator requests a device location fix. Fixes arrive via OnDeviceLocation.
type Locator interface {
	RequestLocation()
}

// Authorizer requests location authorization. Changes arrive via OnAuthorizationChanged.
type Authorizer interface {
	RequestWhenInUse()
}

type (
	ErrorHandler   func(error)
	ConfirmHandler func(Confirmation)
)

type Config struct {
	Debounce       time.Duration
	Limit          int
	RegionMeters   float64
	RequestTimeout time.Duration
}

type Option func(*Coordinator)

func WithLocator(locator Locator) Option {
	return func(c *Coordinator) { c.locator = locator }
}

func WithAuthorizer(authorizer Authorizer) Option {
	return func(c *Coordinator) { c.authorizer = authorizer }
}

func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *Coordinator) { c.onError = handler }
}

// WithConfirmHandler wires the confirm action. Without it Confirm is a no-op.
func WithConfirmHandler(handler ConfirmHandler) Option {
	return func(c *Coordinator) { c.onConfirm = handler }
}

type Coordinator struct {
	config     Config
	geocoder   geocode.Geocoder
	locator    Locator
	authorizer Authorizer
	logger     *logger.Logger
	onError    ErrorHandler
	onConfirm  ConfirmHandler

	loop      *mainloop.Loop
	store     *store.Store[State]
	debouncer *debounce.Debouncer[string]

	ctx    context.Context
	cancel context.CancelFunc

	// loop confined
	searches inflight
	reverses inflight
}

// inflight tracks the latest request of one kind. Starting a new request cancels the
// previous one, and the new one only starts once the previous returned, so a cancelled
// request hands its rate limiter slot back before its successor asks for one.
type inflight struct {
	seq    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

type request struct {
	seq    uint64
	ctx    context.Context
	cancel context.CancelFunc
	prev   <-chan struct{}
	done   chan struct{}
}

func (f *inflight) next(parent context.Context, timeout time.Duration) request {
	f.drop()
	ctx, cancel := context.WithTimeout(parent, timeout)
	req := request{seq: f.seq, ctx: ctx, cancel: cancel, prev: f.done, done: make(chan struct{})}
	f.cancel, f.done = cancel, req.done
	return req
}

// drop invalidates and cancels the current request.
func (f *inflight) drop() {
	f.seq++
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

func (f *inflight) latest(seq uint64) bool {
	return seq == f.seq
}

// wait blocks until the predecessor of r returned.
func (r request) wait() {
	if r.prev != nil {
		<-r.prev
	}
}

func (r request) finish() {
	r.cancel()
	close(r.done)
}

func New(config Config, geocoder geocode.Geocoder, log *logger.Logger, opts ...Option) *Coordinator {
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.Limit <= 0 {
		config.Limit = DefaultLimit
	}
	if config.RegionMeters <= 0 {
		config.RegionMeters = DefaultRegionMeters
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultRequestTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		config:   config,
		geocoder: geocoder,
		logger:   log,
		loop:     mainloop.New(),
		store:    store.New(State{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.debouncer = debounce.New(config.Debounce, c.onQuerySettled)
	return c
}

// Run requests location authorization and processes events until ctx is done.
func (c *Coordinator) Run(ctx context.Context) error {
	if c.authorizer != nil {
		c.loop.Post(c.authorizer.RequestWhenInUse)
	}
	return c.loop.Run(ctx)
}

// Flush waits until all events posted so far were processed.
func (c *Coordinator) Flush() {
	c.loop.Flush()
}

// Close stops the debouncer and abandons all in-flight requests.
func (c *Coordinator) Close() {
	c.debouncer.Stop()
	c.cancel()
}

func (c *Coordinator) State() State {
	return c.store.Get()
}

// Subscribe delivers the current state and the latest state after every change.
func (c *Coordinator) Subscribe() (<-chan State, func()) {
	return c.store.Subscribe()
}

// Confirm hands the picked location and its place to the confirm handler.
func (c *Coordinator) Confirm() {
	c.post(func() {
		state := c.store.Get()
		coord, hasLocation := state.PickedLocation.Get()
		place, hasPlace := state.PickedPlace.Get()
		if !hasLocation || !hasPlace {
			c.report(ErrNothingToConfirm)
			return
		}
		if c.onConfirm == nil {
			c.logger.Debug("confirm action is not wired", "coordinate", coord.String())
			return
		}
		c.onConfirm(Confirmation{Coordinate: coord, Place: place})
	})
}

func (c *Coordinator) post(fn func()) {
	if !c.loop.Post(fn) {
		c.logger.Debug("event loop stopped, dropping event")
	}
}

// report routes an error to the error hook. Only call on the loop.
func (c *Coordinator) report(err error) {
	c.logger.Error("interaction failed", logger.Err(err))
	if c.onError != nil {
		c.onError(err)
	}
}
