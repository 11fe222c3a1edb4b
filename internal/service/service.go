// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package service wires configuration, geocoding, device location and the coordinator
// into a running application.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/vorlif/spreak"
	"golang.org/x/sync/errgroup"

	"github.com/wneessen/placepicker/internal/config"
	"github.com/wneessen/placepicker/internal/coordinator"
	"github.com/wneessen/placepicker/internal/geobus"
	"github.com/wneessen/placepicker/internal/geocode"
	"github.com/wneessen/placepicker/internal/http"
	"github.com/wneessen/placepicker/internal/i18n"
	"github.com/wneessen/placepicker/internal/logger"
	"github.com/wneessen/placepicker/internal/permission"
	"github.com/wneessen/placepicker/internal/presenter"
	"github.com/wneessen/placepicker/internal/template"
)

const (
	DeviceKey = "placepicker"

	geobusBufferSize = 32
)

// PlaceOutput is the JSON representation of a place.
type PlaceOutput struct {
	Name        string  `json:"name"`
	Locality    string  `json:"locality,omitempty"`
	DisplayName string  `json:"display_name,omitempty"`
	Country     string  `json:"country,omitempty"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
}

func NewPlaceOutput(place geocode.Place) PlaceOutput {
	return PlaceOutput{
		Name:        place.Title(),
		Locality:    place.Locality,
		DisplayName: place.DisplayName,
		Country:     place.Country,
		Latitude:    place.Coordinate.Lat,
		Longitude:   place.Coordinate.Lon,
	}
}

type Option func(*Service)

// WithOutput replaces stdout as the target of rendered screens.
func WithOutput(w io.Writer) Option {
	return func(s *Service) { s.output = w }
}

// WithHTTPClient replaces the HTTP client used by all providers.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) { s.httpClient = client }
}

// WithConfirmHandler replaces the default handler that prints the confirmed place as JSON.
func WithConfirmHandler(handler coordinator.ConfirmHandler) Option {
	return func(s *Service) { s.onConfirm = handler }
}

type Service struct {
	config       *config.Config
	logger       *logger.Logger
	localizer    *spreak.Localizer
	httpClient   *http.Client
	geobus       *geobus.GeoBus
	orchestrator *geobus.Orchestrator
	permissions  *permission.Manager
	coordinator  *coordinator.Coordinator
	presenter    *presenter.Presenter
	geocoder     *geocode.CachedGeocoder
	scheduler    gocron.Scheduler
	signals      signalSource
	onConfirm    coordinator.ConfirmHandler

	shutdownOnce sync.Once
	shutdownErr  error

	outputLock sync.Mutex
	output     io.Writer

	locate chan struct{}
}

func New(conf *config.Config, log *logger.Logger, loc *spreak.Localizer, opts ...Option) (*Service, error) {
	service := &Service{
		config:    conf,
		logger:    log,
		localizer: loc,
		geobus:    geobus.New(log),
		output:    os.Stdout,
		signals:   osSignals{},
		locate:    make(chan struct{}, 1),
	}
	service.onConfirm = service.printConfirmation
	for _, opt := range opts {
		opt(service)
	}
	if service.httpClient == nil {
		service.httpClient = http.New(log)
	}

	lang := i18n.Tag(conf.Locale)
	geocoder, err := NewGeocoder(conf, service.httpClient, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocoder: %w", err)
	}
	tpls, err := template.New(conf, loc, template.NewHumanizer(lang))
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	service.presenter = presenter.New(tpls)
	service.geocoder = geocoder

	providers, err := service.selectGeobusProviders()
	if err != nil {
		return nil, fmt.Errorf("failed to select geolocation providers: %w", err)
	}
	service.orchestrator = service.geobus.NewOrchestrator(providers)
	service.permissions = permission.NewManager(permission.NotDetermined, conf.Authorization())

	service.coordinator = coordinator.New(coordinator.Config{
		Debounce:       conf.Search.Debounce,
		Limit:          conf.Search.Limit,
		RegionMeters:   conf.Map.RegionMeters,
		RequestTimeout: conf.Search.Timeout,
	}, geocoder, log,
		coordinator.WithLocator(service),
		coordinator.WithAuthorizer(service.permissions),
		coordinator.WithErrorHandler(service.printError),
		coordinator.WithConfirmHandler(service.onConfirm),
	)

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	service.scheduler = scheduler
	return service, nil
}

func (s *Service) Coordinator() *coordinator.Coordinator {
	return s.coordinator
}

func (s *Service) Permissions() *permission.Manager {
	return s.permissions
}

// Run starts the coordinator and all feeds into it and blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if err := s.createScheduledJob(ctx, s.config.Geocoder.CachePruneInterval, s.pruneCache,
		"geocoder_cache_prune_job"); err != nil {
		_ = s.Shutdown()
		return err
	}
	s.scheduler.Start()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error { return s.coordinator.Run(ctx) })
	group.Go(func() error {
		s.processAuthorizationUpdates(ctx)
		return nil
	})
	group.Go(func() error {
		s.processLocationUpdates(ctx)
		return nil
	})
	group.Go(func() error {
		s.trackOnRequest(ctx)
		return nil
	})
	group.Go(func() error {
		s.renderUpdates(ctx)
		return nil
	})
	if !s.config.GeoLocation.DisableSleepMonitor {
		group.Go(func() error {
			newResumeWatcher(s.logger, s.coordinator.RefreshLocation).Watch(ctx)
			return nil
		})
	}

	group.Go(func() error {
		s.watchSignals(ctx)
		return nil
	})

	err := group.Wait()
	s.coordinator.Close()
	if shutdownErr := s.Shutdown(); shutdownErr != nil {
		s.logger.Error("failed to shut down scheduler", logger.Err(shutdownErr))
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Shutdown stops the scheduler. Run calls it on return, later calls are no-ops.
func (s *Service) Shutdown() error {
	s.shutdownOnce.Do(func() {
		s.shutdownErr = s.scheduler.Shutdown()
	})
	return s.shutdownErr
}

// createScheduledJob runs task every interval. A run that would overlap the previous one
// is rescheduled instead.
func (s *Service) createScheduledJob(ctx context.Context, interval time.Duration, task func(context.Context),
	jobName string,
) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(jobName),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", jobName, err)
	}
	return nil
}

// RequestLocation asks for a device location fix. The first request starts tracking
// with all providers, later ones re-publish the best known result.
func (s *Service) RequestLocation() {
	select {
	case s.locate <- struct{}{}:
	default:
	}
}

func (s *Service) trackOnRequest(ctx context.Context) {
	var wg sync.WaitGroup
	defer wg.Wait()

	tracking := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.locate:
			if tracking {
				if !s.geobus.Republish(DeviceKey) {
					s.logger.Debug("no device location known yet")
				}
				continue
			}
			tracking = true
			s.logger.Debug("starting device location tracking", slog.Int("providers", len(s.orchestrator.Providers)))
			wg.Go(func() { s.orchestrator.Track(ctx, DeviceKey) })
		}
	}
}

func (s *Service) pruneCache(context.Context) {
	if removed := s.geocoder.Prune(time.Now()); removed > 0 {
		s.logger.Debug("pruned expired geocoder cache entries", slog.Int("removed", removed))
	}
}

// processLocationUpdates hands every best device location from the geobus to the coordinator.
func (s *Service) processLocationUpdates(ctx context.Context) {
	sub, unsub := s.geobus.Subscribe(DeviceKey, geobusBufferSize)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-sub:
			if !ok {
				return
			}
			s.logger.Debug("received geolocation update",
				slog.Float64("lat", r.Lat), slog.Float64("lon", r.Lon), slog.String("source", r.Source))
			s.coordinator.OnDeviceLocation(r.Coordinate())
		}
	}
}

func (s *Service) processAuthorizationUpdates(ctx context.Context) {
	sub, unsub := s.permissions.Subscribe()
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case status, ok := <-sub:
			if !ok {
				return
			}
			s.coordinator.OnAuthorizationChanged(status)
		}
	}
}

// renderUpdates renders the active screen after every state change.
func (s *Service) renderUpdates(ctx context.Context) {
	sub, unsub := s.coordinator.Subscribe()
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-sub:
			if !ok {
				return
			}
			buf := bytes.NewBuffer(nil)
			if err := s.presenter.Render(buf, state); err != nil {
				s.logger.Error("failed to render screen", logger.Err(err))
				continue
			}
			s.write(buf.Bytes())
		}
	}
}

func (s *Service) printError(err error) {
	s.write([]byte(s.localizer.Getf("Error: %s", err) + "\n"))
}

func (s *Service) printConfirmation(confirmation coordinator.Confirmation) {
	output := NewPlaceOutput(confirmation.Place)
	output.Latitude = confirmation.Coordinate.Lat
	output.Longitude = confirmation.Coordinate.Lon

	buf := bytes.NewBuffer(nil)
	if err := json.NewEncoder(buf).Encode(output); err != nil {
		s.logger.Error("failed to encode confirmed place", logger.Err(err))
		return
	}
	s.write(buf.Bytes())
}

// Println writes a line to the service output.
func (s *Service) Println(line string) {
	s.write([]byte(line + "\n"))
}

func (s *Service) write(data []byte) {
	s.outputLock.Lock()
	defer s.outputLock.Unlock()
	if _, err := s.output.Write(data); err != nil {
		s.logger.Error("failed to write output", logger.Err(err))
	}
}
