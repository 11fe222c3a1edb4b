// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/wneessen/placepicker/internal/config"
	"github.com/wneessen/placepicker/internal/geobus"
	"github.com/wneessen/placepicker/internal/geobus/provider/geoip"
	"github.com/wneessen/placepicker/internal/geobus/provider/geolocation_file"
	"github.com/wneessen/placepicker/internal/geobus/provider/gpsd"
	"github.com/wneessen/placepicker/internal/geobus/provider/ichnaea"
	"github.com/wneessen/placepicker/internal/geocode"
	geocodeearth "github.com/wneessen/placepicker/internal/geocode/provider/geocode-earth"
	"github.com/wneessen/placepicker/internal/geocode/provider/opencage"
	nominatim "github.com/wneessen/placepicker/internal/geocode/provider/osm-nominatim"
	"github.com/wneessen/placepicker/internal/http"
	"github.com/wneessen/placepicker/internal/logger"
)

var ErrNoGeolocationProvider = errors.New("no geolocation providers enabled")

func (s *Service) selectGeobusProviders() ([]geobus.Provider, error) {
	var provider []geobus.Provider

	if !s.config.GeoLocation.DisableGeolocationFile {
		provider = append(provider, geolocation_file.NewGeolocationFileProvider(s.config.GeoLocation.File))
	}

	if !s.config.GeoLocation.DisableGPSD {
		provider = append(provider, gpsd.NewGeolocationGPSDProvider(s.config.GeoLocation.GPSDHost,
			s.config.GeoLocation.GPSDPort))
	}

	if !s.config.GeoLocation.DisableGeoIP {
		gip, err := geoip.NewGeolocationGeoIPProvider(s.httpClient)
		if err != nil {
			return nil, fmt.Errorf("failed to create GeoIP provider: %w", err)
		}
		provider = append(provider, gip)
	}

	if !s.config.GeoLocation.DisableICHNAEA {
		mls, err := ichnaea.NewGeolocationICHNAEAProvider(s.httpClient)
		if err != nil {
			s.logger.Error("failed to create ICHNAEA provider", logger.Err(err))
		} else {
			provider = append(provider, mls)
		}
	}
	if len(provider) == 0 {
		return nil, ErrNoGeolocationProvider
	}

	return provider, nil
}

// NewGeocoder builds the configured geocoding provider. Nominatim is rate limited to honor
// its usage policy and every provider is cached.
func NewGeocoder(conf *config.Config, client *http.Client, lang language.Tag) (*geocode.CachedGeocoder, error) {
	var geocoder geocode.Geocoder

	switch strings.ToLower(conf.Geocoder.Provider) {
	case config.ProviderNominatim:
		osm := nominatim.New(client, lang)
		if conf.Geocoder.BaseURL != "" {
			osm = osm.WithBaseURL(conf.Geocoder.BaseURL)
		}
		geocoder = geocode.NewRateLimitedGeocoder(osm, conf.Geocoder.RateLimit)
	case config.ProviderOpenCage:
		oc, err := opencage.New(client, lang, conf.Geocoder.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create opencage geocoder: %w", err)
		}
		geocoder = oc
	case config.ProviderGeocodeEarth:
		ge, err := geocodeearth.New(client, lang, conf.Geocoder.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create geocode-earth geocoder: %w", err)
		}
		geocoder = ge
	default:
		return nil, fmt.Errorf("unsupported geocoder type: %s", conf.Geocoder.Provider)
	}

	return geocode.NewCachedGeocoder(geocoder, conf.Geocoder.CacheHitTTL, conf.Geocoder.CacheMissTTL), nil
}
