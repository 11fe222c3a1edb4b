// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geoip approximates the device location from the public IP address.
package geoip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/placepicker/internal/geobus"
	"github.com/wneessen/placepicker/internal/http"
)

const (
	APIEndpoint   = "https://reallyfreegeoip.org/json/"
	LookupTimeout = time.Second * 5
	name          = "geoip"
)

type GeolocationGeoIPProvider struct {
	http   *http.Client
	poller geobus.Poller
}

type APIResult struct {
	IP          string  `json:"ip"`
	CountryCode string  `json:"country_code"`
	Country     string  `json:"country_name"`
	RegionCode  string  `json:"region_code,omitempty"`
	Region      string  `json:"region_name,omitempty"`
	City        string  `json:"city,omitempty"`
	ZipCode     string  `json:"zip_code,omitempty"`
	TimeZone    string  `json:"time_zone"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

func NewGeolocationGeoIPProvider(client *http.Client) (*GeolocationGeoIPProvider, error) {
	if client == nil {
		return nil, errors.New("http client is required")
	}
	provider := &GeolocationGeoIPProvider{http: client}
	provider.poller = geobus.Poller{
		Source: name,
		Period: time.Minute * 30,
		TTL:    time.Hour,
		Locate: provider.locate,
	}
	return provider, nil
}

func (p *GeolocationGeoIPProvider) Name() string {
	return name
}

func (p *GeolocationGeoIPProvider) LookupStream(ctx context.Context, key string) <-chan geobus.Result {
	return p.poller.Stream(ctx, key)
}

// locate derives the accuracy from the most specific field the API filled in.
func (p *GeolocationGeoIPProvider) locate(ctx context.Context) (geobus.Coordinate, error) {
	result := new(APIResult)
	if _, err := p.http.GetWithTimeout(ctx, APIEndpoint, result, nil, nil, LookupTimeout); err != nil {
		return geobus.Coordinate{}, fmt.Errorf("failed to get geolocation data from API: %w", err)
	}

	acc := float64(geobus.AccuracyUnknown)
	switch {
	case result.ZipCode != "":
		acc = geobus.AccuracyZip
	case result.City != "":
		acc = geobus.AccuracyCity
	case result.RegionCode != "":
		acc = geobus.AccuracyRegion
	case result.CountryCode != "":
		acc = geobus.AccuracyCountry
	}

	return geobus.Coordinate{
		Lat:   geobus.Truncate(result.Latitude, geobus.TruncPrecision),
		Lon:   geobus.Truncate(result.Longitude, geobus.TruncPrecision),
		Acc:   acc,
		Found: true,
	}, nil
}
