// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package nominatim implements place search and reverse geocoding with the OpenStreetMap
// Nominatim API. The public instance allows at most one request per second, so callers
// should wrap it in a geocode.RateLimitedGeocoder.
package nominatim

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/text/language"

	"github.com/wneessen/placepicker/internal/geobus"
	"github.com/wneessen/placepicker/internal/geocode"
	"github.com/wneessen/placepicker/internal/http"
)

const (
	APISearchEndpoint  = "https://nominatim.openstreetmap.org/search"
	APIReverseEndpoint = "https://nominatim.openstreetmap.org/reverse"
	APITimeout         = time.Second * 10
	name               = "osm-nominatim"
)

type Nominatim struct {
	http *http.Client
	lang language.Tag

	searchEndpoint  string
	reverseEndpoint string
}

// Result is a single place as returned by the search and the reverse endpoints.
type Result struct {
	APILat      string  `json:"lat"`
	APILon      string  `json:"lon"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Address     Address `json:"address"`
	Error       string  `json:"error,omitempty"`
}

type Address struct {
	HouseNumber  string `json:"house_number"`
	Road         string `json:"road"`
	Suburb       string `json:"suburb"`
	Municipality string `json:"municipality"`
	CityDistrict string `json:"city_district"`
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	State        string `json:"state"`
	Postcode     string `json:"postcode"`
	Country      string `json:"country"`
}

func New(client *http.Client, lang language.Tag) *Nominatim {
	return &Nominatim{
		lang:            lang,
		http:            client,
		searchEndpoint:  APISearchEndpoint,
		reverseEndpoint: APIReverseEndpoint,
	}
}

// WithBaseURL points the provider at a self-hosted Nominatim instance.
func (n *Nominatim) WithBaseURL(base string) *Nominatim {
	n.searchEndpoint = base + "/search"
	n.reverseEndpoint = base + "/reverse"
	return n
}

func (n *Nominatim) Name() string {
	return name
}

func (n *Nominatim) Reverse(ctx context.Context, coords geobus.Coordinate) (geocode.Place, error) {
	var result Result

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("addressdetails", "1")
	query.Set("lat", fmt.Sprintf("%f", coords.Lat))
	query.Set("lon", fmt.Sprintf("%f", coords.Lon))
	query.Set("accept-language", n.lang.String())

	if _, err := n.http.GetWithTimeout(ctx, n.reverseEndpoint, &result, query, nil, APITimeout); err != nil {
		return geocode.Place{}, fmt.Errorf("failed to fetch reverse address details from Nominatim API: %w", err)
	}

	// Nominatim answers unknown coordinates with {"error":"Unable to geocode"}
	if result.Error != "" {
		return geocode.Place{Coordinate: coords}, nil
	}
	return result.place()
}

func (n *Nominatim) Search(ctx context.Context, address string, limit int) ([]geocode.Place, error) {
	var results []Result

	query := url.Values{}
	query.Set("format", "jsonv2")
	query.Set("addressdetails", "1")
	query.Set("q", address)
	query.Set("limit", strconv.Itoa(limit))
	query.Set("accept-language", n.lang.String())

	if _, err := n.http.GetWithTimeout(ctx, n.searchEndpoint, &results, query, nil, APITimeout); err != nil {
		return nil, fmt.Errorf("failed to search places with Nominatim API: %w", err)
	}

	places := make([]geocode.Place, 0, len(results))
	for _, result := range results {
		place, err := result.place()
		if err != nil {
			return nil, err
		}
		places = append(places, place)
	}
	return places, nil
}

func (r Result) place() (geocode.Place, error) {
	lat, err := strconv.ParseFloat(r.APILat, 64)
	if err != nil {
		return geocode.Place{}, fmt.Errorf("failed to parse latitude from Nominatim API response: %w", err)
	}
	lon, err := strconv.ParseFloat(r.APILon, 64)
	if err != nil {
		return geocode.Place{}, fmt.Errorf("failed to parse longitude from Nominatim API response: %w", err)
	}

	place := geocode.Place{
		Found:       true,
		Name:        r.Name,
		Locality:    geocode.Locality(r.Address.City, r.Address.Town, r.Address.Village),
		DisplayName: r.DisplayName,
		Coordinate:  geobus.Coordinate{Lat: lat, Lon: lon, Found: true},
		Country:     r.Address.Country,
		State:       r.Address.State,
		Postcode:    r.Address.Postcode,
		Suburb:      r.Address.Suburb,
		Street:      r.Address.Road,
		HouseNumber: r.Address.HouseNumber,
	}
	if place.Name == "" {
		place.Name = geocode.NameFromDisplayName(r.DisplayName)
	}
	return place, nil
}
