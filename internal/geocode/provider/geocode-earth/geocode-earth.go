// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geocodeearth implements place search and reverse geocoding with the
// geocode.earth (Pelias) API.
package geocodeearth

import (
	"context"
	"errors"
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
	APISearchEndpoint  = "https://api.geocode.earth/v1/search"
	APIReverseEndpoint = "https://api.geocode.earth/v1/reverse"
	APITimeout         = time.Second * 10
	name               = "geocode-earth"
)

var ErrMissingAPIKey = errors.New("geocode.earth requires an API key")

type GeocodeEarth struct {
	apikey string
	http   *http.Client
	lang   language.Tag
}

type Response struct {
	Features []Feature `json:"features"`
	Type     string    `json:"type"`
}

type Feature struct {
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
	Type       string     `json:"type"`
}

// Geometry is a GeoJSON point, Coordinates are ordered [lon, lat].
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

type Properties struct {
	Name          string `json:"name"`
	DisplayName   string `json:"label"`
	Locality      string `json:"locality"`
	County        string `json:"county"`
	Country       string `json:"country"`
	CountryCode   string `json:"country_code"`
	HouseNumber   string `json:"housenumber"`
	Neighbourhood string `json:"neighbourhood"`
	Borough       string `json:"borough"`
	Postcode      string `json:"postalcode"`
	Street        string `json:"street"`
	Region        string `json:"region"`
}

func New(client *http.Client, lang language.Tag, apikey string) (*GeocodeEarth, error) {
	if apikey == "" {
		return nil, ErrMissingAPIKey
	}
	return &GeocodeEarth{
		apikey: apikey,
		lang:   lang,
		http:   client,
	}, nil
}

func (g *GeocodeEarth) Name() string {
	return name
}

func (g *GeocodeEarth) Reverse(ctx context.Context, coords geobus.Coordinate) (geocode.Place, error) {
	query := url.Values{}
	query.Set("point.lat", fmt.Sprintf("%f", coords.Lat))
	query.Set("point.lon", fmt.Sprintf("%f", coords.Lon))
	query.Set("size", "1")

	places, err := g.fetch(ctx, APIReverseEndpoint, query)
	if err != nil {
		return geocode.Place{}, fmt.Errorf("failed to retrieve address details from geocode.earth API: %w", err)
	}
	if len(places) < 1 {
		return geocode.Place{Coordinate: coords}, nil
	}
	return places[0], nil
}

func (g *GeocodeEarth) Search(ctx context.Context, address string, limit int) ([]geocode.Place, error) {
	query := url.Values{}
	query.Set("text", address)
	query.Set("size", strconv.Itoa(limit))

	places, err := g.fetch(ctx, APISearchEndpoint, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search places with geocode.earth API: %w", err)
	}
	return places, nil
}

func (g *GeocodeEarth) fetch(ctx context.Context, endpoint string, query url.Values) ([]geocode.Place, error) {
	var response Response
	query.Set("api_key", g.apikey)
	query.Set("lang", g.lang.String())

	if _, err := g.http.GetWithTimeout(ctx, endpoint, &response, query, nil, APITimeout); err != nil {
		return nil, err
	}

	places := make([]geocode.Place, 0, len(response.Features))
	for _, feature := range response.Features {
		place, err := feature.place()
		if err != nil {
			return nil, err
		}
		places = append(places, place)
	}
	return places, nil
}

func (f Feature) place() (geocode.Place, error) {
	if len(f.Geometry.Coordinates) < 2 {
		return geocode.Place{}, fmt.Errorf("feature %q has no point geometry", f.Properties.DisplayName)
	}
	props := f.Properties
	place := geocode.Place{
		Found:       true,
		Name:        props.Name,
		Locality:    props.Locality,
		DisplayName: props.DisplayName,
		Coordinate: geobus.Coordinate{
			Lat:   f.Geometry.Coordinates[1],
			Lon:   f.Geometry.Coordinates[0],
			Found: true,
		},
		Country:     props.Country,
		State:       props.Region,
		Postcode:    props.Postcode,
		Suburb:      props.Neighbourhood,
		Street:      props.Street,
		HouseNumber: props.HouseNumber,
	}
	if place.Locality == "" {
		place.Locality = props.Borough
	}
	if place.Name == "" {
		place.Name = geocode.NameFromDisplayName(props.DisplayName)
	}
	return place, nil
}
