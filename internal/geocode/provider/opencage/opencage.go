// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package opencage implements place search and reverse geocoding with the OpenCage API.
package opencage

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
	APIEndpoint = "https://api.opencagedata.com/geocode/v1/json"
	APITimeout  = time.Second * 10
	name        = "opencage"
)

var ErrMissingAPIKey = errors.New("OpenCage requires an API key")

type OpenCage struct {
	apikey string
	http   *http.Client
	lang   language.Tag
}

type Response struct {
	Results      []Result `json:"results"`
	TotalResults int      `json:"total_results"`
}

type Result struct {
	Components  Components `json:"components"`
	DisplayName string     `json:"formatted"`
	Geometry    Geometry   `json:"geometry"`
}

type Components struct {
	NormalizedCity string `json:"_normalized_city"`
	City           string `json:"city"`
	Country        string `json:"country"`
	CountryCode    string `json:"country_code"`
	HouseNumber    string `json:"house_number"`
	Postcode       string `json:"postcode"`
	Road           string `json:"road"`
	State          string `json:"state"`
	Suburb         string `json:"suburb"`
	Town           string `json:"town"`
	Village        string `json:"village"`
}

type Geometry struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

func New(client *http.Client, lang language.Tag, apikey string) (*OpenCage, error) {
	if apikey == "" {
		return nil, ErrMissingAPIKey
	}
	return &OpenCage{
		apikey: apikey,
		lang:   lang,
		http:   client,
	}, nil
}

func (o *OpenCage) Name() string {
	return name
}

func (o *OpenCage) Reverse(ctx context.Context, coords geobus.Coordinate) (geocode.Place, error) {
	response, err := o.fetch(ctx, fmt.Sprintf("%f,%f", coords.Lat, coords.Lon), 1)
	if err != nil {
		return geocode.Place{}, fmt.Errorf("failed to retrieve address details from OpenCage API: %w", err)
	}
	if len(response.Results) < 1 {
		return geocode.Place{Coordinate: coords}, nil
	}
	return response.Results[0].place(), nil
}

func (o *OpenCage) Search(ctx context.Context, address string, limit int) ([]geocode.Place, error) {
	response, err := o.fetch(ctx, address, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search places with OpenCage API: %w", err)
	}
	places := make([]geocode.Place, 0, len(response.Results))
	for _, result := range response.Results {
		places = append(places, result.place())
	}
	return places, nil
}

func (o *OpenCage) fetch(ctx context.Context, q string, limit int) (Response, error) {
	var response Response

	query := url.Values{}
	query.Set("key", o.apikey)
	query.Set("q", q)
	query.Set("limit", strconv.Itoa(limit))
	query.Set("no_annotations", "1")
	query.Set("no_record", "1")
	query.Set("language", o.lang.String())

	_, err := o.http.GetWithTimeout(ctx, APIEndpoint, &response, query, nil, APITimeout)
	return response, err
}

func (r Result) place() geocode.Place {
	c := r.Components
	city := c.NormalizedCity
	if city == "" {
		city = c.City
	}
	return geocode.Place{
		Found:       true,
		Name:        geocode.NameFromDisplayName(r.DisplayName),
		Locality:    geocode.Locality(city, c.Town, c.Village),
		DisplayName: r.DisplayName,
		Coordinate:  geobus.Coordinate{Lat: r.Geometry.Lat, Lon: r.Geometry.Lon, Found: true},
		Country:     c.Country,
		State:       c.State,
		Postcode:    c.Postcode,
		Suburb:      c.Suburb,
		Street:      c.Road,
		HouseNumber: c.HouseNumber,
	}
}
