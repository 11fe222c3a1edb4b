// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geocode defines the place search and reverse geocoding contract and the
// decorators shared by all geocoding providers.
package geocode

import (
	"context"
	"strings"

	"github.com/wneessen/placepicker/internal/geobus"
)

// Place is a geocoded location. For reverse lookups Found reports whether the provider
// knew anything about the coordinate.
type Place struct {
	Found       bool
	CacheHit    bool
	Name        string
	Locality    string
	DisplayName string
	Coordinate  geobus.Coordinate
	Country     string
	State       string
	Postcode    string
	Suburb      string
	Street      string
	HouseNumber string
}

type Geocoder interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Place, error)
	Reverse(ctx context.Context, coords geobus.Coordinate) (Place, error)
}

// Locality returns the first non-empty value of city, town and village.
func Locality(city, town, village string) string {
	switch {
	case city != "":
		return city
	case town != "":
		return town
	default:
		return village
	}
}

// NameFromDisplayName returns the leading element of a comma separated display name.
func NameFromDisplayName(displayName string) string {
	name, _, _ := strings.Cut(displayName, ",")
	return strings.TrimSpace(name)
}

// Title is the best short label for the place.
func (p Place) Title() string {
	if p.Name != "" {
		return p.Name
	}
	if p.Street != "" {
		return strings.TrimSpace(p.Street + " " + p.HouseNumber)
	}
	return NameFromDisplayName(p.DisplayName)
}
