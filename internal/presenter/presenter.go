// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package presenter turns coordinator state into screen views and renders them.
package presenter

import (
	"fmt"
	"io"
	"time"

	"github.com/nathan-osman/go-sunrise"

	"github.com/wneessen/placepicker/internal/coordinator"
	"github.com/wneessen/placepicker/internal/geobus"
	"github.com/wneessen/placepicker/internal/template"
)

// Row is one search candidate as shown in the results list.
type Row struct {
	Index       int
	Name        string
	Locality    string
	HasDistance bool
	Distance    float64
}

type SearchView struct {
	Query     string
	Searching bool
	Rows      []Row

	ShowCurrentLocation bool
	HasDeviceLocation   bool
	DeviceLocation      geobus.Coordinate
	DeviceLocationAt    time.Time
}

type Marker struct {
	Coordinate geobus.Coordinate
	Title      string
	Draggable  bool
}

// Card is the confirmation card shown once the picked location is resolved.
type Card struct {
	Name        string
	Locality    string
	HasDaylight bool
	Sunrise     time.Time
	Sunset      time.Time
}

type MapView struct {
	Center       geobus.Coordinate
	RegionMeters float64
	Marker       Marker
	Resolving    bool
	Card         *Card
}

// SearchScreen builds the search screen view. Candidate rows are numbered from 1.
func SearchScreen(state coordinator.State) SearchView {
	device, hasDevice := state.DeviceLocation.Get()
	view := SearchView{
		Query:               state.Query,
		Searching:           state.Searching,
		Rows:                make([]Row, 0, len(state.Candidates)),
		ShowCurrentLocation: len(state.Candidates) == 0,
		HasDeviceLocation:   hasDevice,
		DeviceLocation:      device,
		DeviceLocationAt:    state.DeviceLocationAt,
	}
	for i, place := range state.Candidates {
		row := Row{
			Index:    i + 1,
			Name:     place.Title(),
			Locality: place.Locality,
		}
		if hasDevice {
			row.HasDistance = true
			row.Distance = device.DistanceTo(place.Coordinate)
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}

// MapScreen builds the map screen view. Daylight on the card is computed for the
// calendar day of day.
func MapScreen(state coordinator.State, day time.Time) MapView {
	view := MapView{
		Center: state.PickedLocation.Value(),
		Marker: Marker{
			Coordinate: state.PickedLocation.Value(),
			Title:      coordinator.AnnotationTitle,
		},
		RegionMeters: coordinator.DefaultRegionMeters,
		Resolving:    state.Resolving,
	}
	if annotation, ok := state.Annotation.Get(); ok {
		view.Center = annotation.Coordinate
		view.RegionMeters = annotation.RegionMeters
		view.Marker = Marker{
			Coordinate: annotation.Coordinate,
			Title:      annotation.Title,
			Draggable:  annotation.Draggable,
		}
	}

	place, ok := state.PickedPlace.Get()
	if !ok {
		return view
	}
	card := &Card{
		Name:     place.Title(),
		Locality: place.Locality,
	}
	rise, set := sunrise.SunriseSunset(view.Center.Lat, view.Center.Lon, day.Year(), day.Month(), day.Day())
	if !rise.IsZero() && !set.IsZero() {
		card.HasDaylight = true
		card.Sunrise = rise.In(day.Location())
		card.Sunset = set.In(day.Location())
	}
	view.Card = card
	return view
}

type Presenter struct {
	templates *template.Templates
	now       func() time.Time
}

func New(tpls *template.Templates) *Presenter {
	return &Presenter{templates: tpls, now: time.Now}
}

// Render writes the active screen of state to w.
func (p *Presenter) Render(w io.Writer, state coordinator.State) error {
	switch state.Screen {
	case coordinator.ScreenMap:
		if err := p.templates.Map.Execute(w, MapScreen(state, p.now())); err != nil {
			return fmt.Errorf("failed to render map screen: %w", err)
		}
	default:
		if err := p.templates.Search.Execute(w, SearchScreen(state)); err != nil {
			return fmt.Errorf("failed to render search screen: %w", err)
		}
	}
	return nil
}
