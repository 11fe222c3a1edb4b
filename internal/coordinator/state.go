// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package coordinator

import (
	"time"

	"github.com/wneessen/placepicker/internal/geobus"
	"github.com/wneessen/placepicker/internal/geocode"
	"github.com/wneessen/placepicker/internal/permission"
	"github.com/wneessen/placepicker/internal/vartype"
)

// AnnotationTitle is the title of the pin dropped on the map.
const AnnotationTitle = "Selected Location"

type Screen int

const (
	ScreenSearch Screen = iota
	ScreenMap
)

func (s Screen) String() string {
	switch s {
	case ScreenSearch:
		return "search"
	case ScreenMap:
		return "map"
	default:
		return "unknown"
	}
}

// Annotation is the draggable pin on the map screen and the region shown around it.
type Annotation struct {
	Coordinate   geobus.Coordinate
	Title        string
	Draggable    bool
	RegionMeters float64
}

// State is the complete interaction state. Candidates is replaced on every search and
// never modified in place, so snapshots may share it safely.
type State struct {
	Query      string
	Candidates []geocode.Place
	Searching  bool

	DeviceLocation   vartype.Variable[geobus.Coordinate]
	DeviceLocationAt time.Time
	Authorization    permission.Status

	PickedLocation vartype.Variable[geobus.Coordinate]
	PickedPlace    vartype.Variable[geocode.Place]
	Annotation     vartype.Variable[Annotation]
	Resolving      bool

	Screen Screen
}

// Confirmation is handed to the confirm handler.
type Confirmation struct {
	Coordinate geobus.Coordinate
	Place      geocode.Place
}
