// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package coordinator

import (
	"fmt"

	"github.com/wneessen/placepicker/internal/geobus"
	"github.com/wneessen/placepicker/internal/geocode"
)

// SelectCandidate picks the coordinate of place and switches to the map screen.
func (c *Coordinator) SelectCandidate(place geocode.Place) {
	c.post(func() { c.pick(place.Coordinate) })
}

// SelectCandidateAt picks the candidate at the 0-based index.
func (c *Coordinator) SelectCandidateAt(index int) {
	c.post(func() {
		candidates := c.store.Get().Candidates
		if index < 0 || index >= len(candidates) {
			c.report(fmt.Errorf("%w: %d of %d", ErrCandidateOutOfRange, index, len(candidates)))
			return
		}
		c.pick(candidates[index].Coordinate)
	})
}

// UseCurrentLocation picks the device location. Without a known device location nothing
// changes and ErrNoDeviceLocation is reported.
func (c *Coordinator) UseCurrentLocation() {
	c.post(func() {
		coord, ok := c.store.Get().DeviceLocation.Get()
		if !ok {
			c.report(ErrNoDeviceLocation)
			return
		}
		c.pick(coord)
	})
}

// OnPinDragged moves the pin and resolves the new position.
func (c *Coordinator) OnPinDragged(coord geobus.Coordinate) {
	c.post(func() {
		if !coord.Valid() {
			c.report(fmt.Errorf("%w: %s", ErrInvalidCoordinate, coord))
			return
		}
		if !c.store.Get().Annotation.IsSet() {
			c.report(ErrNoPin)
			return
		}
		c.store.Update(func(s *State) {
			s.PickedLocation.Set(coord)
			pin := s.Annotation.Value()
			pin.Coordinate = coord
			s.Annotation.Set(pin)
		})
		c.reverseGeocode(coord)
	})
}

// ReverseGeocode resolves coord into the picked place.
func (c *Coordinator) ReverseGeocode(coord geobus.Coordinate) {
	c.post(func() { c.reverseGeocode(coord) })
}

// OnConfirmationClosed leaves the map screen and forgets the pick.
func (c *Coordinator) OnConfirmationClosed() {
	c.post(func() {
		c.reverses.drop()
		c.store.Update(func(s *State) {
			s.PickedLocation.Reset()
			s.PickedPlace.Reset()
			s.Annotation.Reset()
			s.Resolving = false
			s.Screen = ScreenSearch
		})
	})
}

func (c *Coordinator) pick(coord geobus.Coordinate) {
	if !coord.Valid() {
		c.report(fmt.Errorf("%w: %s", ErrInvalidCoordinate, coord))
		return
	}
	c.store.Update(func(s *State) {
		s.PickedLocation.Set(coord)
		s.Annotation.Set(Annotation{
			Coordinate:   coord,
			Title:        AnnotationTitle,
			Draggable:    true,
			RegionMeters: c.config.RegionMeters,
		})
		s.Screen = ScreenMap
	})
	c.reverseGeocode(coord)
}

// reverseGeocode keeps the current place visible until the new result arrives.
func (c *Coordinator) reverseGeocode(coord geobus.Coordinate) {
	req := c.reverses.next(c.ctx, c.config.RequestTimeout)
	c.store.Update(func(s *State) { s.Resolving = true })
	c.logger.Debug("reverse geocoding", "coordinate", coord.String(), "seq", req.seq, "provider", c.geocoder.Name())

	go func() {
		defer req.finish()
		req.wait()
		place, err := c.geocoder.Reverse(req.ctx, coord)
		c.post(func() { c.applyReverse(req.seq, coord, place, err) })
	}()
}

func (c *Coordinator) applyReverse(seq uint64, coord geobus.Coordinate, place geocode.Place, err error) {
	if !c.reverses.latest(seq) {
		c.logger.Debug("discarding superseded reverse geocode result", "coordinate", coord.String(), "seq", seq)
		return
	}
	switch {
	case err != nil:
		err = fmt.Errorf("failed to reverse geocode %s: %w", coord, err)
	case !place.Found:
		err = fmt.Errorf("%w: %s", ErrPlaceNotFound, coord)
	}
	c.store.Update(func(s *State) {
		s.Resolving = false
		if err != nil {
			s.PickedPlace.Reset()
			return
		}
		s.PickedPlace.Set(place)
	})
	if err != nil {
		c.report(err)
	}
}
