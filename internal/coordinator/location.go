// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package coordinator

import (
	"time"

	"github.com/wneessen/placepicker/internal/geobus"
	"github.com/wneessen/placepicker/internal/permission"
)

// OnAuthorizationChanged reacts to a pushed authorization status. Granted states request
// a fix, restricted asks again and denied is reported.
func (c *Coordinator) OnAuthorizationChanged(status permission.Status) {
	c.post(func() {
		c.store.Update(func(s *State) { s.Authorization = status })
		c.logger.Debug("location authorization changed", "status", status.String())

		switch status {
		case permission.AuthorizedAlways, permission.AuthorizedWhenInUse:
			c.requestLocation()
		case permission.Restricted:
			if c.authorizer != nil {
				c.authorizer.RequestWhenInUse()
			}
		case permission.Denied:
			c.report(ErrLocationDenied)
		default:
		}
	})
}

// OnDeviceLocation records a device location fix. Invalid coordinates are ignored.
func (c *Coordinator) OnDeviceLocation(coord geobus.Coordinate) {
	c.post(func() {
		if !coord.Valid() {
			c.logger.Debug("ignoring invalid device location", "coordinate", coord.String())
			return
		}
		c.store.Update(func(s *State) {
			s.DeviceLocation.Set(coord)
			s.DeviceLocationAt = time.Now()
		})
	})
}

// RefreshLocation requests a new fix if location access is granted.
func (c *Coordinator) RefreshLocation() {
	c.post(func() {
		if c.store.Get().Authorization.Granted() {
			c.requestLocation()
		}
	})
}

func (c *Coordinator) requestLocation() {
	if c.locator == nil {
		return
	}
	c.locator.RequestLocation()
}
