// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geolocation_file provides the device location from a local "lat,lon" file.
package geolocation_file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wneessen/placepicker/internal/geobus"
)

const (
	name = "geolocation_file"

	// Accuracy of a manually maintained location file. It beats every IP based provider.
	Accuracy = 10
)

var ErrNoCoordinates = errors.New("no valid coordinates found in geolocation file")

// GeolocationFileProvider periodically reads the device location from a file. The first
// line that is neither empty nor a "#" comment and parses as "lat,lon" wins.
type GeolocationFileProvider struct {
	path   string
	poller geobus.Poller
}

// NewGeolocationFileProvider returns a provider reading path every two minutes.
func NewGeolocationFileProvider(path string) *GeolocationFileProvider {
	provider := &GeolocationFileProvider{path: path}
	provider.poller = geobus.Poller{
		Source: name,
		Period: time.Minute * 2,
		TTL:    time.Hour,
		Locate: func(context.Context) (geobus.Coordinate, error) {
			return provider.readFile()
		},
	}
	return provider
}

func (p *GeolocationFileProvider) Name() string {
	return name
}

// LookupStream emits the file's coordinate on start and whenever it changes.
func (p *GeolocationFileProvider) LookupStream(ctx context.Context, key string) <-chan geobus.Result {
	return p.poller.Stream(ctx, key)
}

func (p *GeolocationFileProvider) readFile() (geobus.Coordinate, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return geobus.Coordinate{}, fmt.Errorf("failed to read geolocation file %q: %w", p.path, err)
	}
	for line := range strings.Lines(string(data)) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		coord, ok := parseLine(line)
		if !ok {
			continue
		}
		return coord, nil
	}
	return geobus.Coordinate{}, ErrNoCoordinates
}

func parseLine(line string) (geobus.Coordinate, bool) {
	latVal, lonVal, found := strings.Cut(line, ",")
	if !found {
		return geobus.Coordinate{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latVal), 64)
	if err != nil {
		return geobus.Coordinate{}, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonVal), 64)
	if err != nil {
		return geobus.Coordinate{}, false
	}
	coord := geobus.Coordinate{Lat: lat, Lon: lon, Acc: Accuracy, Found: true}
	return coord, coord.Valid()
}
