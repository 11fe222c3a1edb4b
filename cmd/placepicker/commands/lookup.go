// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wneessen/placepicker/internal/geobus"
	"github.com/wneessen/placepicker/internal/geocode"
	"github.com/wneessen/placepicker/internal/i18n"
	"github.com/wneessen/placepicker/internal/service"
	"github.com/wneessen/placepicker/internal/terminal"
)

var (
	ErrInvalidCoordinate = errors.New("coordinate is out of range")
	ErrNoPlaceFound      = errors.New("no place found at the coordinate")
)

// search <query...>: print matching places as JSON lines.
func searchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search for places and print them as JSON lines",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coder, err := service.NewGeocoder(conf, httpClient, i18n.Tag(conf.Locale))
			if err != nil {
				return fmt.Errorf("failed to create geocoder: %w", err)
			}
			if limit <= 0 {
				limit = conf.Search.Limit
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), conf.Search.Timeout)
			defer cancel()

			query := strings.ToLower(strings.Join(args, " "))
			places, err := coder.Search(ctx, query, limit)
			if err != nil {
				return fmt.Errorf("failed to search for %q: %w", query, err)
			}
			encoder := json.NewEncoder(cmd.OutOrStdout())
			for _, place := range places {
				if err = encoder.Encode(service.NewPlaceOutput(place)); err != nil {
					return fmt.Errorf("failed to encode place: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of results (default from config)")
	return cmd
}

// reverse <lat> <lon>: print the place at a coordinate as JSON.
func reverseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reverse <lat> <lon>",
		Short:   "Reverse geocode a coordinate and print the place as JSON",
		Example: "  placepicker reverse 48.8584 2.2945\n  placepicker reverse -- -33.8688 151.2093",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, err := terminal.ParseCoordinate(strings.Join(args, " "))
			if err != nil {
				return err
			}
			if !coord.Valid() {
				return fmt.Errorf("%w: %s", ErrInvalidCoordinate, coord)
			}
			coder, err := service.NewGeocoder(conf, httpClient, i18n.Tag(conf.Locale))
			if err != nil {
				return fmt.Errorf("failed to create geocoder: %w", err)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), conf.Search.Timeout)
			defer cancel()

			place, err := coder.Reverse(ctx, coord)
			if err != nil {
				return fmt.Errorf("failed to reverse geocode %s: %w", coord, err)
			}
			if !place.Found {
				return fmt.Errorf("%w: %s", ErrNoPlaceFound, coord)
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(placeAt(place, coord))
		},
	}
	return cmd
}

// placeAt reports the requested coordinate rather than the provider's feature position.
func placeAt(place geocode.Place, coord geobus.Coordinate) service.PlaceOutput {
	output := service.NewPlaceOutput(place)
	output.Latitude = coord.Lat
	output.Longitude = coord.Lon
	return output
}
