// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package ichnaea locates the device via the visible wifi access points and an
// Ichnaea compatible geolocation API (beaconDB).
package ichnaea

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mdlayher/wifi"

	"github.com/wneessen/placepicker/internal/geobus"
	"github.com/wneessen/placepicker/internal/http"
)

const (
	APIEndpoint   = "https://api.beacondb.net/v1/geolocate"
	lookupTimeout = time.Second * 5
	wifiScanTime  = time.Minute * 2
	name          = "ichnaea"
)

// scanner is the part of the wifi client the provider needs.
type scanner interface {
	Interfaces() ([]*wifi.Interface, error)
	AccessPoints(ifi *wifi.Interface) ([]*wifi.BSS, error)
}

type GeolocationICHNAEAProvider struct {
	http   *http.Client
	wlan   scanner
	poller geobus.Poller

	apLock sync.RWMutex
	aps    []WirelessNetwork
}

type APIResult struct {
	Location struct {
		Latitude  float64 `json:"lat"`
		Longitude float64 `json:"lng"`
	} `json:"location"`
	Accuracy float64 `json:"accuracy"`
}

type WirelessNetwork struct {
	LastSeen       int64  `json:"age"`
	MACAddress     string `json:"macAddress"`
	SignalStrength int32  `json:"signalStrength"`
}

type apiRequest struct {
	ConsiderIP   bool              `json:"considerIp"`
	AccessPoints []WirelessNetwork `json:"wifiAccessPoints,omitempty"`
}

func NewGeolocationICHNAEAProvider(client *http.Client) (*GeolocationICHNAEAProvider, error) {
	wlan, err := wifi.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create wifi client: %w", err)
	}
	return newProvider(client, wlan)
}

func newProvider(client *http.Client, wlan scanner) (*GeolocationICHNAEAProvider, error) {
	if client == nil {
		return nil, errors.New("http client is required")
	}
	provider := &GeolocationICHNAEAProvider{http: client, wlan: wlan}
	provider.poller = geobus.Poller{
		Source: name,
		Period: time.Minute * 5,
		TTL:    time.Hour,
		Locate: provider.locate,
	}
	return provider, nil
}

func (p *GeolocationICHNAEAProvider) Name() string {
	return name
}

// LookupStream scans the access points in the background and polls the API with the latest scan.
func (p *GeolocationICHNAEAProvider) LookupStream(ctx context.Context, key string) <-chan geobus.Result {
	p.scan()
	go p.monitorWifiAccessPoints(ctx)
	return p.poller.Stream(ctx, key)
}

func (p *GeolocationICHNAEAProvider) monitorWifiAccessPoints(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(wifiScanTime):
		}
		p.scan()
	}
}

func (p *GeolocationICHNAEAProvider) scan() {
	list, err := p.wifiAccessPoints()
	if err != nil {
		return
	}
	p.apLock.Lock()
	p.aps = list
	p.apLock.Unlock()
}

// wifiAccessPoints lists the access points seen by all station interfaces. Hidden networks
// and networks that opted out via the "_nomap" suffix are skipped.
func (p *GeolocationICHNAEAProvider) wifiAccessPoints() ([]WirelessNetwork, error) {
	if p.wlan == nil {
		return nil, nil
	}
	ifaces, err := p.wlan.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	var list []WirelessNetwork
	for _, iface := range ifaces {
		if iface.Type != wifi.InterfaceTypeStation {
			continue
		}
		aps, err := p.wlan.AccessPoints(iface)
		if err != nil {
			continue
		}
		for _, ap := range aps {
			if ap.SSID == "" || ap.SSID[0] == '\x00' || strings.HasSuffix(ap.SSID, "_nomap") {
				continue
			}
			list = append(list, WirelessNetwork{
				SignalStrength: ap.Signal / 100,
				MACAddress:     ap.BSSID.String(),
				LastSeen:       ap.LastSeen.Milliseconds(),
			})
		}
	}
	return list, nil
}

func (p *GeolocationICHNAEAProvider) locate(ctx context.Context) (geobus.Coordinate, error) {
	p.apLock.RLock()
	req := apiRequest{ConsiderIP: true, AccessPoints: p.aps}
	p.apLock.RUnlock()

	body := bytes.NewBuffer(nil)
	if err := json.NewEncoder(body).Encode(req); err != nil {
		return geobus.Coordinate{}, fmt.Errorf("failed to encode wifi list to JSON: %w", err)
	}

	result := new(APIResult)
	if _, err := p.http.PostWithTimeout(ctx, APIEndpoint, result, body,
		map[string]string{"Content-Type": "application/json"}, lookupTimeout); err != nil {
		return geobus.Coordinate{}, fmt.Errorf("failed to get geolocation data from API: %w", err)
	}

	return geobus.Coordinate{
		Lat:   geobus.Truncate(result.Location.Latitude, geobus.TruncPrecision),
		Lon:   geobus.Truncate(result.Location.Longitude, geobus.TruncPrecision),
		Acc:   geobus.Truncate(result.Accuracy, geobus.TruncPrecision),
		Found: true,
	}, nil
}
