// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package ichnaea

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	stdhttp "net/http"
	"strings"
	"testing"
	"testing/synctest"
	"time"

	"github.com/mdlayher/wifi"

	"github.com/wneessen/placepicker/internal/http"
	"github.com/wneessen/placepicker/internal/logger"
	"github.com/wneessen/placepicker/internal/testhelper"
)

const testResponse = `{"location":{"lat":40.71851234,"lng":-74.00251234},"accuracy":2000}`

type fakeScanner struct {
	ifaces []*wifi.Interface
	aps    []*wifi.BSS
	err    error
}

func (f *fakeScanner) Interfaces() ([]*wifi.Interface, error) {
	return f.ifaces, f.err
}

func (f *fakeScanner) AccessPoints(*wifi.Interface) ([]*wifi.BSS, error) {
	return f.aps, nil
}

func TestNewGeolocationICHNAEAProvider(t *testing.T) {
	t.Run("provider requires a http client", func(t *testing.T) {
		if _, err := newProvider(nil, &fakeScanner{}); err == nil {
			t.Error("expected provider creation to fail")
		}
	})
	t.Run("provider name is correct", func(t *testing.T) {
		provider := testProvider(t, &fakeScanner{}, nil)
		if provider.Name() != name {
			t.Errorf("expected provider name to be %q, got %q", name, provider.Name())
		}
	})
}

func TestGeolocationICHNAEAProvider_wifiAccessPoints(t *testing.T) {
	bssid := net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	wlan := &fakeScanner{
		ifaces: []*wifi.Interface{
			{Name: "wlan0", Type: wifi.InterfaceTypeStation},
			{Name: "ap0", Type: wifi.InterfaceTypeAP},
		},
		aps: []*wifi.BSS{
			{SSID: "home", BSSID: bssid, Signal: -6500, LastSeen: time.Second},
			{SSID: "", BSSID: bssid},
			{SSID: "\x00\x00", BSSID: bssid},
			{SSID: "private_nomap", BSSID: bssid},
		},
	}
	t.Run("hidden and opted out networks are skipped", func(t *testing.T) {
		provider := testProvider(t, wlan, nil)
		list, err := provider.wifiAccessPoints()
		if err != nil {
			t.Fatalf("failed to list access points: %s", err)
		}
		if len(list) != 1 {
			t.Fatalf("expected 1 access point, got %d", len(list))
		}
		if list[0].MACAddress != "00:11:22:33:44:55" {
			t.Errorf("unexpected MAC address: %s", list[0].MACAddress)
		}
		if list[0].SignalStrength != -65 {
			t.Errorf("expected signal strength -65, got %d", list[0].SignalStrength)
		}
		if list[0].LastSeen != 1000 {
			t.Errorf("expected age 1000ms, got %d", list[0].LastSeen)
		}
	})
	t.Run("interface errors are returned", func(t *testing.T) {
		provider := testProvider(t, &fakeScanner{err: errors.New("no netlink")}, nil)
		if _, err := provider.wifiAccessPoints(); err == nil {
			t.Error("expected listing to fail")
		}
	})
	t.Run("missing scanner yields no access points", func(t *testing.T) {
		provider := testProvider(t, nil, nil)
		list, err := provider.wifiAccessPoints()
		if err != nil || list != nil {
			t.Errorf("expected empty list without error, got %v, %v", list, err)
		}
	})
}

func TestGeolocationICHNAEAProvider_locate(t *testing.T) {
	t.Run("scanned access points are sent to the API", func(t *testing.T) {
		var sent apiRequest
		wlan := &fakeScanner{
			ifaces: []*wifi.Interface{{Name: "wlan0", Type: wifi.InterfaceTypeStation}},
			aps:    []*wifi.BSS{{SSID: "home", BSSID: net.HardwareAddr{1, 2, 3, 4, 5, 6}}},
		}
		provider := testProvider(t, wlan, func(req *stdhttp.Request) (*stdhttp.Response, error) {
			if req.Method != stdhttp.MethodPost {
				t.Errorf("expected POST request, got %s", req.Method)
			}
			if err := json.NewDecoder(req.Body).Decode(&sent); err != nil {
				t.Errorf("failed to decode request body: %s", err)
			}
			return jsonResponse(testResponse), nil
		})
		provider.scan()
		coord, err := provider.locate(t.Context())
		if err != nil {
			t.Fatalf("failed to locate: %s", err)
		}
		if !sent.ConsiderIP || len(sent.AccessPoints) != 1 {
			t.Errorf("unexpected request: %+v", sent)
		}
		if coord.Lat != 40.7185 || coord.Lon != -74.0025 || coord.Acc != 2000 {
			t.Errorf("unexpected coordinate: %s (acc %f)", coord, coord.Acc)
		}
	})
	t.Run("failing API requests return an error", func(t *testing.T) {
		provider := testProvider(t, nil, func(*stdhttp.Request) (*stdhttp.Response, error) {
			return nil, errors.New("intentionally failing")
		})
		if _, err := provider.locate(t.Context()); err == nil {
			t.Error("expected locate to fail")
		}
	})
}

func TestGeolocationICHNAEAProvider_LookupStream(t *testing.T) {
	t.Run("first lookup is emitted immediately", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			provider := testProvider(t, nil, func(*stdhttp.Request) (*stdhttp.Response, error) {
				return jsonResponse(testResponse), nil
			})
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()
			results := provider.LookupStream(ctx, "test")
			result := <-results
			if result.Source != name || result.Lat != 40.7185 {
				t.Errorf("unexpected result: %+v", result)
			}
		})
	})
}

func testProvider(t *testing.T, wlan scanner, fn func(*stdhttp.Request) (*stdhttp.Response, error)) *GeolocationICHNAEAProvider {
	t.Helper()
	client := http.New(logger.NewLogger(slog.LevelDebug, io.Discard))
	if fn != nil {
		client.Transport = testhelper.MockRoundTripper{Fn: fn}
	}
	provider, err := newProvider(client, wlan)
	if err != nil {
		t.Fatalf("failed to create provider: %s", err)
	}
	return provider
}

func jsonResponse(body string) *stdhttp.Response {
	return &stdhttp.Response{
		StatusCode: 200,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(stdhttp.Header),
	}
}
