// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package opencage

import (
	"errors"
	"io"
	"log/slog"
	stdhttp "net/http"
	"os"
	"testing"

	"golang.org/x/text/language"

	"github.com/wneessen/placepicker/internal/geobus"
	"github.com/wneessen/placepicker/internal/http"
	"github.com/wneessen/placepicker/internal/logger"
	"github.com/wneessen/placepicker/internal/testhelper"
)

const (
	eiffelFile  = "../../../../testdata/opencage_eiffel.json"
	emptyFile   = "../../../../testdata/opencage_empty.json"
	villageFile = "../../../../testdata/opencage_village.json"
	testAPIKey  = "oc-test-key"
)

var eiffelCoords = geobus.Coordinate{Lat: 48.8584, Lon: 2.2945}

func TestNew(t *testing.T) {
	t.Run("an API key is required", func(t *testing.T) {
		_, err := New(http.New(logger.NewLogger(slog.LevelDebug, io.Discard)), language.English, "")
		if !errors.Is(err, ErrMissingAPIKey) {
			t.Errorf("expected ErrMissingAPIKey, got %v", err)
		}
	})
	t.Run("provider name is correct", func(t *testing.T) {
		if coder := testCoder(t, nil); coder.Name() != name {
			t.Errorf("expected provider name to be %q, got %q", name, coder.Name())
		}
	})
}

func TestOpenCage_Reverse(t *testing.T) {
	t.Run("reverse geocoding succeeds", func(t *testing.T) {
		coder := testCoder(t, func(req *stdhttp.Request) (*stdhttp.Response, error) {
			query := req.URL.Query()
			if query.Get("q") != "48.858400,2.294500" {
				t.Errorf("unexpected query: %s", query.Get("q"))
			}
			if query.Get("key") != testAPIKey || query.Get("no_record") != "1" {
				t.Errorf("unexpected parameters: %s", req.URL.RawQuery)
			}
			return fileResponse(t, eiffelFile), nil
		})
		place, err := coder.Reverse(t.Context(), eiffelCoords)
		if err != nil {
			t.Fatal(err)
		}
		if !place.Found {
			t.Fatal("expected place to be found")
		}
		if place.Name != "Eiffel Tower" || place.Locality != "Paris" {
			t.Errorf("unexpected place: %+v", place)
		}
		if place.Street != "Avenue Anatole France" || place.Suburb != "Paris 7e Arrondissement" {
			t.Errorf("unexpected address details: %+v", place)
		}
	})
	t.Run("locality falls back to the village", func(t *testing.T) {
		coder := testCoder(t, func(*stdhttp.Request) (*stdhttp.Response, error) {
			return fileResponse(t, villageFile), nil
		})
		place, err := coder.Reverse(t.Context(), geobus.Coordinate{Lat: 51.46292, Lon: -2.3185})
		if err != nil {
			t.Fatal(err)
		}
		if place.Locality != "Marshfield" {
			t.Errorf("expected locality to be Marshfield, got %q", place.Locality)
		}
	})
	t.Run("no results means not found", func(t *testing.T) {
		coder := testCoder(t, func(*stdhttp.Request) (*stdhttp.Response, error) {
			return fileResponse(t, emptyFile), nil
		})
		place, err := coder.Reverse(t.Context(), geobus.Coordinate{Lat: 0, Lon: -30})
		if err != nil {
			t.Fatal(err)
		}
		if place.Found {
			t.Error("expected place to be not found")
		}
	})
	t.Run("reverse geocoding fails", func(t *testing.T) {
		coder := testCoder(t, func(*stdhttp.Request) (*stdhttp.Response, error) {
			return nil, errors.New("intentionally failing")
		})
		if _, err := coder.Reverse(t.Context(), eiffelCoords); err == nil {
			t.Fatal("expected API request to fail")
		}
	})
}

func TestOpenCage_Search(t *testing.T) {
	t.Run("searching returns the candidates", func(t *testing.T) {
		coder := testCoder(t, func(req *stdhttp.Request) (*stdhttp.Response, error) {
			if limit := req.URL.Query().Get("limit"); limit != "3" {
				t.Errorf("expected limit 3, got %q", limit)
			}
			return fileResponse(t, eiffelFile), nil
		})
		places, err := coder.Search(t.Context(), "eiffel tower", 3)
		if err != nil {
			t.Fatal(err)
		}
		if len(places) != 1 || places[0].Name != "Eiffel Tower" {
			t.Errorf("unexpected places: %+v", places)
		}
	})
	t.Run("no results is an empty search", func(t *testing.T) {
		coder := testCoder(t, func(*stdhttp.Request) (*stdhttp.Response, error) {
			return fileResponse(t, emptyFile), nil
		})
		places, err := coder.Search(t.Context(), "xyzzy", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(places) != 0 {
			t.Errorf("expected no places, got %d", len(places))
		}
	})
}

func TestOpenCage_integration(t *testing.T) {
	testhelper.PerformIntegrationTests(t)
	apikey := os.Getenv("OPENCAGE_APIKEY")
	if apikey == "" {
		t.Skip("no OpenCage API key set, skipping tests")
	}
	coder, err := New(http.New(logger.New(slog.LevelDebug)), language.English, apikey)
	if err != nil {
		t.Fatal(err)
	}
	place, err := coder.Reverse(t.Context(), eiffelCoords)
	if err != nil {
		t.Fatal(err)
	}
	if !place.Found {
		t.Fatal("expected place to be found")
	}
}

func testCoder(t *testing.T, fn func(req *stdhttp.Request) (*stdhttp.Response, error)) *OpenCage {
	t.Helper()
	client := http.New(logger.NewLogger(slog.LevelDebug, io.Discard))
	if fn != nil {
		client.Transport = testhelper.MockRoundTripper{Fn: fn}
	}
	coder, err := New(client, language.English, testAPIKey)
	if err != nil {
		t.Fatalf("failed to create geocoder: %s", err)
	}
	return coder
}

func fileResponse(t *testing.T, file string) *stdhttp.Response {
	t.Helper()
	data, err := os.Open(file)
	if err != nil {
		t.Fatalf("failed to open JSON response file: %s", err)
	}
	return &stdhttp.Response{StatusCode: 200, Body: data, Header: make(stdhttp.Header)}
}
