// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geolocation_file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/synctest"
	"time"
)

const (
	testFile = "../../../../testdata/geolocation"
	testLat  = 48.8584
	testLon  = 2.2945
)

func TestGeolocationFileProvider_Name(t *testing.T) {
	provider := NewGeolocationFileProvider(testFile)
	if provider.Name() != name {
		t.Errorf("expected provider name to be %s, got %s", name, provider.Name())
	}
}

func TestGeolocationFileProvider_readFile(t *testing.T) {
	t.Run("read file succeeds and skips comments", func(t *testing.T) {
		coord, err := NewGeolocationFileProvider(testFile).readFile()
		if err != nil {
			t.Fatalf("failed to read file: %s", err)
		}
		if coord.Lat != testLat || coord.Lon != testLon {
			t.Errorf("expected %f,%f, got %s", testLat, testLon, coord)
		}
		if coord.Acc != Accuracy {
			t.Errorf("expected accuracy to be %d, got %f", Accuracy, coord.Acc)
		}
	})
	t.Run("read of non-existent file fails", func(t *testing.T) {
		if _, err := NewGeolocationFileProvider("non-existent.txt").readFile(); err == nil {
			t.Error("expected error, but didn't get one")
		}
	})
	t.Run("files without usable coordinates fail", func(t *testing.T) {
		tests := []struct {
			name    string
			content string
		}{
			{"only comments", "# 48.8584,2.2945\n"},
			{"broken latitude", "abc,2.2945\n"},
			{"broken longitude", "48.8584,xyz\n"},
			{"missing separator", "48.8584 2.2945\n"},
			{"out of range", "148.8584,2.2945\n"},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "geolocation")
				if err := os.WriteFile(path, []byte(tc.content), 0o600); err != nil {
					t.Fatalf("failed to write test file: %s", err)
				}
				_, err := NewGeolocationFileProvider(path).readFile()
				if !errors.Is(err, ErrNoCoordinates) {
					t.Errorf("expected error to be %s, got %v", ErrNoCoordinates, err)
				}
			})
		}
	})
}

func TestGeolocationFileProvider_LookupStream(t *testing.T) {
	t.Run("the file location is streamed", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()

			stream := NewGeolocationFileProvider(testFile).LookupStream(ctx, "test")
			select {
			case r := <-stream:
				if r.Lat != testLat || r.Lon != testLon || r.Source != name || r.Key != "test" {
					t.Errorf("unexpected result: %+v", r)
				}
				if r.TTL != time.Hour {
					t.Errorf("expected TTL of one hour, got %s", r.TTL)
				}
			case <-time.After(time.Second):
				t.Fatal("expected a result to be streamed")
			}
		})
	})
}
