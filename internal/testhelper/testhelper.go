// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package testhelper holds small helpers shared by the package tests.
package testhelper

import (
	"net/http"
	"os"
	"testing"
)

// IntegrationTestEnv is the environment variable that enables tests talking to real APIs.
const IntegrationTestEnv = "PERFORM_INTEGRATION_TESTS"

// MockRoundTripper is a http.RoundTripper that hands every request to Fn.
type MockRoundTripper struct {
	Fn func(req *http.Request) (*http.Response, error)
}

func (m MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.Fn(req)
}

// PerformIntegrationTests skips the calling test unless integration tests are enabled.
func PerformIntegrationTests(t *testing.T) {
	t.Helper()
	if val := os.Getenv(IntegrationTestEnv); val != "true" {
		t.Skipf("skipping integration test, set %s=true to enable", IntegrationTestEnv)
	}
}
