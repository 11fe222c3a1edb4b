// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkyr/fig"

	"github.com/wneessen/placepicker/internal/permission"
)

const (
	configEnv = "PLACEPICKER"

	ProviderNominatim    = "nominatim"
	ProviderOpenCage     = "opencage"
	ProviderGeocodeEarth = "geocode-earth"

	DefaultSearchTpl = "{{loc \"search\"}}: {{.Query}}{{if .Searching}} …{{end}}\n" +
		"{{range .Rows}}{{printf \"%2d\" .Index}}  {{pad .Name 32}} {{pad .Locality 20}}" +
		"{{if .HasDistance}} {{distance .Distance}}{{end}}\n{{end}}" +
		"{{if .ShowCurrentLocation}}     {{loc \"use current location\"}}" +
		"{{if .HasDeviceLocation}} ({{coord .DeviceLocation}}, {{ago .DeviceLocationAt}}){{end}}\n{{end}}"
	DefaultMapTpl = "{{loc \"map\"}}: {{coord .Center}} ({{.RegionMeters}} m)\n" +
		"  {{loc .Marker.Title}}{{if .Resolving}} …{{end}}\n" +
		"{{with .Card}}┌ {{loc \"confirm location\"}}\n" +
		"│ {{.Name}}{{if .Locality}}, {{.Locality}}{{end}}\n" +
		"{{if .HasDaylight}}│ {{loc \"sunrise\"}}: {{localTime .Sunrise}}  {{loc \"sunset\"}}: {{localTime .Sunset}}\n{{end}}" +
		"└ [{{loc \"confirm\"}}]\n{{end}}"
)

// Config represents the application's configuration structure.
type Config struct {
	Locale   string     `fig:"locale"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`

	Search struct {
		Debounce time.Duration `fig:"debounce" default:"500ms"`
		// Allowed values: 1 to 50
		Limit    int           `fig:"limit" default:"10"`
		Timeout  time.Duration `fig:"timeout" default:"15s"`
	} `fig:"search"`

	Map struct {
		RegionMeters float64 `fig:"region_meters" default:"1000"`
	} `fig:"map"`

	Geocoder struct {
		// Allowed values: nominatim, opencage, geocode-earth
		Provider           string        `fig:"provider" default:"nominatim"`
		APIKey             string        `fig:"apikey"`
		BaseURL            string        `fig:"base_url"`
		RateLimit          float64       `fig:"rate_limit" default:"1"`
		CacheHitTTL        time.Duration `fig:"cache_hit_ttl" default:"1h"`
		CacheMissTTL       time.Duration `fig:"cache_miss_ttl" default:"10m"`
		CachePruneInterval time.Duration `fig:"cache_prune_interval" default:"15m"`
	} `fig:"geocoder"`

	Templates struct {
		Search string `fig:"search"`
		Map    string `fig:"map"`
	} `fig:"templates"`

	GeoLocation struct {
		File                   string `fig:"file"`
		// Answer to the location authorization request: when-in-use, always, denied, restricted
		Authorization          string `fig:"authorization" default:"when-in-use"`
		GPSDHost               string `fig:"gpsd_host"`
		GPSDPort               string `fig:"gpsd_port"`
		DisableGeoIP           bool   `fig:"disable_geoip"`
		DisableGPSD            bool   `fig:"disable_gpsd"`
		DisableGeolocationFile bool   `fig:"disable_geolocation_file"`
		DisableICHNAEA         bool   `fig:"disable_ichnaea"`
		// Refresh the device location after resuming from system sleep
		DisableSleepMonitor    bool   `fig:"disable_sleep_monitor"`
	} `fig:"geolocation"`
}

func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	if c.Locale == "" {
		c.Locale = getLocale()
	}
	if c.Search.Debounce <= 0 {
		return fmt.Errorf("invalid search debounce: %s", c.Search.Debounce)
	}
	if c.Search.Limit < 1 || c.Search.Limit > 50 {
		return fmt.Errorf("invalid search limit: %d", c.Search.Limit)
	}
	if c.Search.Timeout <= 0 {
		return fmt.Errorf("invalid search timeout: %s", c.Search.Timeout)
	}
	if c.Map.RegionMeters <= 0 {
		return fmt.Errorf("invalid map region: %f", c.Map.RegionMeters)
	}

	c.Geocoder.Provider = strings.ToLower(strings.TrimSpace(c.Geocoder.Provider))
	switch c.Geocoder.Provider {
	case ProviderNominatim:
	case ProviderOpenCage, ProviderGeocodeEarth:
		if c.Geocoder.APIKey == "" {
			return fmt.Errorf("geocoder %s requires an API key", c.Geocoder.Provider)
		}
	default:
		return fmt.Errorf("invalid geocoder provider: %s", c.Geocoder.Provider)
	}
	if c.Geocoder.RateLimit < 0 {
		return fmt.Errorf("invalid geocoder rate limit: %f", c.Geocoder.RateLimit)
	}
	if c.Geocoder.CachePruneInterval <= 0 {
		return fmt.Errorf("invalid geocoder cache prune interval: %s", c.Geocoder.CachePruneInterval)
	}
	c.Geocoder.BaseURL = strings.TrimRight(c.Geocoder.BaseURL, "/")

	if c.Templates.Search == "" {
		c.Templates.Search = DefaultSearchTpl
	}
	if c.Templates.Map == "" {
		c.Templates.Map = DefaultMapTpl
	}

	status, err := permission.ParseStatus(c.GeoLocation.Authorization)
	if err != nil || status == permission.NotDetermined {
		return fmt.Errorf("invalid location authorization: %q", c.GeoLocation.Authorization)
	}
	if c.GeoLocation.File == "" {
		home, _ := os.UserHomeDir()
		c.GeoLocation.File = filepath.Join(home, ".config", "placepicker", "geolocation")
	}

	return nil
}

// Authorization returns the configured answer to the location authorization request.
func (c *Config) Authorization() permission.Status {
	status, err := permission.ParseStatus(c.GeoLocation.Authorization)
	if err != nil {
		return permission.Denied
	}
	return status
}

func getLocale() string {
	locale := os.Getenv("LC_MESSAGES")
	if idx := strings.Index(locale, "."); idx != -1 {
		lang := locale[:idx]
		return strings.ReplaceAll(lang, "_", "-")
	}
	return locale
}
