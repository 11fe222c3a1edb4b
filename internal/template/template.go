// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package template

import (
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/vorlif/humanize"
	"github.com/vorlif/humanize/locale/de"
	"github.com/vorlif/spreak"
	"github.com/vorlif/spreak/localize"
	"golang.org/x/text/language"

	"github.com/wneessen/placepicker/internal/config"
	"github.com/wneessen/placepicker/internal/geobus"
)

// Templates holds the parsed screen templates.
type Templates struct {
	Search    *template.Template
	Map       *template.Template
	localizer *spreak.Localizer
	humanizer *humanize.Humanizer
}

var i18nVars = map[string]localize.MsgID{
	"search":               "Search",
	"use current location": "Use current location",
	"map":                  "Map",
	"selected location":    "Selected Location",
	"confirm location":     "Confirm Location",
	"confirm":              "Confirm",
	"sunrise":              "Sunrise",
	"sunset":               "Sunset",
	"no results":           "No results",
}

// NewHumanizer returns a humanizer for the given language.
func NewHumanizer(tag language.Tag) *humanize.Humanizer {
	return humanize.MustNew(humanize.WithLocale(de.New())).CreateHumanizer(tag)
}

// New parses the configured screen templates.
func New(conf *config.Config, loc *spreak.Localizer, human *humanize.Humanizer) (*Templates, error) {
	tpls := &Templates{localizer: loc, humanizer: human}

	tpl, err := template.New("search").Funcs(tpls.templateFuncMap()).Parse(conf.Templates.Search)
	if err != nil {
		return tpls, fmt.Errorf("failed to parse search template: %w", err)
	}
	tpls.Search = tpl

	tpl, err = template.New("map").Funcs(tpls.templateFuncMap()).Parse(conf.Templates.Map)
	if err != nil {
		return tpls, fmt.Errorf("failed to parse map template: %w", err)
	}
	tpls.Map = tpl

	return tpls, nil
}

// Localize translates a known label key and returns val unchanged otherwise.
func (t *Templates) Localize(val string) string {
	return t.loc(val)
}

func (t *Templates) templateFuncMap() template.FuncMap {
	return template.FuncMap{
		"timeFormat":  timeFormat,
		"floatFormat": floatFormat,
		"loc":         t.loc,
		"lc":          strings.ToLower,
		"uc":          strings.ToUpper,
		"pad":         pad,
		"distance":    distance,
		"coord":       coord,
		"ago":         t.ago,
		"localTime":   t.localTime,
	}
}

func (t *Templates) loc(val string) string {
	if raw, ok := i18nVars[strings.ToLower(val)]; ok {
		return t.localizer.Get(raw)
	}
	return val
}

func (t *Templates) ago(val time.Time) string {
	return t.humanizer.NaturalTime(val)
}

func (t *Templates) localTime(val time.Time) string {
	return t.humanizer.FormatTime(val, humanize.TimeFormat)
}

func timeFormat(val time.Time, fmt string) string {
	return val.Format(fmt)
}

func floatFormat(val float64, precision int) string {
	pow := math.Pow(10, float64(precision))
	return fmt.Sprintf("%.*f", precision, math.Trunc(val*pow)/pow)
}

// pad fills val with spaces up to width display cells, truncating longer values.
func pad(val string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(val, width, "…"), width)
}

// distance formats meters as m below one kilometer and km above.
func distance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

func coord(c geobus.Coordinate) string {
	return fmt.Sprintf("%.4f, %.4f", c.Lat, c.Lon)
}
