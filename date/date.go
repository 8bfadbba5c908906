// Package date resolves acquisition dates for raster time-series
// stacks and converts monitoring-period definitions into cutoff
// timestamps.
package date

import (
	"errors"
	"regexp"
	"strconv"
	"time"

	"github.com/ansel1/merry"

	"github.com/go-raster/rasterts/cube"
)

var (
	ErrMissingDateSource  = merry.New("no date source: supply dates, layer times, or parsable scene identifiers")
	ErrDateLengthMismatch = merry.New("dates length does not match layer count")
)

var errBadSceneID = errors.New("unrecognized scene identifier")

// A Source attempts to produce one date per layer of a cube. ok is
// false when the source does not apply to this cube; sources never
// return a partial vector.
type Source func(c *cube.Cube) (dates []time.Time, ok bool)

// Sources is the resolver chain tried by Resolve, in order.
var Sources = []Source{FromLayerTimes, FromSceneIDs}

// Resolve produces one date per layer. An explicit non-nil dates
// argument wins, but must match the layer count exactly. Otherwise
// the sources in Sources are tried in order; the first applicable one
// wins.
func Resolve(c *cube.Cube, explicit []time.Time) ([]time.Time, error) {
	if explicit != nil {
		if len(explicit) != len(c.Layers) {
			return nil, ErrDateLengthMismatch.Here().WithMessagef("got %d dates for %d layers", len(explicit), len(c.Layers))
		}
		return explicit, nil
	}

	for _, src := range Sources {
		if dates, ok := src(c); ok {
			return dates, nil
		}
	}

	return nil, ErrMissingDateSource.Here()
}

// FromLayerTimes reads the timestamps the cube itself carries.
// Applicable only when every layer has one.
func FromLayerTimes(c *cube.Cube) ([]time.Time, bool) {
	return c.Times()
}

// FromSceneIDs parses one acquisition date per layer from the layer
// names. Applicable only when every name is a recognizable scene
// identifier.
func FromSceneIDs(c *cube.Cube) ([]time.Time, bool) {
	dates := make([]time.Time, len(c.Layers))
	for i, l := range c.Layers {
		t, err := ParseSceneID(l.Name)
		if err != nil {
			return nil, false
		}
		dates[i] = t
	}
	return dates, true
}

// Landsat identifiers. Pre-collection scene IDs carry the acquisition
// year and day-of-year (LT52300701995154, LC82300702014001LGN00);
// collection product IDs carry a calendar date
// (LC08_L1TP_230070_20140101_20170420_01_T1).
var (
	sceneIDRe   = regexp.MustCompile(`^L[COTEM][1-9]\d{6}(\d{4})(\d{3})`)
	productIDRe = regexp.MustCompile(`^L[COTEM]0[1-9]_[A-Z0-9]{4}_\d{6}_(\d{8})_`)
)

// ParseSceneID extracts the acquisition date from a Landsat scene or
// product identifier.
func ParseSceneID(name string) (time.Time, error) {
	if m := sceneIDRe.FindStringSubmatch(name); m != nil {
		year, _ := strconv.Atoi(m[1])
		doy, _ := strconv.Atoi(m[2])
		if doy < 1 || doy > 366 {
			return time.Time{}, errBadSceneID
		}
		return FromDayOfYear(year, doy), nil
	}
	if m := productIDRe.FindStringSubmatch(name); m != nil {
		t, err := time.Parse("20060102", m[1])
		if err != nil {
			return time.Time{}, errBadSceneID
		}
		return t, nil
	}
	return time.Time{}, errBadSceneID
}

// FromDayOfYear returns midnight UTC of the given julian day of the
// year, day 1 being January 1st.
func FromDayOfYear(year, day int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day-1)
}

// MonitoringPeriod is the start of the monitored part of a time
// series, given as a year and julian day of that year. Everything
// strictly before it is history.
type MonitoringPeriod struct {
	Year int
	Day  int
}

// Cutoff returns the first instant of the monitoring period.
func (p MonitoringPeriod) Cutoff() time.Time {
	return FromDayOfYear(p.Year, p.Day)
}
