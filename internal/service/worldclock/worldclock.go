// Package worldclock reads the current time in a list of cities.
package worldclock

import (
	"fmt"
	"time"

	"github.com/oshokin/alarm-clock/internal/clock"
	"github.com/oshokin/alarm-clock/internal/config"
	"github.com/oshokin/alarm-clock/internal/format"
)

// Reading is the time in one city.
type Reading struct {
	City string
	Time time.Time
}

// Formatted renders the reading time for display.
func (r Reading) Formatted() string {
	return format.WorldTime(r.Time)
}

type location struct {
	city string
	loc  *time.Location
}

// WorldClock converts the clock reading to each configured zone.
type WorldClock struct {
	clock     clock.Clock
	locations []location
}

// New resolves the zones of the provided cities.
func New(c clock.Clock, cities []config.City) (*WorldClock, error) {
	if c == nil {
		c = clock.System{}
	}

	locations := make([]location, 0, len(cities))

	for _, city := range cities {
		loc, err := time.LoadLocation(city.Zone)
		if err != nil {
			return nil, fmt.Errorf("load zone of %s: %w", city.Name, err)
		}

		locations = append(locations, location{city: city.Name, loc: loc})
	}

	return &WorldClock{clock: c, locations: locations}, nil
}

// Now returns the current time in every city, in configuration order.
func (w *WorldClock) Now() []Reading {
	now := w.clock.Now()
	readings := make([]Reading, 0, len(w.locations))

	for _, l := range w.locations {
		readings = append(readings, Reading{City: l.city, Time: now.In(l.loc)})
	}

	return readings
}
