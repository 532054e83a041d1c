// Package format renders durations and clock readings for the terminal views.
package format

import (
	"fmt"
	"time"
)

// Stopwatch renders d as HH:MM:SS.mmm.
func Stopwatch(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	hours := d / time.Hour
	minutes := (d % time.Hour) / time.Minute
	seconds := (d % time.Minute) / time.Second
	millis := (d % time.Second) / time.Millisecond

	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}

// Countdown renders d as HH:MM:SS, truncating sub-second precision.
func Countdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	hours := d / time.Hour
	minutes := (d % time.Hour) / time.Minute
	seconds := (d % time.Minute) / time.Second

	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// TimeOfDay renders t as HH:MM.
func TimeOfDay(t time.Time) string {
	return t.Format("15:04")
}

// WorldTime renders t the way the world clock shows it: 24-hour time with an AM/PM marker.
func WorldTime(t time.Time) string {
	return t.Format("15:04:05 PM")
}
