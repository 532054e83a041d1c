// Package timer implements the countdown timer.
//
// A Timer is armed with a duration, counts down once per tick while running and,
// on reaching zero, stops, starts its sound and notifies subscribers. Silencing
// an expired timer is a plain Stop or Reset; no challenge is involved.
package timer
