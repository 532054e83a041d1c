// Package alarm contains the core domain types of the alarm clock.
//
// It defines the Alarm value, its lifecycle State, and the helpers that turn a
// user-supplied time of day into the absolute instant an alarm fires at.
package alarm
