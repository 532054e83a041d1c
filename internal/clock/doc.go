// Package clock abstracts the wall-clock and ticker sources used by the alarm
// monitors and the stopwatch/timer engines.
//
// System reads the real clock; Fake is a manually advanced clock for tests.
package clock
