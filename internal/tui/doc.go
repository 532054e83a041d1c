// Package tui holds the terminal views of the alarm clock: the stopwatch,
// the countdown timer, the world clock and the challenge that dismisses a
// ringing alarm. Every view is a bubbletea model.
package tui
