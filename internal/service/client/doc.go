// Package client implements the alarm-clock subcommands.
//
// Alarm commands talk to the daemon over gRPC; the stopwatch, timer and world
// clock run locally in the terminal.
package client
