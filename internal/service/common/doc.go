// Package common holds helpers shared by the command line services.
//
// It provides a gRPC client for the alarm daemon with per-call timeouts and
// detection of the current system actor (user@host) sent along with every call.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
