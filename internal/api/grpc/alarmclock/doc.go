// Package alarmclock implements the gRPC transport of the alarm clock daemon.
//
// The service is described by hand and exchanges protobuf well-known messages:
// structured payloads travel as structpb.Struct, identifiers as wrapperspb
// values. The package adapts them to domain types on both sides of the wire.
package alarmclock
