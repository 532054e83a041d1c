// Package server runs the alarm clock daemon: the alarm registry, the gRPC
// API in front of it and the optional Prometheus endpoint.
package server
