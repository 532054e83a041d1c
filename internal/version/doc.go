// Package version holds the build metadata of alarm-clock and alarm-clockd.
//
// Version, Commit and BuildTime are set through ldflags. Without a Commit the
// VCS revision recorded by the Go toolchain is reported.
package version
