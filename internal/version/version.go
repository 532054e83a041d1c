package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Version of the alarm clock binaries, set via -ldflags "-X".
	Version = "0.1.0"
	// Commit is the short git SHA. When not set, the VCS revision stamped by the Go toolchain is used.
	Commit = ""
	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// commitLength is the number of SHA characters shown.
const commitLength = 7

// Short returns the semantic version.
func Short() string {
	return Version
}

// Revision returns Commit, or the VCS revision from the build info, or "none".
func Revision() string {
	if Commit != "" {
		return Commit
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "none"
	}

	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && setting.Value != "" {
			return shorten(setting.Value)
		}
	}

	return "none"
}

// Full renders the version line of a binary, e.g.
// "alarm-clockd 0.1.0 (commit 1a2b3c4, built 2026-10-19T08:00:00Z, go1.25.0 linux/amd64)".
func Full(program string) string {
	return fmt.Sprintf("%s %s (commit %s, built %s, %s %s/%s)",
		program, Version, Revision(), BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func shorten(sha string) string {
	if len(sha) > commitLength {
		return sha[:commitLength]
	}

	return sha
}
