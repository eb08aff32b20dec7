// Package version carries build metadata set through -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

// Short returns the version number.
func Short() string {
	return Version
}

// Info returns the full build description.
func Info() string {
	return fmt.Sprintf("companion %s\n  commit: %s\n  built:  %s\n  go:     %s",
		Version, Commit, BuildTime, runtime.Version())
}
