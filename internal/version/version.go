// Package version holds build metadata, set at link time:
//
//	go build -ldflags "-X github.com/MrSnakeDoc/huddle/internal/version.Version=v0.3.0 \
//	  -X github.com/MrSnakeDoc/huddle/internal/version.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/MrSnakeDoc/huddle/internal/version.BuildDate=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"             // ex: v0.3.0
	Commit    = "none"            // ex: abcd123
	BuildDate = "unknown"         // ex: 2025-08-11T18:42:00Z
	GoVersion = runtime.Version() // go version
)

// String is the one-line form used by --version and the startup log.
func String() string {
	return fmt.Sprintf("%s (commit=%s, built=%s, %s)", Version, Commit, BuildDate, GoVersion)
}
