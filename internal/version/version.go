// Package version exposes the build identity stamped into release binaries.
package version

import "fmt"

// Injected at build time, e.g.:
//
//	go build -ldflags "\
//	  -X github.com/stratalake/eventstream/internal/version.Version=$(git describe --tags) \
//	  -X github.com/stratalake/eventstream/internal/version.Commit=$(git rev-parse --short HEAD) \
//	  -X github.com/stratalake/eventstream/internal/version.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String renders the full build identity for --version output.
func String() string {
	return fmt.Sprintf("eventstream %s (commit %s, built %s)", Version, Commit, Date)
}
