// Package buildinfo holds version information stamped at link time:
//
//	go build -ldflags "-X github.com/sticky3d/deskgeom/pkg/buildinfo.Version=v0.3.0 \
//	    -X github.com/sticky3d/deskgeom/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/sticky3d/deskgeom/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the formatted build information.
func String() string {
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", Version, Commit, Date)
}

// Template returns the version template string for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}
