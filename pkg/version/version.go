// Package version carries build identification for the pymove binary.
// The variables are stamped at link time via -ldflags.
package version

import "fmt"

var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"
	// Commit is the git revision the binary was built from.
	Commit = "none"
	// Date is the build timestamp.
	Date = "unknown"
)

// String renders the full version line.
func String() string {
	return fmt.Sprintf("pymove %s (commit: %s, built: %s)", Version, Commit, Date)
}
