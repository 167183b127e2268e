// Package buildinfo carries version information that is stamped in at
// link time.
package buildinfo

var (
	// Version is the release number for this build
	Version = "dev"

	// Commit is the specific git hash
	Commit = "UNKNOWN"

	// BuildDate is the build timestamp
	BuildDate = "UNKNOWN"
)
