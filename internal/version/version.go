// Package version holds build metadata injected at link time via -ldflags.
package version

var (
	// Version is the semantic version of this build.
	Version = "dev"

	// Commit is the git commit SHA of this build.
	Commit = "unknown"
)
