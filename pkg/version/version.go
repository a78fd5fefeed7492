// Package version provides build information for the better-bahn binary.
// The variables are set via ldflags during the build.
package version

import "runtime"

// Version is the current version of the binary.
// Set via -ldflags "-X github.com/logic-arts-official/Better-Bahn/pkg/version.Version=..."
var Version = "dev"

// BuildDate is the date when the binary was built.
var BuildDate = "unknown"

// GitCommit is the git commit hash used to build the binary.
var GitCommit = "unknown"

// String returns the bare version.
func String() string {
	return Version
}

// FullString returns a version string for display.
func FullString() string {
	if Version == "dev" {
		return "better-bahn development version"
	}
	return "better-bahn " + Version
}

// Info returns all version information as a map.
func Info() map[string]string {
	return map[string]string{
		"version":   Version,
		"buildDate": BuildDate,
		"gitCommit": GitCommit,
		"goVersion": runtime.Version(),
	}
}
