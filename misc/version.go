// Package misc keeps build information helpers used across the program.
package misc

import (
	"runtime/debug"
)

const appName = "edkit"

// GetAppName returns short program name to be used in file names and logs.
func GetAppName() string {
	return appName
}

// GetVersion returns program version embedded during build.
func GetVersion() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		return bi.Main.Version
	}
	return "(devel)"
}

// GetGitHash returns VCS revision embedded during build.
func GetGitHash() string {
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
