// Package version provides build version information for sidekick.
package version

import (
	"fmt"
	"runtime"
)

// Version is the current version, overridable at build time via ldflags.
var Version = "0.1.0"

// GitCommit is the git commit hash, overridable at build time via ldflags.
var GitCommit = "unknown"

// Info contains version and build information
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Get returns the version information for the current build
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human readable version string
func (i Info) String() string {
	return fmt.Sprintf("sidekick %s (commit %s, %s, %s)", i.Version, i.GitCommit, i.GoVersion, i.Platform)
}
