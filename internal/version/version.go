// Package version holds the build version of symres.
package version

import (
	"fmt"
	"runtime"
)

// Set at build time:
// go build -ldflags "-X symres/internal/version.Version=1.0.0 -X symres/internal/version.Commit=abc123"
var (
	Version   = "0.3.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info is the version report printed by `symres version --format json`.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Get returns the version report for this binary.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Short returns the version with an abbreviated commit when one is known.
func Short() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// String renders the full human report.
func (i Info) String() string {
	return fmt.Sprintf("symres version %s\nCommit: %s\nBuilt: %s\nGo: %s %s",
		i.Version, i.Commit, i.BuildDate, i.GoVersion, i.Platform)
}
