// Package version reports which artifactindex build is running.
package version

import (
	"fmt"
	"runtime"
)

// Build metadata, stamped by the release build:
//
//	go build -ldflags "-X github.com/Aman-CERP/artifactindex/pkg/version.Version=v1.2.0 \
//	    -X github.com/Aman-CERP/artifactindex/pkg/version.Commit=$(git rev-parse --short HEAD)"
//
// A plain go build leaves the placeholders.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// GoVersion is the toolchain the binary was built with.
var GoVersion = runtime.Version()

// BuildInfo is what `artifactindex version --json` prints.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// String is the one-line banner printed by `artifactindex version`.
func String() string {
	return fmt.Sprintf("artifactindex %s (commit: %s, built: %s, go: %s)",
		Version, Commit, Date, GoVersion)
}

// Short returns Version alone, for scripts.
func Short() string {
	return Version
}

// GetInfo collects the build metadata and the running platform.
func GetInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
