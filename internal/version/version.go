// Package version provides version information for the graphpack binary.
package version

import (
	"fmt"
	"runtime"
)

// Build-time variables set via ldflags.
var (
	// Version is the graphpack version (set via ldflags).
	Version = "v0.0.0-dev"

	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// Module paths whose versions are reported.
const (
	EsbuildModule = "github.com/evanw/esbuild"
	CUEModule     = "cuelang.org/go"
)

// Info contains version information.
type Info struct {
	// Version is the graphpack version (set via ldflags).
	Version string `json:"version"`

	// GitCommit is the git commit hash.
	GitCommit string `json:"gitCommit"`

	// BuildDate is the build timestamp.
	BuildDate string `json:"buildDate"`

	// GoVersion is the Go version used to build.
	GoVersion string `json:"goVersion"`

	// EsbuildVersion is the esbuild module the transform steps run on.
	EsbuildVersion string `json:"esbuildVersion"`

	// CUEVersion is the CUE module validating configuration.
	CUEVersion string `json:"cueVersion"`
}

// Get returns the current version information.
func Get() Info {
	return Info{
		Version:        Version,
		GitCommit:      GitCommit,
		BuildDate:      BuildDate,
		GoVersion:      runtime.Version(),
		EsbuildVersion: DependencyVersion(EsbuildModule),
		CUEVersion:     DependencyVersion(CUEModule),
	}
}

// String returns a human-readable version string.
func (i Info) String() string {
	return fmt.Sprintf("graphpack:\n  Version:  %s\n  Build ID: %s/%s\n  Go:       %s\n\nLibraries:\n  esbuild:  %s\n  CUE:      %s",
		i.Version, i.BuildDate, i.GitCommit, i.GoVersion, i.EsbuildVersion, i.CUEVersion)
}
