package version

import (
	"runtime/debug"
)

// unknownVersion is reported when build info is unavailable, as in tests.
const unknownVersion = "unknown"

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// DependencyVersion returns the version of module path linked into the
// binary. Replaced modules report the replacement's version.
func DependencyVersion(path string) string {
	info, ok := readBuildInfo()
	if !ok {
		return unknownVersion
	}
	for _, dep := range info.Deps {
		if dep.Path != path {
			continue
		}
		if dep.Replace != nil && dep.Replace.Version != "" {
			return dep.Replace.Version
		}
		if dep.Version == "" {
			return unknownVersion
		}
		return dep.Version
	}
	return unknownVersion
}
