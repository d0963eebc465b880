// Package version resolves the version string shown by the binaries.
package version

import (
	"runtime/debug"
	"strings"
)

// IsDevelopmentVersion returns true for non-release versions.
func IsDevelopmentVersion(v string) bool {
	if v == "" || v == "unknown" || v == "dev" || v == "devel" {
		return true
	}
	return strings.HasPrefix(v, "devel+")
}

// Effective returns v when it was injected at build time, otherwise the
// module version or a devel+<rev> string from the Go build info.
func Effective(v string) string {
	return effective(v, debug.ReadBuildInfo)
}

func effective(v string, read func() (*debug.BuildInfo, bool)) string {
	// If the build injected a real version, prefer it.
	if !IsDevelopmentVersion(v) {
		return v
	}

	info, ok := read()
	if !ok || info == nil {
		return v
	}

	// When installed via `go install module@vX.Y.Z`, this will typically be `vX.Y.Z`.
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	var rev, modified string
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			modified = s.Value
		}
	}
	if rev == "" {
		return v
	}
	short := rev
	if len(short) > 12 {
		short = short[:12]
	}
	parts := []string{"devel", short}
	if modified == "true" {
		parts = append(parts, "dirty")
	}
	return strings.Join(parts, "+")
}
