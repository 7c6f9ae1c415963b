package version

import (
	"runtime"
	"runtime/debug"
	"slices"
)

var version = "dev"

// Version returns the version string with the VCS commit suffix when the
// binary was built from a repository checkout.
func Version() string {
	if commit := GitCommit(); commit != "" {
		return version + " (" + commit + ")"
	}
	return version
}

// RawVersion returns the semantic version string without any suffix.
func RawVersion() string {
	return version
}

// GitCommit returns the short VCS revision from build info.
func GitCommit() string {
	return readCommit()
}

// GoVersion returns the Go toolchain version used for the build.
func GoVersion() string {
	return runtime.Version()
}

// readCommit extracts the short VCS revision from debug.ReadBuildInfo.
func readCommit() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	idx := slices.IndexFunc(info.Settings, func(s debug.BuildSetting) bool {
		return s.Key == "vcs.revision"
	})
	if idx < 0 {
		return ""
	}
	val := info.Settings[idx].Value
	if len(val) > 12 {
		return val[:12]
	}
	return val
}

// Info holds structured version information for machine-readable output.
type Info struct {
	Version   string   `json:"version"`
	Platform  Platform `json:"platform"`
	GoVersion string   `json:"goVersion"`
	GitCommit string   `json:"gitCommit,omitempty"`
}

// Platform describes the OS and architecture.
type Platform struct {
	OS   string `json:"os"`
	Arch string `json:"arch"`
}

// GetInfo returns structured version information.
func GetInfo() Info {
	return Info{
		Version: RawVersion(),
		Platform: Platform{
			OS:   runtime.GOOS,
			Arch: runtime.GOARCH,
		},
		GoVersion: GoVersion(),
		GitCommit: readCommit(),
	}
}
