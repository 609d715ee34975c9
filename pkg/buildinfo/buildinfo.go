// Package buildinfo exposes version metadata injected at link time.
package buildinfo

import (
	"runtime"
	"runtime/debug"
)

// Set at build time via -ldflags "-X github.com/fulmenhq/preprint/pkg/buildinfo.BinaryVersion=...".
var (
	BinaryVersion = "dev"
	GitCommit     = ""
	BuildDate     = ""
)

// ModuleVersion returns the module version embedded by the Go toolchain (when available).
func ModuleVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return ""
}

// Info is the extended version report.
type Info struct {
	Version       string `json:"version"`
	ModuleVersion string `json:"moduleVersion,omitempty"`
	GitCommit     string `json:"gitCommit,omitempty"`
	BuildDate     string `json:"buildDate,omitempty"`
	GoVersion     string `json:"goVersion"`
	Platform      string `json:"platform"`
	Arch          string `json:"arch"`
}

// Current collects the build metadata of the running binary. The commit
// falls back to the VCS revision recorded by the Go toolchain.
func Current() Info {
	info := Info{
		Version:       BinaryVersion,
		ModuleVersion: ModuleVersion(),
		GitCommit:     GitCommit,
		BuildDate:     BuildDate,
		GoVersion:     runtime.Version(),
		Platform:      runtime.GOOS,
		Arch:          runtime.GOARCH,
	}
	if info.GitCommit == "" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" {
					info.GitCommit = s.Value
				}
			}
		}
	}
	return info
}
