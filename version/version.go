// Package version exposes build version information for voicekit hosts.
package version

import (
	"fmt"
	"runtime/debug"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// Info describes the running build.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	GoVersion string `json:"goVersion"`
	Dirty     bool   `json:"dirty"`
}

// Get returns version information, filling the commit and Go version
// from the embedded build info when available.
func Get() Info {
	info := Info{Version: Version}

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = buildInfo.GoVersion
	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			commit := setting.Value
			if len(commit) > 7 {
				commit = commit[:7]
			}
			info.GitCommit = commit
		case "vcs.modified":
			info.Dirty = setting.Value == "true"
		}
	}
	return info
}

// String returns a short human-readable version.
func (i Info) String() string {
	out := i.Version
	if i.GitCommit != "" {
		out = fmt.Sprintf("%s-%s", out, i.GitCommit)
	}
	if i.Dirty {
		out += "-dirty"
	}
	return out
}
