// Package version exposes the build identity stamped into the binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set through -ldflags at release time; a source build reports "dev".
var (
	Version   = "dev"
	GitCommit = ""
	BuildDate = ""
)

// Info is the full build identity served on the health endpoint.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func Get() Info {
	return Info{
		Version:   resolve(),
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

func GetVersion() string {
	return resolve()
}

// GetShortVersion appends the abbreviated commit when one was stamped in.
func GetShortVersion() string {
	v := resolve()
	if len(GitCommit) >= 7 {
		return fmt.Sprintf("%s-%s", v, GitCommit[:7])
	}
	return v
}

// resolve prefers the stamped version and falls back to the module version
// recorded by the toolchain, so `go install` builds still report something
// useful.
func resolve() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := info.Main.Version; v != "" && v != "(devel)" {
			return v
		}
	}
	return "dev"
}
