package buildinfo

import (
	"runtime"
	"runtime/debug"
	"sync"
)

// Build-time variables (set via ldflags).
var (
	// Version is the semantic version.
	Version = "dev"

	// Commit is the git commit hash.
	Commit = "unknown"

	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// Info contains build information.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
	Modified  bool   `json:"modified,omitempty" yaml:"modified,omitempty"`
}

var (
	embedded     Info
	embeddedOnce sync.Once
)

func readEmbedded() Info {
	embeddedOnce.Do(func() {
		embedded = Info{
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		}
		bi, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		if v := bi.Main.Version; v != "" && v != "(devel)" {
			embedded.Version = v
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				embedded.Commit = s.Value
			case "vcs.time":
				embedded.BuildTime = s.Value
			case "vcs.modified":
				embedded.Modified = s.Value == "true"
			}
		}
	})
	return embedded
}

// Get returns the build information. Values injected via ldflags win over
// embedded module data.
func Get() Info {
	info := readEmbedded()
	if Version != "dev" || info.Version == "" {
		info.Version = Version
	}
	if Commit != "unknown" || info.Commit == "" {
		info.Commit = Commit
	}
	if BuildTime != "unknown" || info.BuildTime == "" {
		info.BuildTime = BuildTime
	}
	return info
}

// String returns a one-line version string.
func String() string {
	info := Get()
	commit := info.Commit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if info.Modified {
		commit += "-dirty"
	}
	return info.Version + " (" + commit + ") built at " + info.BuildTime + " " + info.GoVersion + " " + info.Platform
}
