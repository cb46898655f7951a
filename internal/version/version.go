// Package version reports build information for swatch.
//
// Release builds set Version, Commit and Date with ldflags:
//
//	-X github.com/jmylchreest/swatch/internal/version.Version=x.y.z
//
// Builds without ldflags fall back to the module version and VCS stamp
// recorded by the Go toolchain.
package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
)

const unknown = "unknown"

var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	Dirty     bool   `json:"dirty,omitempty"`
	Module    string `json:"module,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

var buildInfo = sync.OnceValue(func() Info {
	bi, _ := debug.ReadBuildInfo()
	return resolve(Version, Commit, Date, bi)
})

// GetInfo returns the build information of the running binary.
func GetInfo() Info {
	return buildInfo()
}

// resolve merges ldflags values with the toolchain's build info. Values set
// by ldflags win.
func resolve(ver, commit, date string, bi *debug.BuildInfo) Info {
	info := Info{
		Version:   ver,
		Commit:    commit,
		Date:      date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi == nil {
		return info
	}

	info.Module = bi.Main.Path
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = strings.TrimPrefix(bi.Main.Version, "v")
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == unknown {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == unknown {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

// String returns the one line form used by "swatch version".
func String() string {
	return GetInfo().String()
}

func (i Info) String() string {
	var b strings.Builder
	b.WriteString("swatch version ")
	b.WriteString(i.Version)

	details := make([]string, 0, 4)
	if i.Commit != unknown {
		commit := i.Commit
		if len(commit) > 8 {
			commit = commit[:8]
		}
		if i.Dirty {
			commit += "-dirty"
		}
		details = append(details, "commit: "+commit)
	}
	if i.Date != unknown {
		details = append(details, "built: "+i.Date)
	}
	details = append(details, i.GoVersion, i.Platform)

	b.WriteString(" (")
	b.WriteString(strings.Join(details, ", "))
	b.WriteString(")")
	return b.String()
}

// Short returns the bare version.
func Short() string {
	return GetInfo().Version
}
