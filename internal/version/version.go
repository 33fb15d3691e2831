// Package version resolves the build identity reported at startup and by /health.
package version

import (
	"runtime/debug"
	"strings"
	"sync"
)

// Overridden with -ldflags "-X github.com/kailas-cloud/vecrag/internal/version.Version=...".
// Empty Commit and Date fall back to the VCS stamp the Go toolchain embeds.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Info is the resolved build identity.
type Info struct {
	Version string
	Commit  string
	Date    string
	Dirty   bool
}

var current = sync.OnceValue(func() Info {
	bi, _ := debug.ReadBuildInfo()
	return resolve(Version, Commit, Date, bi)
})

// Get returns the build identity of the running binary.
func Get() Info { return current() }

func resolve(ver, commit, date string, bi *debug.BuildInfo) Info {
	info := Info{Version: ver, Commit: commit, Date: date}
	if bi == nil {
		return info
	}
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = strings.TrimPrefix(bi.Main.Version, "v")
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "" {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

// ShortCommit is the first 12 characters of Commit, or "unknown".
func (i Info) ShortCommit() string {
	switch {
	case i.Commit == "":
		return "unknown"
	case len(i.Commit) > 12:
		return i.Commit[:12]
	default:
		return i.Commit
	}
}

// String renders "1.2.0 (abc123def456)", with "-dirty" appended to a modified tree.
func (i Info) String() string {
	c := i.ShortCommit()
	if i.Dirty {
		c += "-dirty"
	}
	return i.Version + " (" + c + ")"
}
