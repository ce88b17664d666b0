// Package compileinfo reports the module version and VCS stamp of the running
// binary.
package compileinfo

import (
	"fmt"
	"os"
	"runtime/debug"
)

type CompileInfo struct {
	Package    string
	Version    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

func (c CompileInfo) String() string {
	mod := ""
	if c.Modified {
		mod = " Files in the repo were modified after that commit."
	}

	return fmt.Sprintf("This %s binary (%s) was built with %s at commit %v at time %v.%s", c.Package, c.Short(), c.GoVersion, c.Commit, c.CommitTime, mod)
}

// Short is a one-word version: the module version when built from a tagged
// module, else the abbreviated commit, else "devel".
func (c CompileInfo) Short() string {
	switch {
	case c.Version != "" && c.Version != "(devel)":
		return c.Version
	case len(c.Commit) >= 12:
		if c.Modified {
			return c.Commit[:12] + "-dirty"
		}
		return c.Commit[:12]
	case c.Commit != "":
		return c.Commit
	}

	return "devel"
}

func Get() CompileInfo {
	out := CompileInfo{}

	z, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}

	out.GoVersion = z.GoVersion
	out.Package = z.Path
	out.Version = z.Main.Version
	for _, s := range z.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	return out
}

// PrintToStdErr writes the build description to stderr, which keeps stdout
// free for a piped document.
func PrintToStdErr() {
	fmt.Fprintf(os.Stderr, "%s\n", Get())
}
