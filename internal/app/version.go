// Package app wires configuration, engines and output modes into the
// shorsim command: one-shot and batch factoring, exploration, calibration,
// the REPL and the HTTP server.
package app

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"slices"
)

// Build metadata, set with
//
//	go build -ldflags="-X github.com/agbru/shorsim/internal/app.Version=v0.3.0 -X github.com/agbru/shorsim/internal/app.Commit=abc123"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var versionFlags = []string{"-V", "-version", "--version"}

// HasVersionFlag reports whether args hold a version flag anywhere, so
// "shorsim -server -V" prints the version instead of starting a server.
func HasVersionFlag(args []string) bool {
	return slices.ContainsFunc(args, func(arg string) bool {
		return slices.Contains(versionFlags, arg)
	})
}

// VersionData is the build description printed by PrintVersion.
type VersionData struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetVersionInfo returns the build description. Without -ldflags the
// version and commit fall back to what the Go toolchain embedded.
func GetVersionInfo() VersionData {
	v := VersionData{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v.Version = info.Main.Version
		}
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && v.Commit == "unknown":
				v.Commit = s.Value[:min(len(s.Value), 12)]
			case s.Key == "vcs.time" && v.BuildDate == "unknown":
				v.BuildDate = s.Value
			}
		}
	}
	return v
}

// PrintVersion writes the build description to out.
func PrintVersion(out io.Writer) {
	v := GetVersionInfo()
	fmt.Fprintf(out, "shorsim %s\n", v.Version)
	fmt.Fprintf(out, "  Commit:     %s\n", v.Commit)
	fmt.Fprintf(out, "  Built:      %s\n", v.BuildDate)
	fmt.Fprintf(out, "  Go version: %s\n", v.GoVersion)
	fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", v.OS, v.Arch)
}
