// Package testutil holds helpers shared by the CLI-facing test packages.
package testutil

import (
	"regexp"
	"testing"

	"github.com/agbru/shorsim/internal/ui"
)

// ansiRegex matches CSI escape sequences (ESC [ ... letter).
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripAnsiCodes removes ANSI escape codes from s.
func StripAnsiCodes(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// NoColor switches to the colorless theme for the duration of t. Tests
// calling it must not run in parallel with tests that read the theme.
func NoColor(t testing.TB) {
	t.Helper()
	previous := ui.GetCurrentTheme()
	ui.SetCurrentTheme(ui.NoColorTheme)
	t.Cleanup(func() { ui.SetCurrentTheme(previous) })
}
