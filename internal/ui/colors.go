package ui

// Shorthands for the roles of the current theme.

func ColorReset() string     { return GetCurrentTheme().Reset }
func ColorRed() string       { return GetCurrentTheme().Error }
func ColorGreen() string     { return GetCurrentTheme().Success }
func ColorYellow() string    { return GetCurrentTheme().Warning }
func ColorBlue() string      { return GetCurrentTheme().Primary }
func ColorMagenta() string   { return GetCurrentTheme().Info }
func ColorCyan() string      { return GetCurrentTheme().Secondary }
func ColorBold() string      { return GetCurrentTheme().Bold }
func ColorUnderline() string { return GetCurrentTheme().Underline }

// Paint wraps s in the given escape code and a reset, or returns s
// unchanged when the code is empty.
func Paint(code, s string) string {
	if code == "" {
		return s
	}
	return code + s + GetCurrentTheme().Reset
}
