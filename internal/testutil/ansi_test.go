package testutil

import (
	"testing"

	"github.com/agbru/shorsim/internal/ui"
	"github.com/stretchr/testify/assert"
)

func TestStripAnsiCodes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"\x1b[1mbold\x1b[0m", "bold"},
		{"\x1b[38;5;82m3\x1b[0m × \x1b[38;5;82m5\x1b[0m", "3 × 5"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripAnsiCodes(tt.in))
	}
}

func TestNoColor(t *testing.T) {
	ui.SetCurrentTheme(ui.DarkTheme)
	t.Run("inner", func(t *testing.T) {
		NoColor(t)
		assert.Equal(t, "none", ui.GetCurrentTheme().Name)
	})
	assert.Equal(t, "dark", ui.GetCurrentTheme().Name)
}
