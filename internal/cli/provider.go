package cli

import (
	apperrors "github.com/agbru/shorsim/internal/errors"
	"github.com/agbru/shorsim/internal/ui"
)

// CLIColorProvider feeds the current theme to apperrors.
type CLIColorProvider struct{}

var _ apperrors.ColorProvider = CLIColorProvider{}

func (CLIColorProvider) Yellow() string { return ui.ColorYellow() }
func (CLIColorProvider) Red() string    { return ui.ColorRed() }
func (CLIColorProvider) Reset() string  { return ui.ColorReset() }
