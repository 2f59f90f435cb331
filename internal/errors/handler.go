package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ColorProvider supplies the escape codes HandleFactorizationError paints
// with; cli implements it on top of the active theme.
type ColorProvider interface {
	Yellow() string
	Red() string
	Reset() string
}

// DefaultColorProvider paints nothing.
type DefaultColorProvider struct{}

func (d DefaultColorProvider) Yellow() string { return "" }
func (d DefaultColorProvider) Red() string    { return "" }
func (d DefaultColorProvider) Reset() string  { return "" }

// HandleFactorizationError prints the status line of a failed run to out
// and returns its exit code. A positive duration is reported as the time
// spent before failing; nil colors prints plain text.
//
// Parameters:
//   - err: The error that ended the run; nil prints nothing.
//   - duration: Time spent before the failure; zero omits it.
//   - out: Destination of the status line.
//   - colors: Escape codes to paint with; nil for plain text.
//
// Returns:
//   - int: The exit code of err, as ExitCodeFor.
func HandleFactorizationError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}
	if colors == nil {
		colors = DefaultColorProvider{}
	}

	msgSuffix := ""
	if duration > 0 {
		msgSuffix = fmt.Sprintf(" after %s%s%s", colors.Yellow(), duration, colors.Reset())
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(out, "Status: Failure (Timeout). The execution limit was reached%s.\n", msgSuffix)
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(out, "%sStatus: Canceled%s.%s\n", colors.Yellow(), msgSuffix, colors.Reset())
	case errors.Is(err, ErrInvalidInput):
		fmt.Fprintf(out, "%sStatus: Rejected.%s %v\n", colors.Red(), colors.Reset(), err)
	case errors.Is(err, ErrExhausted):
		fmt.Fprintf(out, "Status: Failure. No factor found%s: %v\n", msgSuffix, err)
	default:
		fmt.Fprintf(out, "Status: Failure. An unexpected error occurred: %v\n", err)
	}
	return ExitCodeFor(err)
}
