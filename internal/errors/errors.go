// Package apperrors holds the error categories shared by the CLI, the
// batch orchestrator and the HTTP server, and maps each category to a
// process exit code. Categories are matched with errors.Is and errors.As,
// so callers wrap freely with fmt.Errorf and %w.
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Exit codes.
const (
	ExitSuccess           = 0
	ExitErrorGeneric      = 1
	ExitErrorTimeout      = 2
	ExitErrorExhausted    = 3 // every attempt failed to produce a factor
	ExitErrorConfig       = 4
	ExitErrorInvalidInput = 5 // N rejected before any attempt ran
	ExitErrorCanceled     = 130
)

var (
	// ErrInvalidInput is matched by every setup error: N is too small,
	// even, prime, a prime power, or needs more qubits than the simulator
	// allows.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExhausted is matched when the attempt budget ran out without a
	// non-trivial factor.
	ErrExhausted = errors.New("attempts exhausted")
)

// ConfigError is a bad flag or environment value. It maps to
// ExitErrorConfig.
type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string { return e.Message }

// NewConfigError formats a ConfigError.
//
// Parameters:
//   - format: A fmt format string.
//   - a: The format arguments.
//
// Returns:
//   - error: A ConfigError, mapped to ExitErrorConfig.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// ServerError is a failure of the HTTP listener itself, as opposed to a
// failed request.
type ServerError struct {
	Message string
	Cause   error
}

func (e ServerError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e ServerError) Unwrap() error { return e.Cause }

// NewServerError returns a ServerError; cause may be nil.
//
// Parameters:
//   - message: What the server was doing.
//   - cause: The underlying error, or nil.
//
// Returns:
//   - error: A ServerError wrapping cause.
func NewServerError(message string, cause error) error {
	return ServerError{Message: message, Cause: cause}
}

// ValidationError rejects a request parameter or an explorer input. It
// matches ErrInvalidInput.
type ValidationError struct {
	Field   string
	Message string
	// Value is the offending value, if any.
	Value any
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error for '%s': %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError returns a ValidationError.
func NewValidationError(field, message string, value any) error {
	return ValidationError{Field: field, Message: message, Value: value}
}

// IsContextError reports whether err ends in a cancellation or a deadline.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ExitCodeFor maps an error to the process exit status without printing
// anything. A rejected N wins over an exhausted budget, which wins over
// context errors.
func ExitCodeFor(err error) int {
	var cfgErr ConfigError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &cfgErr):
		return ExitErrorConfig
	case errors.Is(err, ErrInvalidInput):
		return ExitErrorInvalidInput
	case errors.Is(err, ErrExhausted):
		return ExitErrorExhausted
	case errors.Is(err, context.DeadlineExceeded):
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	default:
		return ExitErrorGeneric
	}
}
