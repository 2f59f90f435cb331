package shor

import (
	"errors"
	"fmt"

	apperrors "github.com/agbru/shorsim/internal/errors"
)

// Setup failures. Every SetupError matches one of these and
// apperrors.ErrInvalidInput.
var (
	ErrTooSmall         = errors.New("number is too small to factor")
	ErrEven             = errors.New("number is even")
	ErrPrime            = errors.New("number is prime")
	ErrPrimePower       = errors.New("number is a prime power")
	ErrRegisterTooLarge = errors.New("first register would exceed the qubit limit")
)

var (
	// ErrDegeneratePeriod marks an attempt whose measurements carried no
	// usable period: zero reading, odd denominator, zero GCD operand or a
	// trivial factor.
	ErrDegeneratePeriod = errors.New("degenerate period")

	// ErrExhausted is matched by ExhaustedError.
	ErrExhausted = apperrors.ErrExhausted
)

// SetupError reports why N was rejected before any attempt ran.
type SetupError struct {
	N      int
	Reason error
	// Base and Power are set for ErrPrimePower.
	Base, Power int
	// Qubits is set for ErrRegisterTooLarge.
	Qubits int
}

func (e *SetupError) Error() string {
	switch {
	case errors.Is(e.Reason, ErrPrimePower):
		return fmt.Sprintf("%d is a prime power (%d^%d)", e.N, e.Base, e.Power)
	case errors.Is(e.Reason, ErrRegisterTooLarge):
		return fmt.Sprintf("%d needs a %d-qubit register, more than the simulator supports", e.N, e.Qubits)
	case errors.Is(e.Reason, ErrTooSmall):
		return fmt.Sprintf("%d is too small to factor, use 15 or more", e.N)
	default:
		return fmt.Sprintf("%d: %v", e.N, e.Reason)
	}
}

// Unwrap exposes both the specific reason and apperrors.ErrInvalidInput.
func (e *SetupError) Unwrap() []error {
	return []error{e.Reason, apperrors.ErrInvalidInput}
}

// ExhaustedError reports a run whose attempt budget ran out.
type ExhaustedError struct {
	N        int
	Tries    int
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("no factor of %d found in %d tries", e.N, e.Tries)
}

// Unwrap lets errors.Is match ErrExhausted.
func (e *ExhaustedError) Unwrap() error { return ErrExhausted }

// ReasonCounts tallies why the attempts failed.
func (e *ExhaustedError) ReasonCounts() map[Reason]int {
	counts := make(map[Reason]int)
	for _, a := range e.Attempts {
		counts[a.Reason]++
	}
	return counts
}
