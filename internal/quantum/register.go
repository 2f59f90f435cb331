// Package quantum models a quantum register as a vector of complex
// probability amplitudes over its 2^k basis states, with the operations the
// period-finding routine needs: state assignment, normalisation, uniform
// superposition and measurement with collapse.
package quantum

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/cmplxs"
)

// MaxQubits caps the register width; 2^30 amplitudes is already 16 GiB.
const MaxQubits = 30

var (
	// ErrTooManyQubits is returned by New for widths outside [0, MaxQubits].
	ErrTooManyQubits = errors.New("register width exceeds simulator limit")

	// ErrDimensionMismatch is returned when a state vector does not match
	// the register dimension.
	ErrDimensionMismatch = errors.New("state vector length does not match register dimension")

	// ErrZeroNorm is returned when normalising a register with no mass.
	ErrZeroNorm = errors.New("register has zero total probability")

	// ErrMeasurement is returned when the cumulative probability mass never
	// exceeds the measurement threshold. It only happens through rounding
	// drift and is safe to retry.
	ErrMeasurement = errors.New("measurement failed")
)

// Register holds the amplitudes of a register of NumQubits qubits. It is
// not safe for concurrent mutation.
type Register struct {
	numQubits int
	amps      []complex128
	collapsed int // measured index, or -1 while coherent
}

// New allocates a register of numQubits qubits with every amplitude zero.
func New(numQubits int) (*Register, error) {
	if numQubits < 0 || numQubits > MaxQubits {
		return nil, fmt.Errorf("%w: %d qubits requested, limit is %d", ErrTooManyQubits, numQubits, MaxQubits)
	}
	return &Register{
		numQubits: numQubits,
		amps:      make([]complex128, 1<<numQubits),
		collapsed: -1,
	}, nil
}

// NumQubits returns the register width.
func (r *Register) NumQubits() int { return r.numQubits }

// Dim returns the number of basis states, 2^NumQubits.
func (r *Register) Dim() int { return len(r.amps) }

// SetState copies amps into the register.
func (r *Register) SetState(amps []complex128) error {
	if len(amps) != len(r.amps) {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(amps), len(r.amps))
	}
	copy(r.amps, amps)
	r.collapsed = -1
	return nil
}

// SetRealState copies amps into the register with zero imaginary parts.
func (r *Register) SetRealState(amps []float64) error {
	if len(amps) != len(r.amps) {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(amps), len(r.amps))
	}
	for i, v := range amps {
		r.amps[i] = complex(v, 0)
	}
	r.collapsed = -1
	return nil
}

// Normalize rescales the amplitudes so their squared magnitudes sum to 1.
// A register with no mass is left untouched and ErrZeroNorm is returned.
func (r *Register) Normalize() error {
	norm := cmplxs.Norm(r.amps, 2)
	if norm == 0 || math.IsNaN(norm) {
		return ErrZeroNorm
	}
	cmplxs.ScaleReal(1/norm, r.amps)
	return nil
}

// SetAllEquallyLikely puts the register into the uniform superposition.
func (r *Register) SetAllEquallyLikely() {
	v := complex(1/math.Sqrt(float64(len(r.amps))), 0)
	for i := range r.amps {
		r.amps[i] = v
	}
	r.collapsed = -1
}

// Measure walks the basis states in order, accumulating squared
// magnitudes, and returns the first index at which the running total
// exceeds threshold. The register collapses onto that index. A threshold
// outside [0, 1), or a total that never exceeds it, leaves the register
// unchanged and returns ErrMeasurement.
func (r *Register) Measure(threshold float64) (int, error) {
	if math.IsNaN(threshold) || threshold < 0 || threshold >= 1 {
		return 0, fmt.Errorf("%w: threshold %v outside [0, 1)", ErrMeasurement, threshold)
	}
	var cum float64
	for i, a := range r.amps {
		cum += real(a)*real(a) + imag(a)*imag(a)
		if cum > threshold {
			r.collapseTo(i)
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: cumulative mass %.17g never exceeded %.17g", ErrMeasurement, cum, threshold)
}

func (r *Register) collapseTo(idx int) {
	clear(r.amps)
	r.amps[idx] = 1
	r.collapsed = idx
}

// Collapsed reports the measured index once the register has been
// measured and not reassigned since.
func (r *Register) Collapsed() (int, bool) {
	return r.collapsed, r.collapsed >= 0
}

// Amplitude returns the amplitude of basis state i.
func (r *Register) Amplitude(i int) complex128 { return r.amps[i] }

// Probability returns |amplitude(i)|².
func (r *Register) Probability(i int) float64 {
	a := r.amps[i]
	return real(a)*real(a) + imag(a)*imag(a)
}

// TotalProbability sums the squared magnitudes of every amplitude.
func (r *Register) TotalProbability() float64 {
	n := cmplxs.Norm(r.amps, 2)
	return n * n
}

// Amplitudes returns a copy of the amplitude vector.
func (r *Register) Amplitudes() []complex128 {
	return append([]complex128(nil), r.amps...)
}

// Clone returns an independent copy of the register.
func (r *Register) Clone() *Register {
	return &Register{
		numQubits: r.numQubits,
		amps:      r.Amplitudes(),
		collapsed: r.collapsed,
	}
}

// View exposes the amplitude storage to transform engines, which rewrite
// it in place. Callers must not retain the slice.
func (r *Register) View() []complex128 { return r.amps }
