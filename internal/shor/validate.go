package shor

import (
	"github.com/agbru/shorsim/internal/numtheory"
	"github.com/agbru/shorsim/internal/quantum"
)

// MaxN is the largest N whose first register fits in quantum.MaxQubits.
const MaxN = 1 << (quantum.MaxQubits / 2)

// Layout is the register sizing for a given N.
type Layout struct {
	N int `json:"n"`
	// Q is the first register dimension, the smallest power of two >= N².
	Q int `json:"q"`
	// FirstQubits is log2(Q).
	FirstQubits int `json:"first_qubits"`
	// SecondQubits holds every residue mod N.
	SecondQubits int `json:"second_qubits"`
}

// Validate runs the setup checks: N must be at least 3, odd, small enough
// for the simulator, not prime and not a prime power. Size is checked
// before primality so oversized inputs are rejected without trial
// division.
func Validate(n int) error {
	_, err := NewLayout(n)
	return err
}

// NewLayout validates n and sizes its registers.
func NewLayout(n int) (Layout, error) {
	if n < 3 {
		return Layout{}, &SetupError{N: n, Reason: ErrTooSmall}
	}
	if n%2 == 0 {
		return Layout{}, &SetupError{N: n, Reason: ErrEven}
	}
	if n > MaxN {
		qubits := 2 * numtheory.BitsNeeded(n)
		if n < 1<<31 {
			qubits = numtheory.BitsNeeded(numtheory.GetQ(n)) - 1
		}
		return Layout{}, &SetupError{N: n, Reason: ErrRegisterTooLarge, Qubits: qubits}
	}
	if numtheory.IsPrime(n) {
		return Layout{}, &SetupError{N: n, Reason: ErrPrime}
	}
	if base, power := numtheory.FindPrimePower(n); power > 1 {
		return Layout{}, &SetupError{N: n, Reason: ErrPrimePower, Base: base, Power: power}
	}
	q := numtheory.GetQ(n)
	return Layout{
		N:            n,
		Q:            q,
		FirstQubits:  numtheory.BitsNeeded(q) - 1,
		SecondQubits: numtheory.BitsNeeded(n - 1),
	}, nil
}
