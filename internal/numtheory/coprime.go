package numtheory

import (
	"errors"

	"github.com/agbru/shorsim/internal/rng"
)

const (
	// CoprimeWidenAfter is the number of consecutive rejected draws after
	// which the candidate range grows tenfold.
	CoprimeWidenAfter = 4

	// MaxCoprimeDraws caps the draws spent on a single base selection.
	MaxCoprimeDraws = 1000
)

// ErrNoCoprime is returned when no base coprime to N was drawn.
var ErrNoCoprime = errors.New("no coprime base found")

// PickCoprime draws a base x with gcd(n, x) = 1 uniformly from [3, hi).
// The range starts at max(5, isqrt(n)+1), so it always holds 4, and widens
// by a factor of ten every CoprimeWidenAfter failures, never past n-1.
func PickCoprime(n int, src rng.Source) (int, error) {
	if n < 5 {
		return 0, ErrNoCoprime
	}
	hi := min(max(5, ISqrt(n)+1), n-1)
	misses := 0
	for draw := 0; draw < MaxCoprimeDraws; draw++ {
		x := 3 + int(src.Float64()*float64(hi-3))
		if x >= hi {
			x = hi - 1
		}
		if GCD(n, x) == 1 {
			return x, nil
		}
		misses++
		if misses%CoprimeWidenAfter == 0 {
			hi = min(hi*10, n-1)
		}
	}
	return 0, ErrNoCoprime
}
