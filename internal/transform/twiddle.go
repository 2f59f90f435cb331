package transform

import (
	"math"
	"sync"
)

// maxTableSize bounds the precomputed twiddle tables. Larger registers
// evaluate the roots of unity on the fly.
const maxTableSize = 1 << 20

// twiddles yields w(k) = q^(-1/2) · e^(2πik/q) for k in [0, q).
type twiddles struct {
	q     int
	scale float64
	table []complex128
}

func (t *twiddles) at(k int) complex128 {
	if t.table != nil {
		return t.table[k]
	}
	return t.compute(k)
}

func (t *twiddles) compute(k int) complex128 {
	s, c := math.Sincos(2 * math.Pi * float64(k) / float64(t.q))
	return complex(t.scale*c, t.scale*s)
}

var twiddleCache sync.Map // int -> *twiddles

// twiddlesFor returns the shared, read-only twiddles for size q.
func twiddlesFor(q int) *twiddles {
	if v, ok := twiddleCache.Load(q); ok {
		return v.(*twiddles)
	}
	t := &twiddles{q: q, scale: 1 / math.Sqrt(float64(q))}
	if q <= maxTableSize {
		table := make([]complex128, q)
		for k := range table {
			table[k] = t.compute(k)
		}
		t.table = table
	}
	v, _ := twiddleCache.LoadOrStore(q, t)
	return v.(*twiddles)
}

// term is the contribution of an input amplitude to an output index,
// accumulated the same way by every direct engine so their sums match bit
// for bit.
func term(sum, amp, w complex128) complex128 {
	return sum + amp*w
}
