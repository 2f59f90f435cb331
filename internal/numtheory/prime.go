package numtheory

import "sync"

// DefaultSieveLimit bounds the lookup table consulted by IsPrime.
const DefaultSieveLimit = 10000

// Sieve is a precomputed primality table for [0, limit).
type Sieve struct {
	composite []bool
}

// NewSieve runs the sieve of Eratosthenes over [0, limit).
func NewSieve(limit int) *Sieve {
	if limit < 2 {
		limit = 2
	}
	composite := make([]bool, limit)
	composite[0], composite[1] = true, true
	for p := 2; p*p < limit; p++ {
		if composite[p] {
			continue
		}
		for m := p * p; m < limit; m += p {
			composite[m] = true
		}
	}
	return &Sieve{composite: composite}
}

// Limit is the exclusive upper bound of the table.
func (s *Sieve) Limit() int { return len(s.composite) }

// Contains reports whether n is a prime below Limit. Values outside the
// table report false.
func (s *Sieve) Contains(n int) bool {
	return n >= 0 && n < len(s.composite) && !s.composite[n]
}

// Primes lists every prime in the table in ascending order.
func (s *Sieve) Primes() []int {
	var out []int
	for n, c := range s.composite {
		if !c {
			out = append(out, n)
		}
	}
	return out
}

var (
	defaultSieveOnce sync.Once
	defaultSieve     *Sieve
)

func smallPrimes() *Sieve {
	defaultSieveOnce.Do(func() {
		defaultSieve = NewSieve(DefaultSieveLimit)
	})
	return defaultSieve
}

// IsPrime reports whether n is prime. Small values are answered from a
// shared sieve; larger ones fall back to IsPrimeTrial.
func IsPrime(n int) bool {
	s := smallPrimes()
	if n < s.Limit() {
		return s.Contains(n)
	}
	return IsPrimeTrial(n)
}

// IsPrimeTrial decides primality by trial division with odd divisors up to
// floor(sqrt(n)).
func IsPrimeTrial(n int) bool {
	if n < 2 {
		return false
	}
	if n == 2 {
		return true
	}
	if n%2 == 0 {
		return false
	}
	for d := 3; d <= n/d; d += 2 {
		if n%d == 0 {
			return false
		}
	}
	return true
}

// FindPrimePower looks for base^power == n with power >= 2, where base is
// the smallest divisor of n greater than 1. It returns (1, 0) when n is
// not of that shape. The base is not checked for primality: it is the
// smallest divisor, which is prime whenever the equation holds.
func FindPrimePower(n int) (base, power int) {
	if n < 4 {
		return 1, 0
	}
	j := 0
	for d := 2; d <= n/d; d++ {
		if n%d == 0 {
			j = d
			break
		}
	}
	if j == 0 {
		return 1, 0
	}
	p := j
	for i := 2; p <= n/j; i++ {
		p *= j
		if p == n {
			return j, i
		}
	}
	return 1, 0
}
