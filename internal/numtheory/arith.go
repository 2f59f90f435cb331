package numtheory

import "math/bits"

// GCD returns the greatest common divisor using Stein's binary algorithm.
// GCD(0, b) = b, GCD(a, 0) = a and GCD(0, 0) = 0. Negative inputs are
// replaced by their absolute values.
func GCD(a, b int) int {
	u, v := abs(a), abs(b)
	if u == 0 {
		return v
	}
	if v == 0 {
		return u
	}
	shift := bits.TrailingZeros(uint(u | v))
	u >>= bits.TrailingZeros(uint(u))
	for v != 0 {
		v >>= bits.TrailingZeros(uint(v))
		if u > v {
			u, v = v, u
		}
		v -= u
	}
	return u << shift
}

// BitsNeeded is the number of binary digits of a. Non-positive values
// need zero bits.
func BitsNeeded(a int) int {
	if a <= 0 {
		return 0
	}
	return bits.Len(uint(a))
}

// GetQ returns the size of the first register for n: the smallest power
// of two that is at least n².
func GetQ(n int) int {
	target := n * n
	q := 1
	for q < target {
		q <<= 1
	}
	return q
}

// ModExp computes x^a mod n by square-and-multiply. Negative x is reduced
// into [0, n) first, a <= 0 yields 1 mod n, and n <= 0 yields 0.
func ModExp(x, a, n int) int {
	if n <= 0 {
		return 0
	}
	m := uint64(n)
	base := uint64(((x % n) + n) % n)
	result := uint64(1) % m
	for e := a; e > 0; e >>= 1 {
		if e&1 == 1 {
			result = result * base % m
		}
		base = base * base % m
	}
	return int(result)
}

// PowersModN lists x^i mod n for i in [0, count).
func PowersModN(x, n, count int) []int {
	if count <= 0 {
		return nil
	}
	out := make([]int, count)
	for i := range out {
		out[i] = ModExp(x, i, n)
	}
	return out
}

// MultiplicativeOrder returns the smallest r > 0 with x^r ≡ 1 (mod n).
// The boolean is false when no such r exists, which is the case whenever
// x and n share a factor.
func MultiplicativeOrder(x, n int) (int, bool) {
	if n < 2 || GCD(x, n) != 1 {
		return 0, false
	}
	m := uint64(n)
	base := uint64(((x % n) + n) % n)
	v := base
	for r := 1; r <= n; r++ {
		if v == 1 {
			return r, true
		}
		v = v * base % m
	}
	return 0, false
}

// ISqrt returns floor(sqrt(n)) for n >= 0.
func ISqrt(n int) int {
	if n < 2 {
		return max(n, 0)
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
