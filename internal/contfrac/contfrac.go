// Package contfrac recovers the period candidate from a measured phase by
// expanding it as a continued fraction and keeping the last convergent
// whose denominator stays below a bound.
package contfrac

import (
	"fmt"
	"math"
)

// Fraction is a convergent p/q of a measured phase.
type Fraction struct {
	Num int `json:"num"`
	Den int `json:"den"`
}

// String renders the fraction as "p/q".
func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.Num, f.Den)
}

// Float returns p/q, or 0 for a zero denominator.
func (f Fraction) Float() float64 {
	if f.Den == 0 {
		return 0
	}
	return float64(f.Num) / float64(f.Den)
}

// BestDenominator returns the denominator of the last convergent of c whose
// successor would reach qmax. The expansion also stops once the remaining
// fractional part drops below 0.5/qmax², the precision a measurement over a
// register of size qmax can carry. Non-positive qmax and a non-finite c
// yield 1.
func BestDenominator(c float64, qmax int) int {
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 1
	}
	q0, q1 := 0, 1
	eps := 0.5 / (float64(qmax) * float64(qmax))
	y := c
	for {
		z := y - math.Floor(y)
		if z < eps {
			return q1
		}
		y = 1 / z
		q2 := int(math.Floor(y))*q1 + q0
		if q2 >= qmax {
			return q1
		}
		q0, q1 = q1, q2
	}
}

// Approximate pairs BestDenominator with the nearest numerator.
// A non-finite c gives 0/1.
func Approximate(c float64, qmax int) Fraction {
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return Fraction{Num: 0, Den: 1}
	}
	den := BestDenominator(c, qmax)
	return Fraction{Num: int(math.Floor(float64(den)*c + 0.5)), Den: den}
}
