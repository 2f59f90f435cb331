// Package numtheory implements the integer arithmetic that surrounds the
// quantum part of Shor's algorithm: primality and prime-power screening,
// binary GCD, modular exponentiation, register sizing and the random choice
// of a base coprime to N.
//
// All values are native ints. Intermediate products are computed in uint64,
// so moduli must stay below 2^32.
package numtheory
