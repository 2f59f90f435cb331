// Package rng provides the uniform random sources that drive base selection
// and register measurement. Every consumer takes a Source so runs can be
// replayed exactly from a seed or from a scripted sequence of draws.
package rng

import (
	crand "crypto/rand"
	"encoding/binary"
	r2 "math/rand/v2"
)

// Source yields uniform draws in [0, 1).
type Source interface {
	Float64() float64
}

// Func adapts an ordinary function to a Source.
type Func func() float64

// Float64 calls f.
func (f Func) Float64() float64 { return f() }

// PCG is a seeded PCG generator. It is not safe for concurrent use; give
// each goroutine its own instance (see Derive).
type PCG struct {
	seed uint64
	rng  *r2.PCG
}

// NewPCG returns a PCG whose two state words are expanded from seed with
// splitmix64, so nearby seeds still produce unrelated streams.
func NewPCG(seed uint64) *PCG {
	x := seed ^ 0x9e3779b97f4a7c15
	return &PCG{
		seed: seed,
		rng:  r2.NewPCG(splitmix64(x), splitmix64(x^0xda942042e4dd58b5)),
	}
}

// RandomSeed draws a seed from the operating system's entropy source.
func RandomSeed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return r2.Uint64()
	}
	return binary.LittleEndian.Uint64(b[:])
}

// Seed reports the seed the generator was created with.
func (p *PCG) Seed() uint64 { return p.seed }

// Uint64 returns the next raw 64-bit output.
func (p *PCG) Uint64() uint64 { return p.rng.Uint64() }

// Float64 returns a uniform draw in [0, 1) with 53 bits of precision.
func (p *PCG) Float64() float64 {
	return float64(p.rng.Uint64()<<11>>11) / (1 << 53)
}

// Derive computes the seed of an independent stream for job number stream
// of a batch started from seed.
func Derive(seed uint64, stream int) uint64 {
	return splitmix64(seed + uint64(stream)*0x9e3779b97f4a7c15)
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
