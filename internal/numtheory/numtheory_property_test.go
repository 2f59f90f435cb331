package numtheory

import (
	"math/big"
	"testing"

	"github.com/agbru/shorsim/internal/rng"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestGCDProperties checks that GCD divides both arguments and agrees with
// math/big on random inputs.
func TestGCDProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("GCD matches math/big", prop.ForAll(
		func(a, b int) bool {
			want := new(big.Int).GCD(nil, nil, big.NewInt(int64(a)), big.NewInt(int64(b)))
			return GCD(a, b) == int(want.Int64())
		},
		gen.IntRange(0, 1<<30),
		gen.IntRange(0, 1<<30),
	))

	properties.Property("GCD divides both arguments", prop.ForAll(
		func(a, b int) bool {
			g := GCD(a, b)
			return g > 0 && a%g == 0 && b%g == 0
		},
		gen.IntRange(1, 1<<20),
		gen.IntRange(1, 1<<20),
	))

	properties.TestingRun(t)
}

func TestModExpMatchesBig(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("ModExp matches big.Int.Exp", prop.ForAll(
		func(x, a, n int) bool {
			want := new(big.Int).Exp(big.NewInt(int64(x)), big.NewInt(int64(a)), big.NewInt(int64(n)))
			return ModExp(x, a, n) == int(want.Int64())
		},
		gen.IntRange(0, 1<<31-1),
		gen.IntRange(0, 1<<20),
		gen.IntRange(2, 1<<31-1),
	))

	properties.TestingRun(t)
}

func TestPickCoprimeProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("picked base is coprime and in range", prop.ForAll(
		func(half int, seed uint64) bool {
			n := 2*half + 1
			x, err := PickCoprime(n, rng.NewPCG(seed))
			if err != nil {
				return false
			}
			return x >= 3 && x < n-1 && GCD(n, x) == 1
		},
		gen.IntRange(3, 16383),
		gen.UInt64(),
	))

	properties.TestingRun(t)
}
