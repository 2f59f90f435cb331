package transform

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/agbru/shorsim/internal/numtheory"
	"github.com/agbru/shorsim/internal/quantum"
	"github.com/agbru/shorsim/internal/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/cmplxs"
)

const tol = 1e-9

var engineNames = []string{"dft", "parallel", "fft"}

func testOptions() Options {
	return Options{Workers: 4, ParallelThreshold: 1}
}

func newRegister(t *testing.T, qubits int, amps []complex128) *quantum.Register {
	t.Helper()
	r, err := quantum.New(qubits)
	require.NoError(t, err)
	require.NoError(t, r.SetState(amps))
	return r
}

func TestUniformStateMapsToZero(t *testing.T) {
	t.Parallel()
	for _, name := range engineNames {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			r, _ := quantum.New(3)
			r.SetAllEquallyLikely()
			stats, err := GlobalFactory().MustGet(name).Transform(context.Background(), r, testOptions(), nil)
			require.NoError(t, err)
			assert.Equal(t, 8, stats.Active)
			assert.InDelta(t, 1.0, r.Probability(0), tol)
			for c := 1; c < 8; c++ {
				assert.InDelta(t, 0.0, r.Probability(c), tol)
			}
		})
	}
}

func TestSingleBasisStateSpreadsEvenly(t *testing.T) {
	t.Parallel()
	want := []complex128{0.5, 0.5i, -0.5, -0.5i}
	for _, name := range engineNames {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			r := newRegister(t, 2, []complex128{0, 1, 0, 0})
			_, err := GlobalFactory().MustGet(name).Transform(context.Background(), r, testOptions(), nil)
			require.NoError(t, err)
			assert.True(t, cmplxs.EqualApprox(want, r.Amplitudes(), tol), "got %v", r.Amplitudes())
		})
	}
}

// TestPeriodicStatePeaks reproduces the first register for N=35, x=13
// after the second register measured 13: every i ≡ 1 (mod 4) survives and
// the transform concentrates on multiples of q/4.
func TestPeriodicStatePeaks(t *testing.T) {
	t.Parallel()
	const n, x, q = 35, 13, 2048
	amps := make([]complex128, q)
	for i := range amps {
		if numtheory.ModExp(x, i, n) == 13 {
			amps[i] = 1
		}
	}
	for _, name := range engineNames {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			r := newRegister(t, 11, amps)
			require.NoError(t, r.Normalize())
			stats, err := GlobalFactory().MustGet(name).Transform(context.Background(), r, testOptions(), nil)
			require.NoError(t, err)
			assert.Equal(t, q/4, stats.Active)
			assert.Equal(t, q-q/4, stats.Skipped)
			for _, peak := range []int{0, 512, 1024, 1536} {
				assert.InDelta(t, 0.25, r.Probability(peak), tol, "peak %d", peak)
			}
			assert.InDelta(t, 0.0, r.Probability(1), tol)
			assert.InDelta(t, 1.0, r.TotalProbability(), tol)
		})
	}
}

func TestEnginesAgree(t *testing.T) {
	t.Parallel()
	const qubits = 9
	src := rng.NewPCG(2024)
	amps := make([]complex128, 1<<qubits)
	for i := range amps {
		if src.Float64() < 0.3 {
			amps[i] = complex(src.Float64()-0.5, src.Float64()-0.5)
		}
	}

	results := make(map[string][]complex128)
	for _, name := range engineNames {
		r := newRegister(t, qubits, amps)
		require.NoError(t, r.Normalize())
		_, err := GlobalFactory().MustGet(name).Transform(context.Background(), r, testOptions(), nil)
		require.NoError(t, err)
		results[name] = r.Amplitudes()
	}
	assert.True(t, cmplxs.EqualApprox(results["dft"], results["parallel"], 1e-12), "parallel differs from dft")
	assert.True(t, cmplxs.EqualApprox(results["dft"], results["fft"], tol), "fft differs from dft")
}

func TestNoiseThresholdSkipsTinyAmplitudes(t *testing.T) {
	t.Parallel()
	amps := []complex128{1, 1e-13, 0, 1e-13i}
	r := newRegister(t, 2, amps)
	stats, err := GlobalFactory().MustGet("dft").Transform(context.Background(), r, Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 3, stats.Skipped)
	for c := 0; c < 4; c++ {
		assert.InDelta(t, 0.25, r.Probability(c), tol)
	}

	r = newRegister(t, 2, amps)
	stats, err = GlobalFactory().MustGet("dft").Transform(context.Background(), r, Options{NoiseThreshold: -1}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Active)
}

func TestEmptyInput(t *testing.T) {
	t.Parallel()
	for _, name := range engineNames {
		r, _ := quantum.New(3)
		_, err := GlobalFactory().MustGet(name).Transform(context.Background(), r, Options{}, nil)
		assert.ErrorIs(t, err, ErrEmptyInput, name)
	}
}

func TestProgressReported(t *testing.T) {
	t.Parallel()
	for _, name := range engineNames {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			var mu sync.Mutex
			var seen []float64
			report := func(p float64) {
				mu.Lock()
				seen = append(seen, p)
				mu.Unlock()
			}
			r, _ := quantum.New(6)
			r.SetAllEquallyLikely()
			_, err := GlobalFactory().MustGet(name).Transform(context.Background(), r, testOptions(), report)
			require.NoError(t, err)

			mu.Lock()
			defer mu.Unlock()
			require.NotEmpty(t, seen)
			assert.Equal(t, 1.0, seen[len(seen)-1])
			for _, p := range seen {
				assert.True(t, p >= 0 && p <= 1, "progress %v out of range", p)
			}
		})
	}
}

func TestParallelFallsBackBelowThreshold(t *testing.T) {
	t.Parallel()
	r, _ := quantum.New(4)
	r.SetAllEquallyLikely()
	stats, err := GlobalFactory().MustGet("parallel").Transform(context.Background(), r, Options{Workers: 8}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Workers)

	r.SetAllEquallyLikely()
	stats, err = GlobalFactory().MustGet("parallel").Transform(context.Background(), r, Options{Workers: 8, ParallelThreshold: 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, 8, stats.Workers)
}

func TestNormalizeOptions(t *testing.T) {
	t.Parallel()
	got := normalizeOptions(Options{})
	assert.Equal(t, DefaultNoiseThreshold, got.NoiseThreshold)
	assert.Equal(t, DefaultParallelThreshold, got.ParallelThreshold)
	assert.Positive(t, got.Workers)

	got = normalizeOptions(Options{NoiseThreshold: -5, Workers: 3, ParallelThreshold: 10})
	assert.Zero(t, got.NoiseThreshold)
	assert.Equal(t, 3, got.Workers)
	assert.Equal(t, 10, got.ParallelThreshold)
}

func TestStatsActiveRatio(t *testing.T) {
	t.Parallel()
	assert.Zero(t, Stats{}.ActiveRatio())
	assert.InDelta(t, 0.25, Stats{Size: 8, Active: 2}.ActiveRatio(), 1e-15)
}

func TestTwiddlesOnTheFlyMatchTable(t *testing.T) {
	t.Parallel()
	tab := twiddlesFor(1024)
	require.NotNil(t, tab.table)
	for k := 0; k < 1024; k += 37 {
		assert.Equal(t, tab.compute(k), tab.at(k))
	}
	assert.InDelta(t, 1/math.Sqrt(1024), real(tab.at(0)), 1e-15)
}
