package orchestration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/agbru/shorsim/internal/config"
	"github.com/agbru/shorsim/internal/contfrac"
	apperrors "github.com/agbru/shorsim/internal/errors"
	"github.com/agbru/shorsim/internal/rng"
	"github.com/agbru/shorsim/internal/shor"
	"github.com/agbru/shorsim/internal/testutil"
	"github.com/agbru/shorsim/internal/transform"
	"github.com/agbru/shorsim/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingObserver struct {
	mu      sync.Mutex
	updates []shor.ProgressUpdate
}

func (o *recordingObserver) Update(index, try int, progress float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.updates = append(o.updates, shor.ProgressUpdate{Index: index, Try: try, Value: progress})
}

func result(n, factor int) shor.Result {
	return shor.Result{
		Layout:   shor.Layout{N: n, Q: 256, FirstQubits: 8, SecondQubits: 4},
		Factor:   factor,
		Cofactor: n / factor,
		Base:     7,
		Period:   4,
		Fraction: contfrac.Fraction{Num: 1, Den: 4},
		Tries:    1,
		Engine:   "dft",
	}
}

// TestExecuteFactorizationsWiring checks what each run receives: its own
// seed, the configured budget and transform options, and a progress
// subject that reaches extra observers. The prime power 9 is rejected up
// front and never reaches the simulator.
func TestExecuteFactorizationsWiring(t *testing.T) {
	type call struct {
		index int
		draw  float64
		opts  shor.Options
	}
	var mu sync.Mutex
	calls := map[int]call{}

	previous := factorize
	factorize = func(_ context.Context, n int, src rng.Source, opts shor.Options) (shor.Result, error) {
		mu.Lock()
		calls[n] = call{index: opts.Index, draw: src.Float64(), opts: opts}
		mu.Unlock()
		opts.Subject.Notify(opts.Index, 1, 1)
		return result(n, 3), nil
	}
	t.Cleanup(func() { factorize = previous })

	cfg := config.AppConfig{Seed: 42, MaxTries: 7, NoiseThreshold: 1e-9, Workers: 2, ParallelThreshold: 64, Quiet: true}
	engine := transform.NewDefaultFactory().MustGet("fft")
	observer := &recordingObserver{}

	results := ExecuteFactorizations(context.Background(), []int{15, 9, 21}, engine, cfg, &bytes.Buffer{}, observer)

	require.Len(t, results, 3)
	require.Len(t, calls, 2)
	assert.NotContains(t, calls, 9)
	for i, n := range []int{15, 9, 21} {
		assert.Equal(t, n, results[i].N)
		assert.Equal(t, TargetSeed(42, i), results[i].Seed)
	}
	for slot, i := range []int{0, 2} {
		n := results[i].N
		c := calls[n]
		assert.Equal(t, slot, c.index)
		assert.Equal(t, rng.NewPCG(TargetSeed(42, i)).Float64(), c.draw)
		assert.Equal(t, 7, c.opts.MaxTries)
		assert.Same(t, engine, c.opts.Engine)
		assert.Equal(t, transform.Options{NoiseThreshold: 1e-9, Workers: 2, ParallelThreshold: 64}, c.opts.Transform)
	}
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, apperrors.ErrInvalidInput)
	assert.Equal(t, 21, results[2].Result.Factor*results[2].Result.Cofactor)
	assert.Len(t, observer.updates, 2)
}

func TestTargetSeed(t *testing.T) {
	t.Parallel()
	assert.Equal(t, uint64(7), TargetSeed(7, 0))
	assert.Equal(t, rng.Derive(7, 1), TargetSeed(7, 1))
	assert.NotEqual(t, TargetSeed(7, 1), TargetSeed(7, 2))
}

// TestReportedSeedReplaysRun runs a batch, then each target alone with the
// seed reported for it, and expects the same attempts.
func TestReportedSeedReplaysRun(t *testing.T) {
	t.Parallel()
	targets := []int{91, 15, 35}
	cfg := config.AppConfig{Seed: 7, MaxTries: 50, Quiet: true}
	batch := ExecuteFactorizations(context.Background(), targets, nil, cfg, &bytes.Buffer{})

	for i, first := range batch {
		require.NoError(t, first.Err, "N=%d", first.N)

		replayCfg := cfg
		replayCfg.Seed = first.Seed
		replay := ExecuteFactorizations(context.Background(), []int{targets[i]}, nil, replayCfg, &bytes.Buffer{})
		require.Len(t, replay, 1)
		require.NoError(t, replay[0].Err)

		assert.Equal(t, first.Seed, replay[0].Seed, "N=%d", first.N)
		assert.Equal(t, first.Result.Tries, replay[0].Result.Tries, "N=%d", first.N)
		assert.Equal(t, first.Result.Base, replay[0].Result.Base, "N=%d", first.N)
		assert.Equal(t, first.Result.Factor, replay[0].Result.Factor, "N=%d", first.N)
	}

	// The same seed drives the single-target run the HTTP API performs.
	direct, err := shor.Factorize(context.Background(), 91, rng.NewPCG(7), shor.Options{MaxTries: 50})
	require.NoError(t, err)
	assert.Equal(t, batch[0].Result.Tries, direct.Tries)
	assert.Equal(t, batch[0].Result.Base, direct.Base)
}

func TestRejectedTargetDrawsNoProgress(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	results := ExecuteFactorizations(context.Background(), []int{49}, nil, config.AppConfig{Seed: 1, MaxTries: 5}, &out)

	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, shor.ErrPrimePower)
	assert.Zero(t, results[0].Result.Tries)
	assert.NotContains(t, out.String(), "done")
}

func TestExecuteFactorizationsSimulated(t *testing.T) {
	t.Parallel()
	cfg := config.AppConfig{Seed: 7, MaxTries: 50, Quiet: true}
	results := ExecuteFactorizations(context.Background(), []int{15, 21, 16}, nil, cfg, &bytes.Buffer{})

	require.Len(t, results, 3)
	for _, r := range results[:2] {
		require.NoError(t, r.Err, "N=%d", r.N)
		assert.Equal(t, r.N, r.Result.Factor*r.Result.Cofactor)
		assert.Greater(t, r.Result.Factor, 1)
	}
	assert.ErrorIs(t, results[2].Err, shor.ErrEven)

	again := ExecuteFactorizations(context.Background(), []int{15, 21, 16}, nil, cfg, &bytes.Buffer{})
	for i := range results[:2] {
		assert.Equal(t, results[i].Result.Base, again[i].Result.Base, "same seed, same run")
		assert.Equal(t, results[i].Result.Tries, again[i].Result.Tries)
	}
}

func TestExecuteFactorizationsCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := ExecuteFactorizations(ctx, []int{15, 21}, nil, config.AppConfig{Quiet: true}, &bytes.Buffer{})
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
	assert.Equal(t, apperrors.ExitErrorCanceled, ExitCode(results))
}

func TestExitCode(t *testing.T) {
	t.Parallel()
	invalid := &shor.SetupError{N: 16, Reason: shor.ErrEven}
	exhausted := &shor.ExhaustedError{N: 21, Tries: 1}

	tests := []struct {
		name string
		errs []error
		want int
	}{
		{"all success", []error{nil, nil}, apperrors.ExitSuccess},
		{"empty", nil, apperrors.ExitSuccess},
		{"invalid wins", []error{context.DeadlineExceeded, exhausted, invalid, nil}, apperrors.ExitErrorInvalidInput},
		{"exhausted over timeout", []error{context.DeadlineExceeded, exhausted}, apperrors.ExitErrorExhausted},
		{"generic over timeout", []error{errors.New("boom"), context.DeadlineExceeded}, apperrors.ExitErrorGeneric},
		{"timeout over cancel", []error{context.Canceled, context.DeadlineExceeded}, apperrors.ExitErrorTimeout},
		{"cancel", []error{nil, context.Canceled}, apperrors.ExitErrorCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			results := make([]FactorizationResult, len(tt.errs))
			for i, err := range tt.errs {
				results[i].Err = err
			}
			assert.Equal(t, tt.want, ExitCode(results))
		})
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", ErrorKind(nil))
	assert.Equal(t, "invalid_input", ErrorKind(&shor.SetupError{N: 7, Reason: shor.ErrPrime}))
	assert.Equal(t, "exhausted", ErrorKind(&shor.ExhaustedError{}))
	assert.Equal(t, "timeout", ErrorKind(fmt.Errorf("run: %w", context.DeadlineExceeded)))
	assert.Equal(t, "canceled", ErrorKind(context.Canceled))
	assert.Equal(t, "error", ErrorKind(errors.New("boom")))
}

func batch() []FactorizationResult {
	return []FactorizationResult{
		{N: 15, Seed: 1, Result: result(15, 3), Duration: 3 * time.Millisecond},
		{N: 27, Err: &shor.SetupError{N: 27, Reason: shor.ErrPrimePower, Base: 3, Power: 3}},
		{N: 21, Seed: 2, Result: result(21, 3), Duration: time.Millisecond},
		{N: 35, Err: &shor.ExhaustedError{N: 35, Tries: 2, Attempts: []shor.Attempt{{Reason: shor.ReasonOddPeriod}, {Reason: shor.ReasonTrivialFactor}}}},
	}
}

func TestAnalyzeResultsQuiet(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	code := AnalyzeResults(batch(), config.AppConfig{Quiet: true}, &out)
	assert.Equal(t, apperrors.ExitErrorInvalidInput, code)
	assert.Equal(t, "3 5\n3 7\n", out.String())
}

func TestAnalyzeResultsJSON(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	code := AnalyzeResults(batch(), config.AppConfig{JSONOutput: true}, &out)
	assert.Equal(t, apperrors.ExitErrorInvalidInput, code)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &docs))
	require.Len(t, docs, 4)
	assert.EqualValues(t, 3, docs[0]["factor"])
	assert.Equal(t, "invalid_input", docs[1]["error"])
	assert.Equal(t, "27 is a prime power (3^3)", docs[1]["message"])
	assert.Equal(t, "exhausted", docs[3]["error"])
	assert.EqualValues(t, 2, docs[3]["tries"])

	out.Reset()
	code = AnalyzeResults(batch()[:1], config.AppConfig{JSONOutput: true}, &out)
	assert.Equal(t, apperrors.ExitSuccess, code)
	var single models.FactorReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &single))
	assert.Equal(t, 15, single.N)
	assert.Equal(t, uint64(1), single.Seed)
}

func TestAnalyzeResultsReport(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	code := AnalyzeResults(batch(), config.AppConfig{Verbose: true}, &out)
	assert.Equal(t, apperrors.ExitErrorInvalidInput, code)

	got := testutil.StripAnsiCodes(out.String())
	for _, want := range []string{
		"--- Batch Summary ---",
		"3 × 5",
		"invalid input",
		"Global Status: 2 of 4 factored.",
		"15 = 3 × 5",
		"21 = 3 × 7",
		"Status: Rejected. 27 is a prime power (3^3)",
		"Status: Failure. No factor found",
		"2 attempts failed:",
	} {
		assert.Contains(t, got, want)
	}

	out.Reset()
	AnalyzeResults(batch()[:1], config.AppConfig{}, &out)
	assert.NotContains(t, out.String(), "Batch Summary")
}

func TestAnalyzeResultsSavesFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	var out bytes.Buffer
	AnalyzeResults(batch(), config.AppConfig{Quiet: true, OutputFile: filepath.Join(dir, "run.txt")}, &out)
	assert.Equal(t, "3 5\n3 7\n", out.String(), "quiet mode does not announce saved files")
	for _, name := range []string{"run-15.txt", "run-21.txt"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	_, err := os.Stat(filepath.Join(dir, "run-27.txt"))
	assert.True(t, os.IsNotExist(err))

	out.Reset()
	single := filepath.Join(dir, "single.txt")
	AnalyzeResults(batch()[:1], config.AppConfig{OutputFile: single}, &out)
	data, err := os.ReadFile(single)
	require.NoError(t, err)
	assert.Contains(t, string(data), "15 = 3 x 5")
	assert.Contains(t, testutil.StripAnsiCodes(out.String()), "Result saved to: "+single)
}
