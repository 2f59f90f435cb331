package cli

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/agbru/shorsim/internal/config"
	"github.com/agbru/shorsim/internal/lab"
	"github.com/agbru/shorsim/internal/service"
	"github.com/agbru/shorsim/internal/shor"
	"github.com/agbru/shorsim/internal/testutil"
	"github.com/agbru/shorsim/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeREPL(svc *fakeService) (*REPL, *bytes.Buffer) {
	if svc.engines == nil {
		svc.engines = []string{"dft", "fft", "parallel"}
	}
	r := NewREPL(svc, REPLConfig{Timeout: time.Second})
	var out bytes.Buffer
	r.SetOutput(&out)
	return r, &out
}

func TestNewREPL(t *testing.T) {
	t.Parallel()
	r := NewREPL(&fakeService{engines: []string{"dft", "fft"}}, REPLConfig{})
	assert.Equal(t, "dft", r.config.Engine)
	assert.Equal(t, time.Minute, r.config.Timeout)

	r = NewREPL(&fakeService{engines: []string{"dft", "fft"}}, REPLConfig{Engine: "fft"})
	assert.Equal(t, "fft", r.config.Engine)
}

func TestProcessCommand(t *testing.T) {
	t.Parallel()
	svc := &fakeService{resp: service.Response{Result: sampleResult(), Seed: 11}}
	r, out := newFakeREPL(svc)
	output := func() string {
		defer out.Reset()
		return testutil.StripAnsiCodes(out.String())
	}

	assert.True(t, r.processCommand("factor 15"))
	got := output()
	assert.Contains(t, got, "Factoring 15 with dft...")
	assert.Contains(t, got, "15 = 3 × 5")
	require.Len(t, svc.requests, 1)
	assert.Equal(t, service.Request{N: 15, Engine: "dft"}, svc.requests[0])

	assert.True(t, r.processCommand("engine FFT"))
	assert.Contains(t, output(), "Engine changed to: fft")
	assert.True(t, r.processCommand("engine nope"))
	assert.Contains(t, output(), "Unknown engine: nope")

	assert.True(t, r.processCommand("tries 7"))
	assert.Contains(t, output(), "Attempt budget: 7")
	assert.True(t, r.processCommand("tries 0"))
	assert.Contains(t, output(), "The budget must be positive.")

	assert.True(t, r.processCommand("seed 123"))
	assert.Contains(t, output(), "Seed: 123")

	assert.True(t, r.processCommand("details"))
	assert.Contains(t, output(), "Details: on")

	assert.True(t, r.processCommand("21"))
	got = output()
	assert.Contains(t, got, "Factoring 21 with fft...")
	assert.Contains(t, got, "--- Register layout ---")
	assert.Contains(t, got, "(seed 123)")
	assert.Equal(t, service.Request{N: 21, Engine: "fft", Seed: 123, MaxTries: 7}, svc.requests[1])

	assert.True(t, r.processCommand("status"))
	got = output()
	assert.Contains(t, got, "Engine:   fft")
	assert.Contains(t, got, "Tries:    7")
	assert.Contains(t, got, "Seed:     123")

	assert.True(t, r.processCommand("engines"))
	assert.Contains(t, output(), "► fft")

	assert.True(t, r.processCommand("factor"))
	assert.Contains(t, output(), "Usage: factor <n>")
	assert.True(t, r.processCommand("factor abc"))
	assert.Contains(t, output(), "Invalid value: abc")

	assert.True(t, r.processCommand("frobnicate"))
	assert.Contains(t, output(), "Unknown command: frobnicate")

	assert.True(t, r.processCommand("help"))
	assert.Contains(t, output(), "explore <n> [limit]")
}

func TestProcessCommandExit(t *testing.T) {
	t.Parallel()
	for _, input := range []string{"exit", "quit", "q", "2", "0", "-5"} {
		r, out := newFakeREPL(&fakeService{})
		assert.False(t, r.processCommand(input), input)
		assert.Contains(t, out.String(), "Goodbye!")
	}
}

func TestREPLFactorErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "rejected",
			err:  &shor.SetupError{N: 27, Reason: shor.ErrPrimePower, Base: 3, Power: 3},
			want: []string{"Status: Rejected. 27 is a prime power (3^3)"},
		},
		{
			name: "exhausted",
			err: &shor.ExhaustedError{N: 21, Tries: 1, Attempts: []shor.Attempt{
				{Reason: shor.ReasonOddPeriod},
			}},
			want: []string{"Status: Failure. No factor found", "1 attempts failed:", "the period candidate is odd"},
		},
		{
			name: "limit",
			err:  fmt.Errorf("%w: 99999 > 1000", service.ErrMaxValueExceeded),
			want: []string{"Error: maximum n value exceeded: 99999 > 1000"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, out := newFakeREPL(&fakeService{err: tt.err})
			r.processCommand("factor 27")
			got := testutil.StripAnsiCodes(out.String())
			for _, want := range tt.want {
				assert.Contains(t, got, want)
			}
		})
	}
}

func TestREPLCompare(t *testing.T) {
	t.Parallel()
	svc := &fakeService{resp: service.Response{Result: sampleResult()}}
	r, out := newFakeREPL(svc)
	r.config.Seed = 8

	r.processCommand("compare 15")
	got := testutil.StripAnsiCodes(out.String())
	assert.Contains(t, got, "Comparison for 15 (seed 8):")
	assert.Equal(t, 3, strings.Count(got, "3 5 "))
	assert.Equal(t, 3, strings.Count(got, "✓"))
	require.Len(t, svc.requests, 3)
	for i, name := range svc.engines {
		assert.Equal(t, service.Request{N: 15, Engine: name, Seed: 8}, svc.requests[i])
	}
}

func TestREPLExploreAndPowers(t *testing.T) {
	t.Parallel()
	svc := &fakeService{bases: []lab.WorkingBase{
		{N: 15, X: 2, Periods: []lab.WorkingPeriod{{Period: 4, Factor: 5, Exact: true}}},
	}}
	r, out := newFakeREPL(svc)

	r.processCommand("explore 15 1")
	assert.Contains(t, testutil.StripAnsiCodes(out.String()), "x=2: 4*→5")
	out.Reset()

	r.processCommand("explore 2")
	assert.Contains(t, out.String(), "Error:")
	out.Reset()

	r.processCommand("powers 15 4 6")
	lines := strings.Split(strings.TrimRight(testutil.StripAnsiCodes(out.String()), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"4", "2", "1,", "4,", "1,", "4,", "1,", "4"}, strings.Fields(lines[1]))
	out.Reset()

	r.processCommand("powers 15")
	lines = strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	assert.Len(t, lines, 6, "bases 2 to 6 plus the header")
	out.Reset()

	r.processCommand("powers 1")
	assert.Contains(t, out.String(), "n must be at least 3.")
}

func TestREPLStart(t *testing.T) {
	t.Parallel()
	svc := &fakeService{resp: service.Response{Result: sampleResult(), Seed: 3}}
	r, out := newFakeREPL(svc)
	r.SetInput(strings.NewReader("help\n\n15\n1\nfactor 21\n"))
	r.Start()

	got := testutil.StripAnsiCodes(out.String())
	assert.Contains(t, got, "Shor Simulator - Interactive Mode")
	assert.Contains(t, got, "Enter an odd, non-prime N to factor, or N <= 2 to leave.")
	assert.Contains(t, got, "15 = 3 × 5")
	assert.Contains(t, got, "Goodbye!")
	assert.Len(t, svc.requests, 1, "the session ends at 1 before factor 21")
}

func TestREPLStartEOF(t *testing.T) {
	t.Parallel()
	svc := &fakeService{resp: service.Response{Result: sampleResult()}}
	r, out := newFakeREPL(svc)
	r.SetInput(strings.NewReader("factor 15"))
	r.Start()

	assert.Len(t, svc.requests, 1, "a last line without newline still runs")
	assert.True(t, strings.HasSuffix(out.String(), "\nGoodbye!\n"))
}

// TestREPLWithService runs the console against the real service.
func TestREPLWithService(t *testing.T) {
	t.Parallel()
	svc := service.NewFactorService(transform.NewDefaultFactory(), config.AppConfig{MaxTries: 50, Engine: "dft"}, 0, nil)
	r := NewREPL(svc, REPLConfig{Seed: 5, Timeout: time.Minute})
	var out bytes.Buffer
	r.SetOutput(&out)

	r.processCommand("21")
	got := testutil.StripAnsiCodes(out.String())
	assert.Contains(t, got, "21 = 3 × 7")

	out.Reset()
	r.processCommand("16")
	assert.Contains(t, testutil.StripAnsiCodes(out.String()), "Status: Rejected.")

}
