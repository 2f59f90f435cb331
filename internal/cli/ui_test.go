package cli

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/agbru/shorsim/internal/shor"
	"github.com/agbru/shorsim/internal/testutil"
	"github.com/briandowns/spinner"
	"github.com/stretchr/testify/assert"
)

type mockSpinner struct {
	started bool
	stopped bool
	suffix  string
}

func (m *mockSpinner) Start()                     { m.started = true }
func (m *mockSpinner) Stop()                      { m.stopped = true }
func (m *mockSpinner) UpdateSuffix(suffix string) { m.suffix = suffix }

func TestFormatExecutionDuration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "< 1µs"},
		{500 * time.Nanosecond, "0µs"},
		{10 * time.Microsecond, "10µs"},
		{10 * time.Millisecond, "10ms"},
		{2 * time.Second, "2s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatExecutionDuration(tt.d), "duration %v", tt.d)
	}
}

func TestProgressBar(t *testing.T) {
	t.Parallel()
	tests := []struct {
		progress float64
		length   int
		want     string
	}{
		{0, 4, "░░░░"},
		{0.5, 4, "██░░"},
		{1, 4, "████"},
		{1.5, 4, "████"},
		{-1, 4, "░░░░"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, progressBar(tt.progress, tt.length), "progress %v", tt.progress)
	}
}

func TestProgressState(t *testing.T) {
	t.Parallel()
	ps := NewProgressState(2)
	assert.Zero(t, ps.CalculateAverage())

	ps.Update(0, 3, 0.5)
	ps.Update(1, 1, 1)
	ps.Update(7, 9, 1)
	assert.InDelta(t, 0.75, ps.CalculateAverage(), 1e-12)
	assert.Equal(t, 3, ps.MaxTry())

	assert.Zero(t, NewProgressState(0).CalculateAverage())
}

func TestDisplayProgress(t *testing.T) {
	mock := &mockSpinner{}
	previous := newSpinner
	newSpinner = func(...spinner.Option) Spinner { return mock }
	t.Cleanup(func() { newSpinner = previous })

	updates := make(chan shor.ProgressUpdate, 4)
	var out bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(1)
	go DisplayProgress(&wg, updates, 1, &out)

	updates <- shor.ProgressUpdate{Index: 0, Try: 1, Value: 0.5}
	updates <- shor.ProgressUpdate{Index: 0, Try: 2, Value: 0.1}
	close(updates)
	wg.Wait()

	assert.True(t, mock.started)
	assert.True(t, mock.stopped)
	assert.Equal(t, "Progress: 100.00% ["+strings.Repeat("█", ProgressBarWidth)+"] done\n", out.String())
}

func TestDisplayProgressWithoutRuns(t *testing.T) {
	t.Parallel()
	updates := make(chan shor.ProgressUpdate, 1)
	updates <- shor.ProgressUpdate{}
	close(updates)

	var out bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(1)
	DisplayProgress(&wg, updates, 0, &out)
	wg.Wait()
	assert.Empty(t, out.String())
}

func TestProgressLabel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Progress", progressLabel(1))
	assert.Equal(t, "Avg progress", progressLabel(3))
}

func TestDisplayResult_Golden(t *testing.T) {
	testutil.NoColor(t)

	unverified := sampleResult()
	unverified.PeriodVerified = false
	unverified.Tries = 1

	tests := []struct {
		name string
		res  shor.Result
		want string
	}{
		{
			name: "summary",
			res:  sampleResult(),
			want: "15 = 3 × 5\n" +
				"Found with base x=7, period 4 (m=64, m/q ≈ 1/4) after 2 tries in 2ms.\n",
		},
		{
			name: "approximate period",
			res:  unverified,
			want: "15 = 3 × 5\n" +
				"Found with base x=7, period 4 (m=64, m/q ≈ 1/4) after 1 try in 2ms.\n" +
				"Note: 7^4 mod 15 ≠ 1, the reading only approximated the period.\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			DisplayResult(tt.res, 42, false, false, &buf)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestDisplayResultDetails(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	DisplayResult(sampleResult(), 42, true, true, &buf)
	got := testutil.StripAnsiCodes(buf.String())

	for _, want := range []string{
		"--- Register layout ---",
		"q                   : 256 (smallest power of two ≥ N² = 225)",
		"First register      : 8 qubits",
		"Second register     : 4 qubits",
		"Powers of 7 mod 15 : 1, 7, 4, 13, 1, 7,",
		"Engine              : dft (seed 42)",
		"Run ID              : 5f0c2b1e-0000-4000-8000-000000000001",
		"Outcome",
		"the first register measured 0, which carries no period",
		"factor found",
	} {
		assert.Contains(t, got, want)
	}
}

func TestDisplayAttempts(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	DisplayAttempts(sampleResult().Attempts, &buf)
	lines := strings.Split(strings.TrimRight(testutil.StripAnsiCodes(buf.String()), "\n"), "\n")

	if assert.Len(t, lines, 3) {
		assert.Equal(t, []string{"Try", "Base", "Value", "m", "p/den", "Factor", "Time", "Outcome"}, strings.Fields(lines[0]))
		assert.Equal(t, []string{"1", "2", "8", "0", "-", "-", "<", "1µs"}, strings.Fields(lines[1])[:8])
		assert.Equal(t, []string{"2", "7", "4", "64", "1/4", "3", "1ms", "factor", "found"}, strings.Fields(lines[2]))
	}
}
