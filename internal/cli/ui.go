// Package cli renders runs for a terminal: the progress spinner, result and
// attempt tables, quiet and file output, shell completion and the
// interactive console.
package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/agbru/shorsim/internal/numtheory"
	"github.com/agbru/shorsim/internal/shor"
	"github.com/agbru/shorsim/internal/ui"
	"github.com/briandowns/spinner"
)

const (
	// ProgressRefreshRate is how often the spinner line is redrawn.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth is the width of the bar in characters.
	ProgressBarWidth = 40
	// PowersPreview is how many powers of the base the detailed report
	// prints.
	PowersPreview = 26
)

// FormatExecutionDuration picks µs, ms or the default representation
// depending on magnitude.
func FormatExecutionDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "< 1µs"
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return d.String()
	}
}

// Spinner abstracts the terminal spinner so tests can observe it.
type Spinner interface {
	Start()
	Stop()
	UpdateSuffix(suffix string)
}

type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start()                     { rs.s.Start() }
func (rs *realSpinner) Stop()                      { rs.s.Stop() }
func (rs *realSpinner) UpdateSuffix(suffix string) { rs.s.Suffix = suffix }

var newSpinner = func(options ...spinner.Option) Spinner {
	return &realSpinner{spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)}
}

// ProgressState tracks the progress of concurrent runs and the attempt
// each one is on.
type ProgressState struct {
	progresses []float64
	tries      []int
}

// NewProgressState tracks numRuns runs.
func NewProgressState(numRuns int) *ProgressState {
	return &ProgressState{
		progresses: make([]float64, numRuns),
		tries:      make([]int, numRuns),
	}
}

// Update records run index at attempt try with the given progress.
// Out-of-range indices are ignored.
func (ps *ProgressState) Update(index, try int, value float64) {
	if index >= 0 && index < len(ps.progresses) {
		ps.progresses[index] = value
		ps.tries[index] = try
	}
}

// CalculateAverage is the mean progress over all runs.
func (ps *ProgressState) CalculateAverage() float64 {
	if len(ps.progresses) == 0 {
		return 0
	}
	var total float64
	for _, p := range ps.progresses {
		total += p
	}
	return total / float64(len(ps.progresses))
}

// MaxTry is the highest attempt number reported so far.
func (ps *ProgressState) MaxTry() int {
	best := 0
	for _, t := range ps.tries {
		best = max(best, t)
	}
	return best
}

func progressBar(progress float64, length int) string {
	progress = min(max(progress, 0), 1)
	count := int(progress * float64(length))
	var b strings.Builder
	b.Grow(length * 3)
	for i := range length {
		if i < count {
			b.WriteRune('█')
		} else {
			b.WriteRune('░')
		}
	}
	return b.String()
}

func progressLabel(numRuns int) string {
	if numRuns > 1 {
		return "Avg progress"
	}
	return "Progress"
}

// DisplayProgress renders a spinner with a progress bar until updates is
// closed, then prints a final full bar. It is meant to run in its own
// goroutine and calls wg.Done when finished. Progress restarts from zero
// with every attempt, so the line also shows the attempt number.
//
// Parameters:
//   - wg: Marked done when the display returns.
//   - updates: Progress notifications; closing it ends the display.
//   - numRuns: How many runs report progress; zero drains updates silently.
//   - out: Destination of the spinner.
func DisplayProgress(wg *sync.WaitGroup, updates <-chan shor.ProgressUpdate, numRuns int, out io.Writer) {
	defer wg.Done()
	if numRuns <= 0 {
		for range updates {
		}
		return
	}

	state := NewProgressWithETA(numRuns)
	s := newSpinner(spinner.WithWriter(out))
	s.Start()
	stopped := false
	defer func() {
		if !stopped {
			s.Stop()
		}
	}()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	label := progressLabel(numRuns)
	for {
		select {
		case update, ok := <-updates:
			if !ok {
				s.Stop()
				stopped = true
				fmt.Fprintf(out, "%s: %6.2f%% [%s] done\n", label, 100.0, progressBar(1, ProgressBarWidth))
				return
			}
			state.UpdateWithETA(update.Index, update.Try, update.Value)
		case <-ticker.C:
			avg := state.CalculateAverage()
			s.UpdateSuffix(fmt.Sprintf(" %s: %6.2f%% [%s] try %d, ETA: %s",
				label, avg*100, progressBar(avg, ProgressBarWidth), state.MaxTry(), FormatETA(state.GetETA())))
		}
	}
}

// DisplayResult prints a successful run. details adds the register layout
// and the powers of the base; verbose adds the attempt table.
func DisplayResult(res shor.Result, seed uint64, details, verbose bool, out io.Writer) {
	n := res.Layout.N
	fmt.Fprintf(out, "%s%d%s = %s%d%s × %s%d%s\n",
		ui.ColorMagenta(), n, ui.ColorReset(),
		ui.ColorGreen(), res.Factor, ui.ColorReset(),
		ui.ColorGreen(), res.Cofactor, ui.ColorReset())
	fmt.Fprintf(out, "Found with base x=%s%d%s, period %s%d%s (m=%d, m/q ≈ %s) after %d %s in %s.\n",
		ui.ColorCyan(), res.Base, ui.ColorReset(),
		ui.ColorCyan(), res.Period, ui.ColorReset(),
		res.Measured, res.Fraction, res.Tries, plural(res.Tries, "try", "tries"),
		FormatExecutionDuration(res.Duration))
	if !res.PeriodVerified {
		fmt.Fprintf(out, "%sNote:%s %d^%d mod %d ≠ 1, the reading only approximated the period.\n",
			ui.ColorYellow(), ui.ColorReset(), res.Base, res.Period, n)
	}

	if details {
		DisplayLayout(res.Layout, out)
		fmt.Fprintf(out, "Powers of %d mod %d : %s ...\n", res.Base, n, joinInts(numtheory.PowersModN(res.Base, n, PowersPreview)))
		fmt.Fprintf(out, "Engine              : %s%s%s (seed %d)\n", ui.ColorCyan(), res.Engine, ui.ColorReset(), seed)
		fmt.Fprintf(out, "Run ID              : %s\n", res.RunID)
	}
	if verbose {
		fmt.Fprintln(out)
		DisplayAttempts(res.Attempts, out)
	}
}

// DisplayLayout explains the register sizes chosen for N.
func DisplayLayout(layout shor.Layout, out io.Writer) {
	fmt.Fprintf(out, "\n%s--- Register layout ---%s\n", ui.ColorBold(), ui.ColorReset())
	fmt.Fprintf(out, "q                   : %s%d%s (smallest power of two ≥ N² = %d)\n",
		ui.ColorCyan(), layout.Q, ui.ColorReset(), layout.N*layout.N)
	fmt.Fprintf(out, "First register      : %d qubits\n", layout.FirstQubits)
	fmt.Fprintf(out, "Second register     : %d qubits\n", layout.SecondQubits)
}

// DisplayAttempts prints one row per attempt.
func DisplayAttempts(attempts []shor.Attempt, out io.Writer) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	headers := []string{"Try", "Base", "Value", "m", "p/den", "Factor", "Time", "Outcome"}
	for i, h := range headers {
		sep := "\t"
		if i == len(headers)-1 {
			sep = "\n"
		}
		fmt.Fprintf(tw, "%s%s%s%s", ui.ColorUnderline(), h, ui.ColorReset(), sep)
	}
	for _, a := range attempts {
		frac := "-"
		if a.Fraction.Den != 0 {
			frac = a.Fraction.String()
		}
		factor := "-"
		if a.Factor != 0 {
			factor = fmt.Sprint(a.Factor)
		}
		outcome := ui.ColorGreen() + "factor found" + ui.ColorReset()
		if a.Outcome != shor.OutcomeSuccess {
			outcome = ui.ColorYellow() + a.Reason.Describe() + ui.ColorReset()
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s\t%s\t%s\t%s\n",
			a.Number, a.Base, a.Value, a.M, frac, factor, FormatExecutionDuration(a.Duration), outcome)
	}
	_ = tw.Flush()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
