// Package orchestration runs a batch of factorisations concurrently, feeds
// their progress to the terminal and turns the outcomes into a report and
// an exit code.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/shorsim/internal/cli"
	"github.com/agbru/shorsim/internal/config"
	apperrors "github.com/agbru/shorsim/internal/errors"
	"github.com/agbru/shorsim/internal/rng"
	"github.com/agbru/shorsim/internal/shor"
	"github.com/agbru/shorsim/internal/transform"
	"github.com/agbru/shorsim/internal/ui"
	"github.com/agbru/shorsim/pkg/models"
)

// FactorizationResult is the outcome of one target of a batch.
type FactorizationResult struct {
	N int
	// Seed replays the run with -seed when N is the only target.
	Seed     uint64
	Result   shor.Result
	Duration time.Duration
	Err      error
}

// ProgressBufferMultiplier sizes the progress channel per target.
const ProgressBufferMultiplier = 5

// factorize is swapped by tests.
var factorize = shor.Factorize

// TargetSeed is the seed of target i in a batch seeded with seed. The
// first target uses seed itself and the others a derived stream, so every
// reported seed replays its target when passed back with -seed as the only
// target, and matches the seed the HTTP API takes.
func TargetSeed(seed uint64, i int) uint64 {
	if i == 0 {
		return seed
	}
	return rng.Derive(seed, i)
}

// ExecuteFactorizations factors every target concurrently, at most
// GOMAXPROCS at a time. Target i draws from its own PCG stream seeded with
// TargetSeed(cfg.Seed, i). Targets failing the setup checks are rejected
// before any progress is drawn and never run. Progress goes to out unless
// cfg asks for quiet or JSON output; extra observers see every update,
// indexed by the position of the target among those that run. Results
// keep the order of targets.
//
// Parameters:
//   - ctx: Cancels the runs still in progress.
//   - targets: The numbers to factor.
//   - engine: The transform engine; nil selects the default one.
//   - cfg: Seed, attempt budget, transform options and output mode.
//   - out: Destination of the progress display.
//   - observers: Extra progress observers.
//
// Returns:
//   - []FactorizationResult: One result per target, in the order of targets.
func ExecuteFactorizations(ctx context.Context, targets []int, engine transform.Engine, cfg config.AppConfig, out io.Writer, observers ...shor.ProgressObserver) []FactorizationResult {
	results := make([]FactorizationResult, len(targets))
	runnable := make([]int, 0, len(targets))
	for i, n := range targets {
		results[i] = FactorizationResult{N: n, Seed: TargetSeed(cfg.Seed, i)}
		if err := shor.Validate(n); err != nil {
			results[i].Err = err
			continue
		}
		runnable = append(runnable, i)
	}

	progressChan := make(chan shor.ProgressUpdate, max(len(runnable), 1)*ProgressBufferMultiplier)
	subject := shor.NewProgressSubject()
	subject.Register(shor.NewChannelObserver(progressChan))
	for _, o := range observers {
		subject.Register(o)
	}

	shown := len(runnable)
	if cfg.Quiet || cfg.JSONOutput {
		shown = 0
	}
	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go cli.DisplayProgress(&displayWg, progressChan, shown, out)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(runtime.GOMAXPROCS(0), 1))
	for slot, i := range runnable {
		g.Go(func() error {
			r := &results[i]
			start := time.Now()
			r.Result, r.Err = factorize(ctx, r.N, rng.NewPCG(r.Seed), shor.Options{
				MaxTries:  cfg.MaxTries,
				Engine:    engine,
				Transform: cfg.ToTransformOptions(),
				Subject:   subject,
				Index:     slot,
			})
			r.Duration = time.Since(start)
			return nil
		})
	}

	_ = g.Wait()
	close(progressChan)
	displayWg.Wait()
	return results
}

// exitPriority ranks exit codes when targets fail differently: a rejected
// input outranks an exhausted budget, which outranks an unexpected error,
// a timeout and finally a cancellation.
var exitPriority = map[int]int{
	apperrors.ExitSuccess:           0,
	apperrors.ExitErrorCanceled:     1,
	apperrors.ExitErrorTimeout:      2,
	apperrors.ExitErrorGeneric:      3,
	apperrors.ExitErrorExhausted:    4,
	apperrors.ExitErrorInvalidInput: 5,
}

// ExitCode folds the outcomes of a batch into one exit status.
func ExitCode(results []FactorizationResult) int {
	code := apperrors.ExitSuccess
	for _, r := range results {
		if c := apperrors.ExitCodeFor(r.Err); exitPriority[c] > exitPriority[code] {
			code = c
		}
	}
	return code
}

// ErrorKind names the class of err for reports.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, apperrors.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, apperrors.ErrExhausted):
		return "exhausted"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

// AnalyzeResults reports a batch in the mode cfg selects and returns the
// exit code. Batches of several targets get a summary table first.
//
// Parameters:
//   - results: The batch outcome from ExecuteFactorizations.
//   - cfg: Selects text, quiet or JSON output and the optional output file.
//   - out: Destination of the report.
//
// Returns:
//   - int: The exit code of the batch, as ExitCode.
func AnalyzeResults(results []FactorizationResult, cfg config.AppConfig, out io.Writer) int {
	switch {
	case cfg.JSONOutput:
		reportJSON(results, cfg, out)
	case cfg.Quiet:
		for _, r := range results {
			if r.Err == nil {
				cli.DisplayQuietResult(out, r.Result)
			}
		}
	default:
		if len(results) > 1 {
			printSummary(results, out)
		}
		for _, r := range results {
			fmt.Fprintln(out)
			if r.Err != nil {
				fmt.Fprintf(out, "%sN = %d%s\n", ui.ColorBold(), r.N, ui.ColorReset())
				apperrors.HandleFactorizationError(r.Err, r.Duration, out, cli.CLIColorProvider{})
				var exhausted *shor.ExhaustedError
				if cfg.Verbose && errors.As(r.Err, &exhausted) {
					cli.DisplayExhausted(exhausted, out)
				}
				continue
			}
			cli.DisplayResult(r.Result, r.Seed, cfg.Details, cfg.Verbose, out)
		}
	}

	saveResults(results, cfg, out)
	return ExitCode(results)
}

func printSummary(results []FactorizationResult, out io.Writer) {
	fmt.Fprintf(out, "\n--- Batch Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sN%s\t%sFactors%s\t%sTries%s\t%sDuration%s\t%sStatus%s\n",
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset())

	succeeded := 0
	for _, r := range results {
		factors, tries := "-", "-"
		var status string
		if r.Err != nil {
			status = fmt.Sprintf("%s❌ %s%s", ui.ColorRed(), strings.ReplaceAll(ErrorKind(r.Err), "_", " "), ui.ColorReset())
			var exhausted *shor.ExhaustedError
			if errors.As(r.Err, &exhausted) {
				tries = fmt.Sprint(exhausted.Tries)
			}
		} else {
			succeeded++
			factors = fmt.Sprintf("%d × %d", r.Result.Factor, r.Result.Cofactor)
			tries = fmt.Sprint(r.Result.Tries)
			status = fmt.Sprintf("%s✅ Success%s", ui.ColorGreen(), ui.ColorReset())
		}
		fmt.Fprintf(tw, "%s%d%s\t%s\t%s\t%s%s%s\t%s\n",
			ui.ColorBlue(), r.N, ui.ColorReset(), factors, tries,
			ui.ColorYellow(), cli.FormatExecutionDuration(r.Duration), ui.ColorReset(), status)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}
	fmt.Fprintf(out, "\nGlobal Status: %d of %d factored.\n", succeeded, len(results))
}

func reportJSON(results []FactorizationResult, cfg config.AppConfig, out io.Writer) {
	reports := make([]any, len(results))
	for i, r := range results {
		if r.Err != nil {
			reports[i] = models.NewErrorReport(r.N, ErrorKind(r.Err), r.Err)
		} else {
			reports[i] = models.NewFactorReport(r.Result, r.Seed, cfg.Verbose)
		}
	}
	var doc any = reports
	if len(reports) == 1 {
		doc = reports[0]
	}
	if err := cli.WriteJSON(out, doc); err != nil {
		fmt.Fprintf(out, "Warning: failed to encode report: %v\n", err)
	}
}

// saveResults writes each successful run to cfg.OutputFile. In a batch the
// file name gets the target as a suffix: out.txt becomes out-21.txt.
func saveResults(results []FactorizationResult, cfg config.AppConfig, out io.Writer) {
	if cfg.OutputFile == "" {
		return
	}
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		path := cfg.OutputFile
		if len(results) > 1 {
			ext := filepath.Ext(path)
			path = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), r.N, ext)
		}
		err := cli.WriteResultToFile(r.Result, r.Seed, cli.OutputConfig{OutputFile: path, JSON: cfg.JSONOutput})
		switch {
		case err != nil:
			fmt.Fprintf(out, "%sWarning: %v%s\n", ui.ColorYellow(), err, ui.ColorReset())
		case !cfg.Quiet && !cfg.JSONOutput:
			fmt.Fprintf(out, "\n%s✓ Result saved to: %s%s%s\n", ui.ColorGreen(), ui.ColorCyan(), path, ui.ColorReset())
		}
	}
}
