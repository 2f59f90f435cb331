package calibration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/agbru/shorsim/internal/cli"
	"github.com/agbru/shorsim/internal/config"
	apperrors "github.com/agbru/shorsim/internal/errors"
	"github.com/agbru/shorsim/internal/shor"
	"github.com/agbru/shorsim/internal/transform"
	"github.com/agbru/shorsim/internal/ui"
)

var errNoResult = errors.New("calibration: no candidate finished")

// CalibrationOptions configures RunCalibration.
type CalibrationOptions struct {
	// ProfilePath overrides the default profile location.
	ProfilePath string
	// SaveProfile writes the winning setup to ProfilePath.
	SaveProfile bool
	// LoadProfile reuses a valid cached profile instead of measuring.
	LoadProfile bool
	// Qubits is the reference register width; 0 means CalibrationQubits.
	Qubits int
	// Samples is the number of timed transforms per candidate.
	Samples int
	// ShowProgress draws the progress bar while measuring.
	ShowProgress bool
}

// RunCalibration times every engine on a reference register, prints a
// ranking and saves the winner. It returns an exit code.
//
// Parameters:
//   - ctx: Cancels the benchmark between samples.
//   - out: Destination of progress and the summary.
//   - factory: Provides the engines to time.
//   - opts: Profile handling, register width and sample count.
//
// Returns:
//   - int: The exit code: success, or the code of the context error.
func RunCalibration(ctx context.Context, out io.Writer, factory transform.Factory, opts CalibrationOptions) int {
	fmt.Fprintf(out, "--- Calibration Mode: Finding the Fastest Transform Engine ---\n")

	if opts.LoadProfile {
		if profile, loaded := LoadOrCreateProfile(opts.ProfilePath); loaded {
			fmt.Fprintf(out, "%sLoaded existing calibration profile from %s%s\n",
				ui.ColorGreen(), resolvePath(opts.ProfilePath), ui.ColorReset())
			fmt.Fprintf(out, "Profile: %s\n", profile.String())
			printRecommendation(out, profile)
			return apperrors.ExitSuccess
		}
	}

	candidates := GenerateCandidates(factory.List(), false)
	if len(candidates) == 0 {
		fmt.Fprintf(out, "%sNo engine is registered.%s\n", ui.ColorRed(), ui.ColorReset())
		return apperrors.ExitErrorGeneric
	}
	runner := newCalibrationRunner(ctx, factory, opts.Qubits, opts.Samples)
	fmt.Fprintf(out, "%sTiming %d setups on a %d-qubit register, %d samples each%s\n",
		ui.ColorCyan(), len(candidates), runner.qubits, runner.samples, ui.ColorReset())

	start := time.Now()
	measured, err := runWithProgress(runner, candidates, opts.ShowProgress, out)
	if err != nil {
		fmt.Fprintf(out, "\n%sCalibration interrupted.%s\n", ui.ColorYellow(), ui.ColorReset())
		return apperrors.HandleFactorizationError(err, time.Since(start), out, cli.CLIColorProvider{})
	}

	ranked := rankMeasurements(measured)
	if !ranked[0].OK() {
		fmt.Fprintf(out, "\n%sCalibration failed: no valid results obtained.%s\n", ui.ColorRed(), ui.ColorReset())
		return apperrors.ExitErrorGeneric
	}
	best := ranked[0]

	profile := NewProfile()
	profile.Engine = best.Engine
	profile.Workers = best.Workers
	profile.ParallelThreshold = EstimateOptimalParallelThreshold()
	if best.Engine == "parallel" {
		profile.ParallelThreshold = runner.findParallelThreshold(best.Workers, GenerateParallelThresholds())
	}
	profile.Workers, profile.ParallelThreshold = ValidateSetup(profile.Workers, profile.ParallelThreshold)
	profile.Measurements = ranked
	profile.CalibrationQubits = runner.qubits
	profile.CalibrationTime = time.Since(start).Round(time.Millisecond).String()

	printCalibrationResults(out, ranked)
	printRecommendation(out, profile)

	if opts.SaveProfile {
		if err := profile.SaveProfile(opts.ProfilePath); err != nil {
			fmt.Fprintf(out, "%sWarning: failed to save profile: %v%s\n", ui.ColorYellow(), err, ui.ColorReset())
		} else {
			fmt.Fprintf(out, "%sCalibration profile saved to %s%s\n",
				ui.ColorGreen(), resolvePath(opts.ProfilePath), ui.ColorReset())
		}
	}
	return apperrors.ExitSuccess
}

// runWithProgress runs the candidates, feeding the progress bar when show
// is set.
func runWithProgress(runner *calibrationRunner, candidates []Candidate, show bool, out io.Writer) ([]Measurement, error) {
	if !show {
		return runner.runAll(candidates, nil)
	}
	updates := make(chan shor.ProgressUpdate, len(candidates))
	var wg sync.WaitGroup
	wg.Add(1)
	go cli.DisplayProgress(&wg, updates, 1, out)
	measured, err := runner.runAll(candidates, func(p float64) {
		updates <- shor.ProgressUpdate{Index: 0, Try: 1, Value: p}
	})
	close(updates)
	wg.Wait()
	return measured, err
}

// AutoCalibrate picks the engine setup at startup. A valid cached profile
// wins; otherwise a time-boxed micro-benchmark runs and, when confident
// enough, its result is applied and saved. It reports whether cfg changed.
//
// Parameters:
//   - ctx: Bounds the quick benchmark.
//   - cfg: The configuration to tune.
//   - out: Destination of the status line.
//   - factory: Provides the engines to time.
//
// Returns:
//   - config.AppConfig: cfg with the calibrated engine setup.
//   - bool: Whether a cached or measured setup was applied.
func AutoCalibrate(ctx context.Context, cfg config.AppConfig, out io.Writer, factory transform.Factory) (config.AppConfig, bool) {
	if updated, ok := LoadCachedCalibration(cfg, cfg.CalibrationProfile); ok {
		fmt.Fprintf(out, "%sUsing cached calibration%s: engine=%s%s%s, workers=%s%d%s\n",
			ui.ColorGreen(), ui.ColorReset(),
			ui.ColorYellow(), updated.Engine, ui.ColorReset(),
			ui.ColorYellow(), updated.Workers, ui.ColorReset())
		return updated, true
	}

	res, err := QuickCalibrate(ctx, factory)
	if err != nil || res.Confidence < 0.5 {
		return cfg, false
	}

	profile := NewProfile()
	profile.Engine = res.Best.Engine
	profile.Workers, profile.ParallelThreshold = ValidateSetup(res.Best.Workers, EstimateOptimalParallelThreshold())
	profile.Measurements = res.Measurements
	profile.CalibrationQubits = MicroBenchQubits
	profile.CalibrationTime = res.Duration.Round(time.Millisecond).String()

	updated := applyProfile(cfg, profile)
	fmt.Fprintf(out, "%sQuick calibration%s (%v): engine=%s%s%s, workers=%s%d%s (confidence: %.0f%%)\n",
		ui.ColorGreen(), ui.ColorReset(),
		res.Duration.Round(time.Millisecond),
		ui.ColorYellow(), updated.Engine, ui.ColorReset(),
		ui.ColorYellow(), updated.Workers, ui.ColorReset(),
		res.Confidence*100)

	if err := profile.SaveProfile(cfg.CalibrationProfile); err != nil {
		fmt.Fprintf(out, "%sWarning: could not save calibration profile: %v%s\n",
			ui.ColorYellow(), err, ui.ColorReset())
	}
	return updated, true
}

// LoadCachedCalibration applies a valid cached profile to cfg.
func LoadCachedCalibration(cfg config.AppConfig, profilePath string) (config.AppConfig, bool) {
	profile, loaded := LoadOrCreateProfile(profilePath)
	if !loaded {
		return cfg, false
	}
	return applyProfile(cfg, profile), true
}

// applyProfile copies the calibrated setup into cfg. Settings the user
// changed from their defaults are kept.
func applyProfile(cfg config.AppConfig, p *CalibrationProfile) config.AppConfig {
	if cfg.Engine == config.DefaultEngine {
		cfg.Engine = p.Engine
	}
	if cfg.Workers == 0 {
		cfg.Workers = p.Workers
	}
	if cfg.ParallelThreshold == transform.DefaultParallelThreshold && p.ParallelThreshold > 0 {
		cfg.ParallelThreshold = p.ParallelThreshold
	}
	return cfg
}
