// Package config turns command-line flags and SHORSIM_* environment
// variables into an AppConfig and checks that the result is usable.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/agbru/shorsim/internal/errors"
	"github.com/agbru/shorsim/internal/shor"
	"github.com/agbru/shorsim/internal/transform"
)

// EnvPrefix prefixes every environment variable read by shorsim.
const EnvPrefix = "SHORSIM_"

// Defaults for flags and environment variables.
const (
	DefaultN           = 15
	DefaultMaxTries    = shor.DefaultMaxTries
	DefaultEngine      = transform.DefaultEngine
	DefaultTimeout     = 5 * time.Minute
	DefaultPort        = "8080"
	DefaultExploreSize = 3
)

// Targets is the list of numbers to factor. It implements flag.Value as a
// comma-separated list.
type Targets []int

func (t *Targets) String() string {
	if t == nil {
		return ""
	}
	parts := make([]string, len(*t))
	for i, n := range *t {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// Set parses a comma-separated list, replacing the current value.
func (t *Targets) Set(value string) error {
	parsed, err := ParseTargets(value)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTargets parses "15,21, 35" into its numbers.
func ParseTargets(value string) (Targets, error) {
	var out Targets
	for _, field := range strings.Split(value, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", field)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, errors.New("no number given")
	}
	return out, nil
}

// AppConfig is the fully resolved run configuration.
type AppConfig struct {
	// Targets are the numbers to factor, in order.
	Targets Targets
	// MaxTries is the attempt budget per number.
	MaxTries int
	// Seed seeds the random source; 0 picks one at startup.
	Seed uint64
	// Engine names the transform engine.
	Engine string
	// Workers caps goroutines in the parallel engine; 0 means GOMAXPROCS.
	Workers int
	// NoiseThreshold is the amplitude magnitude under which an input state
	// is skipped by the transform.
	NoiseThreshold float64
	// ParallelThreshold is the register size from which the parallel
	// engine fans out.
	ParallelThreshold int
	// Timeout bounds the whole run.
	Timeout time.Duration
	// Details adds the layout and timing breakdown to the report.
	Details bool
	// Verbose prints one line per attempt.
	Verbose bool
	// JSONOutput prints machine-readable reports.
	JSONOutput bool
	// Quiet prints only "factor cofactor" lines.
	Quiet bool
	// NoColor disables colors; NO_COLOR is honoured as well.
	NoColor bool
	// ServerMode starts the HTTP API instead of a one-shot run.
	ServerMode bool
	// Port is the HTTP listen port.
	Port string
	// Interactive starts the REPL.
	Interactive bool
	// Completion prints a shell completion script for the named shell.
	Completion string
	// OutputFile also writes the report to this path.
	OutputFile string
	// Calibrate runs the full engine benchmark and exits.
	Calibrate bool
	// AutoCalibrate runs a quick benchmark at startup.
	AutoCalibrate bool
	// CalibrationProfile overrides the profile path
	// (~/.shorsim_calibration.yaml by default).
	CalibrationProfile string
	// Explore lists working periods instead of running the simulation.
	Explore bool
	// ExploreLimit is how many bases Explore reports.
	ExploreLimit int
}

// N returns the first target, or 0 when there is none.
func (c AppConfig) N() int {
	if len(c.Targets) == 0 {
		return 0
	}
	return c.Targets[0]
}

// ToTransformOptions extracts the engine tuning knobs.
func (c AppConfig) ToTransformOptions() transform.Options {
	return transform.Options{
		NoiseThreshold:    c.NoiseThreshold,
		Workers:           c.Workers,
		ParallelThreshold: c.ParallelThreshold,
	}
}

// Validate checks value ranges and that Engine is one of engines.
// Numbers themselves are validated later, per target, so a bad target
// does not stop the others.
func (c AppConfig) Validate(engines []string) error {
	if len(c.Targets) == 0 && !c.ServerMode && !c.Interactive && !c.Calibrate && c.Completion == "" {
		return apperrors.NewConfigError("no number to factor, use -n")
	}
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if c.MaxTries <= 0 {
		return apperrors.NewConfigError("max tries must be positive: %d", c.MaxTries)
	}
	if c.Workers < 0 {
		return apperrors.NewConfigError("worker count cannot be negative: %d", c.Workers)
	}
	if c.NoiseThreshold < 0 {
		return apperrors.NewConfigError("noise threshold cannot be negative: %g", c.NoiseThreshold)
	}
	if c.ParallelThreshold < 0 {
		return apperrors.NewConfigError("parallel threshold cannot be negative: %d", c.ParallelThreshold)
	}
	if c.ExploreLimit <= 0 {
		return apperrors.NewConfigError("explore limit must be positive: %d", c.ExploreLimit)
	}
	if !slices.Contains(engines, c.Engine) {
		return apperrors.NewConfigError("unrecognized engine: '%s'. Valid engines are: [%s]", c.Engine, strings.Join(engines, ", "))
	}
	if c.Completion != "" && !slices.Contains(Shells, c.Completion) {
		return apperrors.NewConfigError("unsupported shell for completion: '%s'. Valid shells are: [%s]", c.Completion, strings.Join(Shells, ", "))
	}
	return nil
}

// Shells are the shells -completion can target.
var Shells = []string{"bash", "zsh", "fish", "powershell"}

// ParseConfig parses args (without the program name), applies environment
// overrides for flags that were not given and validates the result.
// Usage and errors go to errorWriter. A configuration that fails
// validation is reported as a ConfigError.
//
// Parameters:
//   - programName: The name shown in the usage screen.
//   - args: The arguments after the program name.
//   - errorWriter: Receives flag errors and the usage screen.
//   - engines: The registered transform engine names, for validation.
//
// Returns:
//   - AppConfig: The configuration with SHORSIM_* overrides applied.
//   - error: flag.ErrHelp, a flag parse error or a ConfigError.
func ParseConfig(programName string, args []string, errorWriter io.Writer, engines []string) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)

	config := AppConfig{Targets: Targets{DefaultN}}
	fs.Var(&config.Targets, "n", "Number(s) to factor, comma separated.")
	fs.IntVar(&config.MaxTries, "tries", DefaultMaxTries, "Maximum attempts per number.")
	fs.Uint64Var(&config.Seed, "seed", 0, "Random seed (0 picks one from the system).")
	fs.StringVar(&config.Engine, "engine", DefaultEngine, fmt.Sprintf("Transform engine, one of [%s].", strings.Join(engines, ", ")))
	fs.IntVar(&config.Workers, "workers", 0, "Goroutines used by the parallel engine (0 for GOMAXPROCS).")
	fs.Float64Var(&config.NoiseThreshold, "noise", transform.DefaultNoiseThreshold, "Amplitude magnitude below which input states are skipped.")
	fs.IntVar(&config.ParallelThreshold, "parallel-threshold", transform.DefaultParallelThreshold, "Register size from which the parallel engine fans out.")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum execution time for the whole run.")
	fs.BoolVar(&config.Details, "d", false, "Show register layout and timing details.")
	fs.BoolVar(&config.Details, "details", false, "Alias for -d.")
	fs.BoolVar(&config.Verbose, "v", false, "Show every attempt.")
	fs.BoolVar(&config.JSONOutput, "json", false, "Output results in JSON format.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode - print only the factors.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.BoolVar(&config.ServerMode, "server", false, "Start in HTTP server mode.")
	fs.StringVar(&config.Port, "port", DefaultPort, "Port to listen on in server mode.")
	fs.BoolVar(&config.Interactive, "interactive", false, "Start in interactive REPL mode.")
	fs.StringVar(&config.Completion, "completion", "", "Generate shell completion script (bash, zsh, fish, powershell).")
	fs.StringVar(&config.OutputFile, "output", "", "Output file path for the report.")
	fs.StringVar(&config.OutputFile, "o", "", "Output file path (shorthand).")
	fs.BoolVar(&config.Calibrate, "calibrate", false, "Benchmark every engine and save the fastest setup.")
	fs.BoolVar(&config.AutoCalibrate, "auto-calibrate", false, "Run a quick benchmark at startup.")
	fs.StringVar(&config.CalibrationProfile, "calibration-profile", "", "Path to the calibration profile (default: ~/.shorsim_calibration.yaml).")
	fs.BoolVar(&config.Explore, "explore", false, "List the even periods that would yield a factor.")
	fs.IntVar(&config.ExploreLimit, "explore-limit", DefaultExploreSize, "Number of bases listed by -explore.")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}
	if fs.NArg() > 0 {
		if err := config.Targets.Set(strings.Join(fs.Args(), ",")); err != nil {
			fmt.Fprintln(errorWriter, "Configuration error:", err)
			return AppConfig{}, apperrors.NewConfigError("%v", err)
		}
	}

	if err := applyEnvOverrides(&config, fs); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		return AppConfig{}, err
	}

	config.Engine = strings.ToLower(config.Engine)
	config.Completion = strings.ToLower(config.Completion)
	if err := config.Validate(engines); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, err
	}
	return config, nil
}
