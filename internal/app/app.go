package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/agbru/shorsim/internal/calibration"
	"github.com/agbru/shorsim/internal/cli"
	"github.com/agbru/shorsim/internal/config"
	apperrors "github.com/agbru/shorsim/internal/errors"
	"github.com/agbru/shorsim/internal/lab"
	"github.com/agbru/shorsim/internal/logging"
	"github.com/agbru/shorsim/internal/orchestration"
	"github.com/agbru/shorsim/internal/rng"
	"github.com/agbru/shorsim/internal/server"
	"github.com/agbru/shorsim/internal/service"
	"github.com/agbru/shorsim/internal/transform"
	"github.com/agbru/shorsim/internal/ui"
	"github.com/agbru/shorsim/pkg/models"
)

// Application is one shorsim invocation: a parsed configuration and the
// engines it can run.
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// Factory provides the transform engines.
	Factory transform.Factory
	// ErrWriter receives error output (typically os.Stderr).
	ErrWriter io.Writer
	// In feeds the interactive mode; nil means os.Stdin.
	In io.Reader
}

// New parses args (program name first) into an Application. A cached
// calibration profile fills in the engine setup the user left at its
// defaults.
//
// Parameters:
//   - args: The command line, program name first (usually os.Args).
//   - errWriter: Receives flag errors and the usage screen.
//
// Returns:
//   - *Application: The configured application, ready to Run.
//   - error: A ConfigError or flag.ErrHelp when parsing fails.
func New(args []string, errWriter io.Writer) (*Application, error) {
	factory := transform.GlobalFactory()

	programName := "shorsim"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, factory.List())
	if err != nil {
		return nil, err
	}
	if cached, ok := calibration.LoadCachedCalibration(cfg, cfg.CalibrationProfile); ok {
		cfg = cached
	}

	return &Application{
		Config:    cfg,
		Factory:   factory,
		ErrWriter: errWriter,
	}, nil
}

// Run dispatches to the mode the configuration selects and returns the
// process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	ui.InitTheme(a.Config.NoColor)
	logging.SetVerbosity(a.Config.Verbose)

	switch {
	case a.Config.ServerMode:
		return a.runServer()
	case a.Config.Interactive:
		return a.runREPL(out)
	case a.Config.Calibrate:
		return a.runCalibration(ctx, out)
	}

	if a.Config.AutoCalibrate {
		calOut := out
		if a.Config.JSONOutput || a.Config.Quiet {
			calOut = io.Discard
		}
		if updated, ok := calibration.AutoCalibrate(ctx, a.Config, calOut, a.Factory); ok {
			a.Config = updated
		}
	}

	if a.Config.Explore {
		return a.runExplore(ctx, out)
	}
	return a.runFactorize(ctx, out)
}

func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion, a.Factory.List()); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

func (a *Application) runServer() int {
	srv := server.NewServer(a.Factory, a.Config)
	if err := srv.Start(); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

func (a *Application) runREPL(out io.Writer) int {
	svc := service.NewFactorService(a.Factory, a.Config, 0, logging.NewNopLogger())
	repl := cli.NewREPL(svc, cli.REPLConfig{
		Engine:   a.Config.Engine,
		MaxTries: a.Config.MaxTries,
		Seed:     a.Config.Seed,
		Timeout:  a.Config.Timeout,
		Details:  a.Config.Details,
	})
	if a.In != nil {
		repl.SetInput(a.In)
	}
	repl.SetOutput(out)
	repl.Start()
	return apperrors.ExitSuccess
}

func (a *Application) runCalibration(ctx context.Context, out io.Writer) int {
	ctx, cleanup := SetupLifecycle(ctx, a.Config.Timeout)
	defer cleanup.Cleanup()
	return calibration.RunCalibration(ctx, out, a.Factory, calibration.CalibrationOptions{
		ProfilePath:  a.Config.CalibrationProfile,
		SaveProfile:  true,
		ShowProgress: !a.Config.Quiet,
	})
}

// runFactorize runs the batch of targets and reports it. A zero seed is
// replaced by a fresh one so the report can show how to replay the run.
func (a *Application) runFactorize(ctx context.Context, out io.Writer) int {
	ctx, cleanup := SetupLifecycle(ctx, a.Config.Timeout)
	defer cleanup.Cleanup()

	engine, err := a.Factory.Get(a.Config.Engine)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Configuration error: %v\n", err)
		return apperrors.ExitErrorConfig
	}

	cfg := a.Config
	if cfg.Seed == 0 {
		cfg.Seed = rng.RandomSeed()
	}
	if !cfg.JSONOutput && !cfg.Quiet {
		cli.PrintExecutionConfig(cfg, cfg.Seed, out)
		cli.PrintExecutionMode(cfg.Targets, out)
	}

	results := orchestration.ExecuteFactorizations(ctx, cfg.Targets, engine, cfg, out)
	return orchestration.AnalyzeResults(results, cfg, out)
}

// runExplore lists the working periods of every target. With -d the power
// table of the reported bases follows.
func (a *Application) runExplore(ctx context.Context, out io.Writer) int {
	ctx, cleanup := SetupLifecycle(ctx, a.Config.Timeout)
	defer cleanup.Cleanup()

	var failed []orchestration.FactorizationResult
	reports := make([]models.PeriodsReport, 0, len(a.Config.Targets))
	for _, n := range a.Config.Targets {
		start := time.Now()
		bases, err := lab.FindWorkingPeriods(ctx, n, lab.ExploreOptions{Limit: a.Config.ExploreLimit, Workers: a.Config.Workers})
		if err != nil {
			if a.Config.JSONOutput {
				_ = cli.DisplayErrorJSON(out, n, orchestration.ErrorKind(err), err)
			} else {
				fmt.Fprintf(out, "%sN = %d%s\n", ui.ColorBold(), n, ui.ColorReset())
				apperrors.HandleFactorizationError(err, time.Since(start), out, cli.CLIColorProvider{})
			}
			failed = append(failed, orchestration.FactorizationResult{N: n, Err: err})
			continue
		}
		if a.Config.JSONOutput {
			reports = append(reports, models.PeriodsReport{N: n, Bases: bases})
			continue
		}
		cli.DisplayWorkingPeriods(n, bases, out)
		if a.Config.Details && len(bases) > 0 {
			fmt.Fprintln(out)
			var rows []lab.PowerRow
			for _, b := range bases {
				rows = append(rows, lab.PowerTable(n, b.X, b.X+1, cli.PowersPreview)...)
			}
			cli.DisplayPowerTable(n, rows, out)
		}
	}
	if a.Config.JSONOutput && len(reports) > 0 {
		var doc any = reports
		if len(reports) == 1 {
			doc = reports[0]
		}
		if err := cli.WriteJSON(out, doc); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error encoding report: %v\n", err)
			return apperrors.ExitErrorGeneric
		}
	}
	return orchestration.ExitCode(failed)
}

// IsHelpError reports whether err comes from -h or -help.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

// Main runs shorsim with os.Args and returns the exit code.
func Main() int {
	if HasVersionFlag(os.Args[1:]) {
		PrintVersion(os.Stdout)
		return apperrors.ExitSuccess
	}
	application, err := New(os.Args, os.Stderr)
	if err != nil {
		if IsHelpError(err) {
			return apperrors.ExitSuccess
		}
		return apperrors.ExitErrorConfig
	}
	return application.Run(context.Background(), os.Stdout)
}
