package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/agbru/shorsim/internal/shor"
	"github.com/agbru/shorsim/internal/ui"
	"github.com/agbru/shorsim/pkg/models"
)

// OutputConfig selects how a result is reported.
type OutputConfig struct {
	// OutputFile also saves the report there when set.
	OutputFile string
	// JSON prints models.FactorReport documents.
	JSON bool
	// Quiet prints "factor cofactor" only.
	Quiet bool
	// Details adds the register layout and powers of the base.
	Details bool
	// Verbose adds the attempt table.
	Verbose bool
}

// WriteResultToFile saves a report of res, creating parent directories as
// needed. It does nothing without OutputFile.
//
// Parameters:
//   - res: The successful run.
//   - seed: The seed that replays the run.
//   - cfg: Holds the output path and the detail flags.
//
// Returns:
//   - error: An error if the directory or the file cannot be written.
func WriteResultToFile(res shor.Result, seed uint64, cfg OutputConfig) error {
	if cfg.OutputFile == "" {
		return nil
	}
	if dir := filepath.Dir(cfg.OutputFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	file, err := os.Create(cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if cfg.JSON {
		return WriteJSON(file, models.NewFactorReport(res, seed, true))
	}

	fmt.Fprintf(file, "# Shor simulation result\n")
	fmt.Fprintf(file, "# Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(file, "# Run: %s\n", res.RunID)
	fmt.Fprintf(file, "# Engine: %s\n", res.Engine)
	fmt.Fprintf(file, "# Seed: %d\n", seed)
	fmt.Fprintf(file, "# Duration: %s\n", res.Duration)
	fmt.Fprintf(file, "# Tries: %d\n", res.Tries)
	fmt.Fprintf(file, "# Q: %d\n", res.Layout.Q)
	fmt.Fprintf(file, "\n")
	fmt.Fprintf(file, "%d = %d x %d\n", res.Layout.N, res.Factor, res.Cofactor)
	fmt.Fprintf(file, "base=%d period=%d measured=%d fraction=%s verified=%t\n",
		res.Base, res.Period, res.Measured, res.Fraction, res.PeriodVerified)
	return nil
}

// FormatQuietResult is the scripting form: "factor cofactor".
func FormatQuietResult(res shor.Result) string {
	return fmt.Sprintf("%d %d", res.Factor, res.Cofactor)
}

// DisplayQuietResult prints FormatQuietResult on its own line.
func DisplayQuietResult(out io.Writer, res shor.Result) {
	fmt.Fprintln(out, FormatQuietResult(res))
}

// DisplayResultWithConfig reports res in the configured mode and saves it
// when an output file is set.
func DisplayResultWithConfig(out io.Writer, res shor.Result, seed uint64, cfg OutputConfig) error {
	switch {
	case cfg.JSON:
		if err := WriteJSON(out, models.NewFactorReport(res, seed, cfg.Verbose)); err != nil {
			return err
		}
	case cfg.Quiet:
		DisplayQuietResult(out, res)
	default:
		DisplayResult(res, seed, cfg.Details, cfg.Verbose, out)
	}

	if cfg.OutputFile != "" {
		if err := WriteResultToFile(res, seed, cfg); err != nil {
			return err
		}
		if !cfg.Quiet && !cfg.JSON {
			fmt.Fprintf(out, "\n%s✓ Result saved to: %s%s%s\n",
				ui.ColorGreen(), ui.ColorCyan(), cfg.OutputFile, ui.ColorReset())
		}
	}
	return nil
}

// DisplayErrorJSON prints a models.ErrorReport for a failed run.
func DisplayErrorJSON(out io.Writer, n int, kind string, err error) error {
	return WriteJSON(out, models.NewErrorReport(n, kind, err))
}

// WriteJSON encodes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
