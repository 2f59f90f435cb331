package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/agbru/shorsim/internal/config"
	"github.com/agbru/shorsim/internal/lab"
	"github.com/agbru/shorsim/internal/shor"
	"github.com/agbru/shorsim/internal/ui"
)

// PrintExecutionConfig shows what is about to run.
func PrintExecutionConfig(cfg config.AppConfig, seed uint64, out io.Writer) {
	writeOut(out, "--- Execution Configuration ---\n")
	writeOut(out, "Factoring %s%s%s with up to %s%d%s tries each and a timeout of %s%s%s.\n",
		ui.ColorMagenta(), cfg.Targets.String(), ui.ColorReset(),
		ui.ColorYellow(), cfg.MaxTries, ui.ColorReset(),
		ui.ColorYellow(), cfg.Timeout, ui.ColorReset())
	writeOut(out, "Environment: %s%d%s logical processors, Go %s%s%s.\n",
		ui.ColorCyan(), runtime.NumCPU(), ui.ColorReset(), ui.ColorCyan(), runtime.Version(), ui.ColorReset())
	writeOut(out, "Transform: engine=%s%s%s, noise threshold=%s%g%s, parallel from q=%s%d%s.\n",
		ui.ColorCyan(), cfg.Engine, ui.ColorReset(),
		ui.ColorCyan(), cfg.NoiseThreshold, ui.ColorReset(),
		ui.ColorCyan(), cfg.ParallelThreshold, ui.ColorReset())
	writeOut(out, "Seed: %s%d%s\n", ui.ColorCyan(), seed, ui.ColorReset())
}

// PrintExecutionMode announces a single run or a batch.
func PrintExecutionMode(targets []int, out io.Writer) {
	if len(targets) > 1 {
		writeOut(out, "Execution mode: %s%d%s numbers factored concurrently.\n", ui.ColorGreen(), len(targets), ui.ColorReset())
	} else {
		writeOut(out, "Execution mode: single factorization.\n")
	}
	writeOut(out, "\n--- Starting Execution ---\n")
}

// DisplayWorkingPeriods prints the bases found by lab.FindWorkingPeriods.
func DisplayWorkingPeriods(n int, bases []lab.WorkingBase, out io.Writer) {
	if len(bases) == 0 {
		writeOut(out, "No base in range has an even period that factors %d.\n", n)
		return
	}
	writeOut(out, "%s--- Working periods for %d ---%s\n", ui.ColorBold(), n, ui.ColorReset())
	for _, b := range bases {
		parts := make([]string, len(b.Periods))
		for i, p := range b.Periods {
			mark := ""
			if p.Exact {
				mark = "*"
			}
			parts[i] = fmt.Sprintf("%d%s→%d", p.Period, mark, p.Factor)
		}
		writeOut(out, "x=%s%d%s: %s\n", ui.ColorCyan(), b.X, ui.ColorReset(), strings.Join(parts, " "))
	}
	writeOut(out, "(* marks periods p with x^p ≡ 1 mod %d)\n", n)
}

// DisplayPowerTable prints rows from lab.PowerTable.
func DisplayPowerTable(n int, rows []lab.PowerRow, out io.Writer) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%sx%s\t%sorder%s\t%sx^i mod %d%s\n",
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), n, ui.ColorReset())
	for _, r := range rows {
		order := "-"
		if r.Order > 0 {
			order = fmt.Sprint(r.Order)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", r.X, order, joinInts(r.Powers))
	}
	_ = tw.Flush()
}

// DisplayExhausted lists why each attempt of a failed run was discarded.
func DisplayExhausted(err *shor.ExhaustedError, out io.Writer) {
	counts := err.ReasonCounts()
	writeOut(out, "%d attempts failed:\n", err.Tries)
	for reason := shor.ReasonNoCoprime; reason <= shor.ReasonTrivialFactor; reason++ {
		if c := counts[reason]; c > 0 {
			writeOut(out, "  %-40s %d\n", reason.Describe(), c)
		}
	}
}

func writeOut(out io.Writer, format string, a ...any) {
	fmt.Fprintf(out, format, a...)
}
