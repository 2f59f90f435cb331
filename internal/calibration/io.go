package calibration

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/agbru/shorsim/internal/cli"
	"github.com/agbru/shorsim/internal/ui"
)

// printCalibrationResults prints the ranking, fastest first.
func printCalibrationResults(out io.Writer, ranked []Measurement) {
	fmt.Fprintf(out, "\n--- Calibration Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "  %sSetup%s\t%sMean%s\t%sStd dev%s\t\n",
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())
	fmt.Fprintf(tw, "  %s\t%s\t%s\t\n", strings.Repeat("─", 12), strings.Repeat("─", 10), strings.Repeat("─", 10))
	for i, m := range ranked {
		if !m.OK() {
			fmt.Fprintf(tw, "  %s%s%s\t%sN/A%s\t%s\t\n", ui.ColorCyan(), m.Label(), ui.ColorReset(), ui.ColorRed(), ui.ColorReset(), m.Err)
			continue
		}
		highlight := ""
		if i == 0 {
			highlight = fmt.Sprintf(" %s(Fastest)%s", ui.ColorGreen(), ui.ColorReset())
		}
		fmt.Fprintf(tw, "  %s%s%s\t%s%s%s\t± %s\t%s\n",
			ui.ColorCyan(), m.Label(), ui.ColorReset(),
			ui.ColorYellow(), cli.FormatExecutionDuration(m.Mean), ui.ColorReset(),
			cli.FormatExecutionDuration(m.StdDev), highlight)
	}
	tw.Flush()
}

// printRecommendation prints the flags matching a profile.
func printRecommendation(out io.Writer, p *CalibrationProfile) {
	flags := "-engine " + p.Engine
	if p.Engine == "parallel" {
		flags += fmt.Sprintf(" -workers %d -parallel-threshold %d", p.Workers, p.ParallelThreshold)
	}
	fmt.Fprintf(out, "\n%s✅ Recommendation for this machine: %s%s%s\n",
		ui.ColorGreen(), ui.ColorYellow(), flags, ui.ColorReset())
}
