package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/agbru/shorsim/internal/ui"
)

// setCustomUsage installs a themed usage screen on fs.
func setCustomUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		t := ui.GetCurrentTheme()
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			t = ui.NoColorTheme
		}
		out := fs.Output()

		fmt.Fprintf(out, "\n%sShor Simulator%s\n", t.Bold, t.Reset)
		fmt.Fprintf(out, "Factors small odd composites with a classical simulation of Shor's algorithm.\n\n")
		fmt.Fprintf(out, "%sUsage:%s\n  %s [flags] [N ...]\n\n%sFlags:%s\n", t.Warning, t.Reset, fs.Name(), t.Warning, t.Reset)

		fs.VisitAll(func(f *flag.Flag) {
			name, usage := flag.UnquoteUsage(f)
			sig := "-" + f.Name
			if name != "" {
				sig += " " + name
			}
			fmt.Fprintf(out, "  %s%-25s%s %s", t.Primary, sig, t.Reset, usage)
			if f.DefValue != "" && f.DefValue != "0" && f.DefValue != "false" {
				fmt.Fprintf(out, " %s(default %s)%s", t.Secondary, f.DefValue, t.Reset)
			}
			fmt.Fprintln(out)
		})
		fmt.Fprintf(out, "\nEnvironment variables %s* override defaults for flags that are not given.\n\n", EnvPrefix)
	}
}
