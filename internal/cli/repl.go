package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/agbru/shorsim/internal/errors"
	"github.com/agbru/shorsim/internal/lab"
	"github.com/agbru/shorsim/internal/rng"
	"github.com/agbru/shorsim/internal/service"
	"github.com/agbru/shorsim/internal/shor"
	"github.com/agbru/shorsim/internal/ui"
)

// REPLConfig holds the session defaults.
type REPLConfig struct {
	Engine   string
	MaxTries int
	// Seed fixes every run's random source; 0 draws a new seed per run.
	Seed    uint64
	Timeout time.Duration
	Details bool
}

// REPL is an interactive factoring session.
type REPL struct {
	config  REPLConfig
	service service.Service
	in      io.Reader
	out     io.Writer
}

// NewREPL returns a session backed by svc, reading stdin and writing
// stdout.
//
// Parameters:
//   - svc: The service that runs factorisations and explorations.
//   - config: The initial engine, budget, seed and timeout.
//
// Returns:
//   - *REPL: A session reading stdin and writing stdout until changed.
func NewREPL(svc service.Service, config REPLConfig) *REPL {
	if config.Engine == "" {
		if engines := svc.Engines(); len(engines) > 0 {
			config.Engine = engines[0]
		}
	}
	if config.Timeout <= 0 {
		config.Timeout = time.Minute
	}
	return &REPL{config: config, service: svc, in: os.Stdin, out: os.Stdout}
}

// SetInput replaces stdin.
func (r *REPL) SetInput(in io.Reader) { r.in = in }

// SetOutput replaces stdout.
func (r *REPL) SetOutput(out io.Writer) { r.out = out }

// Start runs the session until exit, EOF, or a number of 2 or less.
func (r *REPL) Start() {
	r.printBanner()
	r.printHelp()
	fmt.Fprintln(r.out)

	reader := bufio.NewReader(r.in)
	for {
		fmt.Fprint(r.out, ui.ColorGreen()+"shor> "+ui.ColorReset())

		input, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			fmt.Fprintf(r.out, "%sRead error: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
			continue
		}
		if line := strings.TrimSpace(input); line != "" {
			if !r.processCommand(line) {
				return
			}
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.out, "\nGoodbye!")
			return
		}
	}
}

func (r *REPL) printBanner() {
	fmt.Fprintf(r.out, "\n%s╔══════════════════════════════════════════════════════════╗%s\n", ui.ColorCyan(), ui.ColorReset())
	fmt.Fprintf(r.out, "%s║%s     %sShor Simulator - Interactive Mode%s                    %s║%s\n",
		ui.ColorCyan(), ui.ColorReset(), ui.ColorBold(), ui.ColorReset(), ui.ColorCyan(), ui.ColorReset())
	fmt.Fprintf(r.out, "%s╚══════════════════════════════════════════════════════════╝%s\n\n", ui.ColorCyan(), ui.ColorReset())
	fmt.Fprintf(r.out, "Enter an odd, non-prime N to factor, or N <= 2 to leave.\n\n")
}

func (r *REPL) printHelp() {
	cmd := func(name, desc string) {
		fmt.Fprintf(r.out, "  %s%-22s%s - %s\n", ui.ColorYellow(), name, ui.ColorReset(), desc)
	}
	fmt.Fprintf(r.out, "%sAvailable commands:%s\n", ui.ColorBold(), ui.ColorReset())
	cmd("factor <n>", "Factor n with the current engine (or just type n)")
	cmd("compare <n>", "Factor n with every engine and the same seed")
	cmd("engine <name>", "Change engine ("+strings.Join(r.service.Engines(), ", ")+")")
	cmd("engines", "List available engines")
	cmd("tries <k>", "Set the attempt budget")
	cmd("seed <s>", "Fix the random seed (0 draws one per run)")
	cmd("details", "Toggle layout and attempt details")
	cmd("explore <n> [limit]", "List bases whose even periods factor n")
	cmd("powers <n> [x] [count]", "Print x^i mod n for a few bases")
	cmd("status", "Display current configuration")
	cmd("help", "Display this help")
	cmd("exit / quit", "Exit interactive mode")
}

// processCommand runs one line and reports whether the session goes on.
func (r *REPL) processCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "factor", "f":
		if n, ok := r.intArg(args, 0, "factor <n>"); ok {
			r.factor(n)
		}
	case "compare", "cmp":
		if n, ok := r.intArg(args, 0, "compare <n>"); ok {
			r.compare(n)
		}
	case "engine", "e":
		r.cmdEngine(args)
	case "engines", "ls":
		r.cmdEngines()
	case "tries", "t":
		if k, ok := r.intArg(args, 0, "tries <k>"); ok {
			if k <= 0 {
				fmt.Fprintf(r.out, "%sThe budget must be positive.%s\n", ui.ColorRed(), ui.ColorReset())
				break
			}
			r.config.MaxTries = k
			fmt.Fprintf(r.out, "Attempt budget: %s%d%s\n", ui.ColorGreen(), k, ui.ColorReset())
		}
	case "seed":
		r.cmdSeed(args)
	case "details", "d":
		r.config.Details = !r.config.Details
		fmt.Fprintf(r.out, "Details: %s%s%s\n", ui.ColorGreen(), onOff(r.config.Details), ui.ColorReset())
	case "explore", "x":
		r.cmdExplore(args)
	case "powers", "p":
		r.cmdPowers(args)
	case "status", "st":
		r.cmdStatus()
	case "help", "h", "?":
		r.printHelp()
	case "exit", "quit", "q":
		fmt.Fprintf(r.out, "%sGoodbye!%s\n", ui.ColorGreen(), ui.ColorReset())
		return false
	default:
		n, err := strconv.Atoi(cmd)
		if err != nil {
			fmt.Fprintf(r.out, "%sUnknown command: %s%s\n", ui.ColorRed(), cmd, ui.ColorReset())
			fmt.Fprintf(r.out, "Type %shelp%s to see available commands.\n", ui.ColorYellow(), ui.ColorReset())
			return true
		}
		if n <= 2 {
			fmt.Fprintf(r.out, "%sGoodbye!%s\n", ui.ColorGreen(), ui.ColorReset())
			return false
		}
		r.factor(n)
	}
	return true
}

func (r *REPL) intArg(args []string, i int, usage string) (int, bool) {
	if len(args) <= i {
		fmt.Fprintf(r.out, "%sUsage: %s%s\n", ui.ColorRed(), usage, ui.ColorReset())
		return 0, false
	}
	v, err := strconv.Atoi(args[i])
	if err != nil {
		fmt.Fprintf(r.out, "%sInvalid value: %s%s\n", ui.ColorRed(), args[i], ui.ColorReset())
		return 0, false
	}
	return v, true
}

func (r *REPL) run(n int, engine string, seed uint64) (service.Response, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeout)
	defer cancel()
	return r.service.Factorize(ctx, service.Request{
		N:        n,
		Engine:   engine,
		Seed:     seed,
		MaxTries: r.config.MaxTries,
	})
}

func (r *REPL) factor(n int) {
	fmt.Fprintf(r.out, "Factoring %s%d%s with %s%s%s...\n",
		ui.ColorMagenta(), n, ui.ColorReset(), ui.ColorCyan(), r.config.Engine, ui.ColorReset())

	start := time.Now()
	resp, err := r.run(n, r.config.Engine, r.config.Seed)
	if err != nil {
		r.reportError(err, time.Since(start))
		return
	}
	fmt.Fprintln(r.out)
	DisplayResult(resp.Result, resp.Seed, r.config.Details, r.config.Details, r.out)
	fmt.Fprintln(r.out)
}

func (r *REPL) reportError(err error, elapsed time.Duration) {
	if errors.Is(err, service.ErrMaxValueExceeded) || errors.Is(err, service.ErrMaxTriesExceeded) {
		fmt.Fprintf(r.out, "%sError: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
		return
	}
	apperrors.HandleFactorizationError(err, elapsed, r.out, CLIColorProvider{})
	var exhausted *shor.ExhaustedError
	if errors.As(err, &exhausted) {
		DisplayExhausted(exhausted, r.out)
	}
}

// compare runs every engine with one shared seed. Engines are
// interchangeable, so the factors must agree.
func (r *REPL) compare(n int) {
	seed := r.config.Seed
	if seed == 0 {
		seed = rng.RandomSeed()
	}
	fmt.Fprintf(r.out, "\n%sComparison for %d (seed %d):%s\n", ui.ColorBold(), n, seed, ui.ColorReset())
	fmt.Fprintf(r.out, "%s─────────────────────────────────────────────%s\n", ui.ColorCyan(), ui.ColorReset())

	first := ""
	for _, name := range r.service.Engines() {
		start := time.Now()
		resp, err := r.run(n, name, seed)
		elapsed := time.Since(start)
		if err != nil {
			fmt.Fprintf(r.out, "  %s%-10s%s: %sError - %v%s\n",
				ui.ColorYellow(), name, ui.ColorReset(), ui.ColorRed(), err, ui.ColorReset())
			continue
		}
		got := FormatQuietResult(resp.Result)
		if first == "" {
			first = got
		}
		status := ui.ColorGreen() + "✓" + ui.ColorReset()
		if got != first {
			status = ui.ColorRed() + "✗ INCONSISTENT" + ui.ColorReset()
		}
		fmt.Fprintf(r.out, "  %s%-10s%s: %s %s%12s%s %s\n",
			ui.ColorYellow(), name, ui.ColorReset(), got,
			ui.ColorCyan(), FormatExecutionDuration(elapsed), ui.ColorReset(), status)
	}
	fmt.Fprintf(r.out, "%s─────────────────────────────────────────────%s\n\n", ui.ColorCyan(), ui.ColorReset())
}

func (r *REPL) cmdEngine(args []string) {
	engines := r.service.Engines()
	if len(args) == 0 {
		fmt.Fprintf(r.out, "%sUsage: engine <name>%s\n", ui.ColorRed(), ui.ColorReset())
		fmt.Fprintf(r.out, "Available engines: %s\n", strings.Join(engines, ", "))
		return
	}
	name := strings.ToLower(args[0])
	if !slices.Contains(engines, name) {
		fmt.Fprintf(r.out, "%sUnknown engine: %s%s\n", ui.ColorRed(), name, ui.ColorReset())
		fmt.Fprintf(r.out, "Available engines: %s\n", strings.Join(engines, ", "))
		return
	}
	r.config.Engine = name
	fmt.Fprintf(r.out, "Engine changed to: %s%s%s\n", ui.ColorGreen(), name, ui.ColorReset())
}

func (r *REPL) cmdEngines() {
	fmt.Fprintf(r.out, "\n%sAvailable engines:%s\n", ui.ColorBold(), ui.ColorReset())
	for _, name := range r.service.Engines() {
		marker := "  "
		if name == r.config.Engine {
			marker = ui.ColorGreen() + "► " + ui.ColorReset()
		}
		fmt.Fprintf(r.out, "%s%s%s%s\n", marker, ui.ColorYellow(), name, ui.ColorReset())
	}
	fmt.Fprintln(r.out)
}

func (r *REPL) cmdSeed(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "%sUsage: seed <s>%s\n", ui.ColorRed(), ui.ColorReset())
		return
	}
	seed, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(r.out, "%sInvalid value: %s%s\n", ui.ColorRed(), args[0], ui.ColorReset())
		return
	}
	r.config.Seed = seed
	if seed == 0 {
		fmt.Fprintf(r.out, "Seed: %srandom%s\n", ui.ColorGreen(), ui.ColorReset())
		return
	}
	fmt.Fprintf(r.out, "Seed: %s%d%s\n", ui.ColorGreen(), seed, ui.ColorReset())
}

func (r *REPL) cmdExplore(args []string) {
	n, ok := r.intArg(args, 0, "explore <n> [limit]")
	if !ok {
		return
	}
	limit := 0
	if len(args) > 1 {
		if limit, ok = r.intArg(args, 1, "explore <n> [limit]"); !ok {
			return
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeout)
	defer cancel()
	bases, err := r.service.Explore(ctx, n, limit)
	if err != nil {
		fmt.Fprintf(r.out, "%sError: %v%s\n", ui.ColorRed(), err, ui.ColorReset())
		return
	}
	DisplayWorkingPeriods(n, bases, r.out)
}

func (r *REPL) cmdPowers(args []string) {
	const usage = "powers <n> [x] [count]"
	n, ok := r.intArg(args, 0, usage)
	if !ok {
		return
	}
	if n < 3 {
		fmt.Fprintf(r.out, "%sn must be at least 3.%s\n", ui.ColorRed(), ui.ColorReset())
		return
	}
	from, to := 2, min(n, 7)
	if len(args) > 1 {
		x, ok := r.intArg(args, 1, usage)
		if !ok {
			return
		}
		from, to = x, x+1
	}
	count := PowersPreview
	if len(args) > 2 {
		if count, ok = r.intArg(args, 2, usage); !ok {
			return
		}
	}
	DisplayPowerTable(n, lab.PowerTable(n, from, to, count), r.out)
}

func (r *REPL) cmdStatus() {
	seed := "random"
	if r.config.Seed != 0 {
		seed = strconv.FormatUint(r.config.Seed, 10)
	}
	tries := "default"
	if r.config.MaxTries > 0 {
		tries = strconv.Itoa(r.config.MaxTries)
	}
	fmt.Fprintf(r.out, "\n%sCurrent configuration:%s\n", ui.ColorBold(), ui.ColorReset())
	fmt.Fprintf(r.out, "  Engine:   %s%s%s\n", ui.ColorCyan(), r.config.Engine, ui.ColorReset())
	fmt.Fprintf(r.out, "  Tries:    %s%s%s\n", ui.ColorCyan(), tries, ui.ColorReset())
	fmt.Fprintf(r.out, "  Seed:     %s%s%s\n", ui.ColorCyan(), seed, ui.ColorReset())
	fmt.Fprintf(r.out, "  Timeout:  %s%s%s\n", ui.ColorCyan(), r.config.Timeout, ui.ColorReset())
	fmt.Fprintf(r.out, "  Details:  %s%s%s\n", ui.ColorCyan(), onOff(r.config.Details), ui.ColorReset())
	fmt.Fprintln(r.out)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
