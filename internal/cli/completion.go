package cli

import (
	"fmt"
	"io"
	"strings"
)

// completionFlag describes one flag for the completion scripts. Values
// lists suggested arguments; "@engines" and "@shells" expand at generation
// time and File marks path arguments.
type completionFlag struct {
	Short  string
	Long   string
	Desc   string
	Arg    bool
	File   bool
	Values []string
}

var completionFlags = []completionFlag{
	{Short: "h", Long: "help", Desc: "Show help message"},
	{Short: "V", Long: "version", Desc: "Show version information"},
	{Short: "n", Desc: "Number(s) to factor", Arg: true},
	{Long: "tries", Desc: "Maximum attempts per number", Arg: true, Values: []string{"10", "50", "100"}},
	{Long: "seed", Desc: "Random seed", Arg: true},
	{Long: "engine", Desc: "Transform engine", Arg: true, Values: []string{"@engines"}},
	{Long: "workers", Desc: "Parallel engine goroutines", Arg: true, Values: []string{"0", "2", "4", "8"}},
	{Long: "noise", Desc: "Amplitude noise threshold", Arg: true, Values: []string{"1e-11", "1e-9"}},
	{Long: "parallel-threshold", Desc: "Register size for the parallel engine", Arg: true, Values: []string{"256", "1024", "4096"}},
	{Long: "timeout", Desc: "Maximum execution time", Arg: true, Values: []string{"30s", "1m", "5m", "10m"}},
	{Short: "d", Long: "details", Desc: "Show register layout"},
	{Short: "v", Desc: "Show every attempt"},
	{Long: "json", Desc: "Output in JSON format"},
	{Short: "q", Long: "quiet", Desc: "Print only the factors"},
	{Long: "no-color", Desc: "Disable colored output"},
	{Short: "o", Long: "output", Desc: "Output file path", Arg: true, File: true},
	{Long: "server", Desc: "Start HTTP server mode"},
	{Long: "port", Desc: "Server port", Arg: true, Values: []string{"8080", "3000", "9000"}},
	{Long: "interactive", Desc: "Start interactive REPL mode"},
	{Long: "explore", Desc: "List working periods"},
	{Long: "explore-limit", Desc: "Bases listed by -explore", Arg: true, Values: []string{"3", "5", "10"}},
	{Long: "calibrate", Desc: "Benchmark the engines"},
	{Long: "auto-calibrate", Desc: "Quick benchmark at startup"},
	{Long: "calibration-profile", Desc: "Calibration profile file", Arg: true, File: true},
	{Long: "completion", Desc: "Generate completion script", Arg: true, Values: []string{"@shells"}},
}

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

// GenerateCompletion writes a completion script for shell ("bash", "zsh",
// "fish" or "powershell"; "ps" is accepted too). engines are suggested
// after -engine.
//
// Parameters:
//   - out: Destination of the script.
//   - shell: One of bash, zsh, fish or powershell.
//   - engines: Engine names offered for -engine.
//
// Returns:
//   - error: An error for an unsupported shell.
func GenerateCompletion(out io.Writer, shell string, engines []string) error {
	var script string
	switch shell {
	case "bash":
		script = bashCompletion(engines)
	case "zsh":
		script = zshCompletion(engines)
	case "fish":
		script = fishCompletion(engines)
	case "powershell", "ps":
		script = powerShellCompletion(engines)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: %s)", shell, strings.Join(completionShells, ", "))
	}
	_, err := io.WriteString(out, script)
	return err
}

func (f completionFlag) names() []string {
	var names []string
	if f.Short != "" {
		names = append(names, "-"+f.Short)
	}
	if f.Long != "" {
		names = append(names, "--"+f.Long)
	}
	return names
}

func (f completionFlag) values(engines []string) []string {
	var out []string
	for _, v := range f.Values {
		switch v {
		case "@engines":
			out = append(out, engines...)
		case "@shells":
			out = append(out, completionShells...)
		default:
			out = append(out, v)
		}
	}
	return out
}

func bashCompletion(engines []string) string {
	var opts []string
	var cases strings.Builder
	for _, f := range completionFlags {
		opts = append(opts, f.names()...)
		switch {
		case f.File:
			fmt.Fprintf(&cases, "        %s)\n            COMPREPLY=( $(compgen -f -- \"${cur}\") )\n            return 0\n            ;;\n",
				strings.Join(f.names(), "|"))
		case len(f.Values) > 0:
			fmt.Fprintf(&cases, "        %s)\n            COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n            return 0\n            ;;\n",
				strings.Join(f.names(), "|"), strings.Join(f.values(engines), " "))
		}
	}

	var b strings.Builder
	b.WriteString("# Bash completion script for shorsim\n# Add this to your ~/.bashrc or ~/.bash_completion\n\n")
	b.WriteString("_shorsim_completions() {\n")
	b.WriteString("    local cur prev opts\n    COMPREPLY=()\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	fmt.Fprintf(&b, "    opts=\"%s\"\n\n", strings.Join(opts, " "))
	b.WriteString("    case \"${prev}\" in\n")
	b.WriteString(cases.String())
	b.WriteString("    esac\n\n")
	b.WriteString("    if [[ \"${cur}\" == -* ]]; then\n        COMPREPLY=( $(compgen -W \"${opts}\" -- \"${cur}\") )\n        return 0\n    fi\n}\n\n")
	b.WriteString("complete -F _shorsim_completions shorsim\n")
	return b.String()
}

func zshCompletion(engines []string) string {
	var b strings.Builder
	b.WriteString("#compdef shorsim\n\n# Zsh completion script for shorsim\n# Add this to your ~/.zshrc or place in $fpath\n\n")
	b.WriteString("_shorsim() {\n    _arguments -s \\\n")
	for i, f := range completionFlags {
		names := f.names()
		var spec string
		if len(names) == 2 {
			spec = fmt.Sprintf("'(%s)'{%s}'[%s]", strings.Join(names, " "), strings.Join(names, ","), f.Desc)
		} else {
			spec = fmt.Sprintf("'%s[%s]", names[0], f.Desc)
		}
		switch {
		case f.File:
			spec += ":file:_files"
		case len(f.Values) > 0:
			spec += fmt.Sprintf(":value:(%s)", strings.Join(f.values(engines), " "))
		case f.Arg:
			spec += ":value:"
		}
		spec += "'"
		if i < len(completionFlags)-1 {
			spec += " \\"
		}
		b.WriteString("        " + spec + "\n")
	}
	b.WriteString("}\n\n_shorsim \"$@\"\n")
	return b.String()
}

func fishCompletion(engines []string) string {
	var b strings.Builder
	b.WriteString("# Fish completion script for shorsim\n# Add this to ~/.config/fish/completions/shorsim.fish\n\n")
	b.WriteString("complete -c shorsim -f\n")
	for _, f := range completionFlags {
		line := "complete -c shorsim"
		if f.Short != "" {
			line += " -s " + f.Short
		}
		if f.Long != "" {
			line += " -l " + f.Long
		}
		line += fmt.Sprintf(" -d '%s'", f.Desc)
		switch {
		case f.File:
			line += " -rF"
		case len(f.Values) > 0:
			line += fmt.Sprintf(" -xa '%s'", strings.Join(f.values(engines), " "))
		case f.Arg:
			line += " -x"
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func powerShellCompletion(engines []string) string {
	var b strings.Builder
	b.WriteString("# PowerShell completion script for shorsim\n# Add this to your $PROFILE\n\n")
	b.WriteString("Register-ArgumentCompleter -CommandName 'shorsim' -Native -ScriptBlock {\n")
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n\n    $options = @(\n")
	var values strings.Builder
	for _, f := range completionFlags {
		for _, name := range f.names() {
			fmt.Fprintf(&b, "        @{Name = '%s'; Description = '%s' }\n", name, f.Desc)
		}
		if vals := f.values(engines); len(vals) > 0 {
			quoted := make([]string, len(vals))
			for i, v := range vals {
				quoted[i] = "'" + v + "'"
			}
			for _, name := range f.names() {
				fmt.Fprintf(&values, "        '%s' { $values = @(%s) }\n", name, strings.Join(quoted, ", "))
			}
		}
	}
	b.WriteString("    )\n\n")
	b.WriteString("    $elements = $commandAst.CommandElements\n")
	b.WriteString("    $prevElement = if ($elements.Count -gt 2) { $elements[-2].ToString() } else { '' }\n")
	b.WriteString("    $values = $null\n    switch ($prevElement) {\n")
	b.WriteString(values.String())
	b.WriteString("    }\n")
	b.WriteString("    if ($values) {\n        $values | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)\n        }\n        return\n    }\n\n")
	b.WriteString("    $options | Where-Object { $_.Name -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("        [System.Management.Automation.CompletionResult]::new($_.Name, $_.Name, 'ParameterName', $_.Description)\n    }\n}\n")
	return b.String()
}
