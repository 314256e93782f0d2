// Package cmd implements the matchstyle command line interface.
package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/matchstyle/internal/app"
	"github.com/dshills/matchstyle/internal/config"
	"github.com/dshills/matchstyle/internal/logging"
	"github.com/dshills/matchstyle/internal/render"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", b.Version, b.Commit, b.Date)
}

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	pattern    string
	noPattern  bool
	flags      []string
	styles     []string
	delay      int
	terminator string
	filter     string
	color      string
	logLevel   string
	logFile    string
}

// NewRootCommand builds the command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:   "matchstyle",
		Short: "Restyle text wherever a regular expression matches",
		Long: `matchstyle applies a set of text styles to every match of a regular
expression and re-applies them whenever the text changes.

Options come from built-in defaults, then a TOML or YAML config file, then
MATCHSTYLE_* environment variables, then command line flags.

Examples:
  # Print a file with every TODO in bold red
  matchstyle print -p 'TODO' -s bold -s foreground=#ff0000 notes.txt

  # Reprint a file whenever it is saved
  matchstyle watch -c matchstyle.toml notes.txt

  # Edit a file with styles applied 300ms after typing stops
  matchstyle edit -p '\bfoo\b' -d 300 notes.txt`,
		Version:       info.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "config file (.toml, .yaml or .yml)")
	pf.StringVarP(&g.pattern, "pattern", "p", "", "regular expression to match")
	pf.BoolVar(&g.noPattern, "no-pattern", false, "clear any configured pattern")
	pf.StringSliceVarP(&g.flags, "flag", "f", nil, "matching flags: ignoreCase, multiline, dotAll, ungreedy (or i, m, s, U)")
	pf.StringArrayVarP(&g.styles, "style", "s", nil, "style applied to matches, as attribute or attribute=value (repeatable)")
	pf.IntVarP(&g.delay, "delay", "d", 0, "change delay in milliseconds: negative for manual, 0 for immediate")
	pf.StringVar(&g.terminator, "terminator", "", `trailing sequence stripped before matching (escapes allowed, e.g. "\n")`)
	pf.StringVar(&g.filter, "filter-script", "", "Lua file whose accept(text, start, stop) decides which matches are styled")
	pf.StringVar(&g.color, "color", "auto", "colour output: auto, always or never")
	pf.StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&g.logFile, "log-file", "", "write logs to this file instead of stderr")

	root.AddCommand(
		newPrintCommand(g),
		newWatchCommand(g),
		newEditCommand(g),
		newConfigCommand(g),
	)
	return root
}

// resolve merges defaults, the config file, the environment and the flags
// set on cmd, and validates the result.
func (g *globalOptions) resolve(cmd *cobra.Command) (config.Options, error) {
	opts, err := config.Load(g.configPath)
	if err != nil {
		return opts, err
	}
	if err := config.LoadEnv(&opts); err != nil {
		return opts, err
	}
	if err := config.ApplyEnv(&opts, g.flagLookup(cmd)); err != nil {
		return opts, err
	}
	if g.noPattern {
		opts.Pattern = nil
	}
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

// flagLookup presents the flags the user set under the environment
// variable names, so they go through the same parsing as the environment.
func (g *globalOptions) flagLookup(cmd *cobra.Command) config.LookupFunc {
	fs := cmd.Flags()
	values := make(map[string]string)

	if fs.Changed("pattern") {
		values[config.EnvPattern] = g.pattern
	}
	if fs.Changed("flag") {
		values[config.EnvFlags] = strings.Join(g.flags, ",")
	}
	if fs.Changed("style") {
		values[config.EnvStyles] = strings.Join(g.styles, ",")
	}
	if fs.Changed("delay") {
		values[config.EnvChangeDelayMs] = strconv.Itoa(g.delay)
	}
	if fs.Changed("terminator") {
		values[config.EnvTerminator] = g.terminator
	}
	if fs.Changed("filter-script") {
		values[config.EnvFilterScript] = g.filter
	}
	if fs.Changed("log-level") {
		values[config.EnvLogLevel] = g.logLevel
	}

	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

// logger builds the session logger. fallback is used when no log file is
// configured; the editor passes io.Discard because it owns the terminal.
func (g *globalOptions) logger(opts config.Options, fallback io.Writer) (*logging.Logger, func(), error) {
	level, err := opts.Level()
	if err != nil {
		return nil, nil, err
	}

	out := fallback
	closeFn := func() {}
	if g.logFile != "" {
		f, err := os.OpenFile(g.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closeFn = func() { _ = f.Close() }
	}

	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Output = out
	l := logging.New(cfg)
	logging.SetDefault(l)
	return l, closeFn, nil
}

func (g *globalOptions) colorMode() (render.ColorMode, error) {
	return render.ParseColorMode(g.color)
}

// newSession resolves options, applies overrides and builds an App.
func (g *globalOptions) newSession(cmd *cobra.Command, logOut io.Writer, override func(*config.Options)) (*app.App, func(), error) {
	opts, err := g.resolve(cmd)
	if err != nil {
		return nil, nil, err
	}
	if override != nil {
		override(&opts)
	}

	log, closeLog, err := g.logger(opts, logOut)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.New(opts, app.WithLogger(log))
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	return a, func() {
		a.Shutdown()
		closeLog()
	}, nil
}

// readInput reads path, or standard input when path is empty or "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}
