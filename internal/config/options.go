// Package config loads matchstyle options from TOML or YAML files and the
// environment, and installs them on a behaviour.
//
// Precedence, lowest to highest: built-in defaults, the config file,
// MATCHSTYLE_* environment variables, command line flags (applied by the
// caller).
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/matchstyle/internal/behaviour"
	"github.com/dshills/matchstyle/internal/logging"
	"github.com/dshills/matchstyle/internal/segment"
	"github.com/dshills/matchstyle/internal/style"
)

// StyleEntry is one attribute assignment as written in a config file.
// Value may be a string, bool or integer; it is parsed by attribute.
type StyleEntry struct {
	Attribute string `toml:"attribute" yaml:"attribute"`
	Value     any    `toml:"value" yaml:"value"`
}

// Options is the recognised configuration surface.
type Options struct {
	// Pattern is the source regular expression. Nil disables restyling.
	Pattern *string `toml:"pattern" yaml:"pattern"`

	// Flags are matching flag names, e.g. "ignoreCase" or "m".
	Flags []string `toml:"flags" yaml:"flags"`

	// Styles are applied to every matched run, in order.
	Styles []StyleEntry `toml:"styles" yaml:"styles"`

	// ChangeDelayMs is negative for manual only, zero for immediate and
	// positive for a debounce window.
	ChangeDelayMs int `toml:"change_delay_ms" yaml:"change_delay_ms"`

	// Terminator is the trailing sequence stripped before matching.
	Terminator string `toml:"terminator" yaml:"terminator"`

	// FilterScript is a Lua file whose accept function decides which
	// matches are styled. Empty styles every match.
	FilterScript string `toml:"filter_script" yaml:"filter_script"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level" yaml:"log_level"`
}

// Default returns the built-in defaults.
func Default() Options {
	return Options{
		Terminator: behaviour.DefaultTerminator,
		LogLevel:   "info",
	}
}

// ParsedFlags converts Flags into segment flags.
func (o Options) ParsedFlags() (segment.Flags, error) {
	return segment.ParseFlags(o.Flags)
}

// StyleSpecs converts Styles into typed style specs. Attribute names are
// matched case-insensitively, as on the command line.
func (o Options) StyleSpecs() (style.Specs, error) {
	specs := make(style.Specs, 0, len(o.Styles))
	for _, e := range o.Styles {
		name := strings.ToLower(strings.TrimSpace(e.Attribute))
		if name == "" {
			return nil, &style.SpecError{Input: e.Attribute, Err: errors.New("missing attribute")}
		}
		id := style.ID(name)
		raw := ""
		if e.Value != nil {
			raw = strings.TrimSpace(fmt.Sprint(e.Value))
		}
		v, err := style.ParseValue(id, raw)
		if err != nil {
			return nil, &style.SpecError{Input: e.Attribute + "=" + raw, Err: err}
		}
		specs = append(specs, style.Spec{ID: id, Value: v})
	}
	return specs, nil
}

// Level parses LogLevel.
func (o Options) Level() (logging.Level, error) {
	return logging.ParseLevel(o.LogLevel)
}

// Validate reports every problem with the options, joined.
func (o Options) Validate() error {
	var errs []error

	flags, err := o.ParsedFlags()
	if err != nil {
		errs = append(errs, err)
	}
	if o.Pattern != nil {
		if _, err := segment.Compile(*o.Pattern, flags); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := o.StyleSpecs(); err != nil {
		errs = append(errs, err)
	}
	if _, err := o.Level(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// BehaviourOptions returns the construction-time options for a behaviour.
func (o Options) BehaviourOptions() []behaviour.Option {
	return []behaviour.Option{
		behaviour.WithTerminator(o.Terminator),
		behaviour.WithChangeDelay(o.ChangeDelayMs),
	}
}

// Apply installs flags, pattern, styles and delay on b. It stops at the
// first error, which for a bad pattern is a *segment.PatternCompileError.
func (o Options) Apply(b *behaviour.Behaviour) error {
	flags, err := o.ParsedFlags()
	if err != nil {
		return fmt.Errorf("config: flags: %w", err)
	}
	specs, err := o.StyleSpecs()
	if err != nil {
		return fmt.Errorf("config: styles: %w", err)
	}

	if err := b.SetFlags(flags); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := b.SetPattern(o.Pattern); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	b.SetStyleSpecs(specs)
	b.SetChangeDelay(o.ChangeDelayMs)
	return nil
}
