package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix is the prefix of every recognised environment variable.
const EnvPrefix = "MATCHSTYLE_"

// Environment variables read by ApplyEnv.
const (
	EnvPattern       = EnvPrefix + "PATTERN"
	EnvFlags         = EnvPrefix + "FLAGS"
	EnvStyles        = EnvPrefix + "STYLES"
	EnvChangeDelayMs = EnvPrefix + "CHANGE_DELAY_MS"
	EnvTerminator    = EnvPrefix + "TERMINATOR"
	EnvFilterScript  = EnvPrefix + "FILTER_SCRIPT"
	EnvLogLevel      = EnvPrefix + "LOG_LEVEL"
)

// LookupFunc looks up an environment variable.
type LookupFunc func(key string) (string, bool)

// LoadEnv applies the process environment to opts.
func LoadEnv(opts *Options) error {
	return ApplyEnv(opts, os.LookupEnv)
}

// ApplyEnv overrides opts with every variable lookup finds.
// Note: Empty string values are treated as valid values, not as unset.
//
// Lists are comma separated: MATCHSTYLE_FLAGS=ignoreCase,multiline and
// MATCHSTYLE_STYLES=bold,foreground=#ff0000. MATCHSTYLE_TERMINATOR accepts
// Go escape sequences such as \n.
func ApplyEnv(opts *Options, lookup LookupFunc) error {
	if v, ok := lookup(EnvPattern); ok {
		opts.Pattern = &v
	}

	if v, ok := lookup(EnvFlags); ok {
		opts.Flags = splitList(v)
	}

	if v, ok := lookup(EnvStyles); ok {
		entries := splitList(v)
		styles := make([]StyleEntry, 0, len(entries))
		for _, e := range entries {
			attr, value, _ := strings.Cut(e, "=")
			styles = append(styles, StyleEntry{Attribute: strings.TrimSpace(attr), Value: strings.TrimSpace(value)})
		}
		opts.Styles = styles
	}

	if v, ok := lookup(EnvChangeDelayMs); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvChangeDelayMs, v, err)
		}
		opts.ChangeDelayMs = n
	}

	if v, ok := lookup(EnvTerminator); ok {
		opts.Terminator = unescape(v)
	}

	if v, ok := lookup(EnvFilterScript); ok {
		opts.FilterScript = v
	}

	if v, ok := lookup(EnvLogLevel); ok {
		opts.LogLevel = v
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// unescape interprets Go escape sequences, falling back to the raw value.
func unescape(s string) string {
	if u, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return u
	}
	return s
}
