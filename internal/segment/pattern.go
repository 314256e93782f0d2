// Package segment splits text into alternating matched and unmatched runs.
package segment

import (
	"fmt"
	"regexp"
	"strings"
)

// Flags selects regular expression matching modes.
type Flags uint8

// FlagsNone selects no matching modes.
const FlagsNone Flags = 0

// Matching modes.
const (
	IgnoreCase Flags = 1 << iota // (?i)
	Multiline                    // (?m): ^ and $ match at line boundaries
	DotAll                       // (?s): . matches \n
	Ungreedy                     // (?U): swap meaning of x* and x*?
)

var flagNames = []struct {
	flag    Flags
	name    string
	inline  byte
	aliases []string
}{
	{IgnoreCase, "ignoreCase", 'i', []string{"i", "ignorecase", "ignore_case"}},
	{Multiline, "multiline", 'm', []string{"m", "multiline"}},
	{DotAll, "dotAll", 's', []string{"s", "dotall", "dot_all", "singleline"}},
	{Ungreedy, "ungreedy", 'U', []string{"u", "ungreedy"}},
}

// Has returns true if f contains flag.
func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

// String returns the flag names joined with "|".
func (f Flags) String() string {
	if f == FlagsNone {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}

// inlineGroup returns the "(?ims)" prefix for f, or "".
func (f Flags) inlineGroup() string {
	var b strings.Builder
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			b.WriteByte(fn.inline)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "(?" + b.String() + ")"
}

// ParseFlags parses flag names such as "ignoreCase" or "m".
func ParseFlags(names []string) (Flags, error) {
	var f Flags
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		flag, ok := lookupFlag(name)
		if !ok {
			return FlagsNone, fmt.Errorf("unknown regex flag %q", raw)
		}
		f |= flag
	}
	return f, nil
}

func lookupFlag(name string) (Flags, bool) {
	// "U" is case sensitive in Go regex syntax; accept it before folding.
	if name == "U" {
		return Ungreedy, true
	}
	lower := strings.ToLower(name)
	for _, fn := range flagNames {
		for _, alias := range fn.aliases {
			if lower == alias {
				return fn.flag, true
			}
		}
	}
	return FlagsNone, false
}

// Pattern is a compiled regular expression together with the source and
// flags it was built from. A Pattern is immutable.
type Pattern struct {
	source string
	flags  Flags
	re     *regexp.Regexp
}

// PatternCompileError reports a pattern source that failed to compile.
type PatternCompileError struct {
	Source string
	Flags  Flags
	Err    error
}

func (e *PatternCompileError) Error() string {
	return fmt.Sprintf("compile pattern %q (flags %s): %v", e.Source, e.Flags, e.Err)
}

func (e *PatternCompileError) Unwrap() error {
	return e.Err
}

// Compile compiles source with the given flags.
func Compile(source string, flags Flags) (*Pattern, error) {
	re, err := regexp.Compile(flags.inlineGroup() + source)
	if err != nil {
		return nil, &PatternCompileError{Source: source, Flags: flags, Err: err}
	}
	return &Pattern{source: source, flags: flags, re: re}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(source string, flags Flags) *Pattern {
	p, err := Compile(source, flags)
	if err != nil {
		panic(err)
	}
	return p
}

// Source returns the pattern source without the flag prefix.
func (p *Pattern) Source() string {
	return p.source
}

// Flags returns the matching modes the pattern was compiled with.
func (p *Pattern) Flags() Flags {
	return p.flags
}

// WithFlags recompiles the same source with different flags.
func (p *Pattern) WithFlags(flags Flags) (*Pattern, error) {
	if flags == p.flags {
		return p, nil
	}
	return Compile(p.source, flags)
}

// String returns the source.
func (p *Pattern) String() string {
	return p.source
}
