package style

import (
	"fmt"
	"maps"
	"reflect"
	"strconv"
	"strings"
)

// ID identifies a style attribute.
type ID string

// Known attribute identifiers.
const (
	Bold          ID = "bold"
	Dim           ID = "dim"
	Italic        ID = "italic"
	Underline     ID = "underline"
	Blink         ID = "blink"
	Reverse       ID = "reverse"
	Strikethrough ID = "strikethrough"
	Foreground    ID = "foreground"
	Background    ID = "background"
)

var flagIDs = map[ID]Flag{
	Bold:          FlagBold,
	Dim:           FlagDim,
	Italic:        FlagItalic,
	Underline:     FlagUnderline,
	Blink:         FlagBlink,
	Reverse:       FlagReverse,
	Strikethrough: FlagStrikethrough,
}

// Spec assigns Value to the attribute ID.
type Spec struct {
	ID    ID
	Value any
}

// Specs is an ordered list of style assignments.
type Specs []Spec

// Resolve applies every spec in order to an empty set.
func (s Specs) Resolve() Set {
	set := make(Set, len(s))
	s.ApplyTo(set)
	return set
}

// ApplyTo applies every spec to set in list order. Later assignments to
// the same attribute overwrite earlier ones.
func (s Specs) ApplyTo(set Set) {
	for _, spec := range s {
		set[spec.ID] = spec.Value
	}
}

// Set is a resolved attribute map.
type Set map[ID]any

// Clone returns a copy of the set.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	return maps.Clone(s)
}

// Equal reports whether both sets carry the same attributes and values.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		ov, ok := other[k]
		if !ok || !reflect.DeepEqual(ov, v) {
			return false
		}
	}
	return true
}

// Style converts the set into a renderable Style. Attributes the renderer
// does not understand, and values of the wrong type, are ignored.
func (s Set) Style() Style {
	st := DefaultStyle()
	for id, v := range s {
		if flag, ok := flagIDs[id]; ok {
			if on, ok := v.(bool); ok {
				if on {
					st.Flags = st.Flags.With(flag)
				} else {
					st.Flags = st.Flags.Without(flag)
				}
			}
			continue
		}
		c, ok := v.(Color)
		if !ok {
			continue
		}
		switch id {
		case Foreground:
			st.Foreground = c
		case Background:
			st.Background = c
		}
	}
	return st
}

// SpecError reports a style entry that could not be parsed.
type SpecError struct {
	Input string
	Err   error
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("style %q: %v", e.Input, e.Err)
}

func (e *SpecError) Unwrap() error {
	return e.Err
}

// ParseValue converts a raw textual value into the typed value expected
// for id. Flag attributes take booleans, color attributes take colors;
// unknown attributes keep the raw string.
func ParseValue(id ID, raw string) (any, error) {
	if _, ok := flagIDs[id]; ok {
		if raw == "" {
			return true, nil
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	switch id {
	case Foreground, Background:
		return ParseColor(raw)
	}
	return raw, nil
}

// ParseSpec parses "attr=value" or a bare "attr" (meaning attr=true).
func ParseSpec(s string) (Spec, error) {
	name, raw, _ := strings.Cut(s, "=")
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Spec{}, &SpecError{Input: s, Err: fmt.Errorf("missing attribute")}
	}
	id := ID(name)
	v, err := ParseValue(id, strings.TrimSpace(raw))
	if err != nil {
		return Spec{}, &SpecError{Input: s, Err: err}
	}
	return Spec{ID: id, Value: v}, nil
}

// ParseSpecs parses each entry with ParseSpec.
func ParseSpecs(entries []string) (Specs, error) {
	specs := make(Specs, 0, len(entries))
	for _, e := range entries {
		spec, err := ParseSpec(e)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
