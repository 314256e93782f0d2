// Package style describes how matched text is decorated.
//
// A Spec pairs an attribute identifier with a value. An ordered Specs list
// resolves into a Set (later entries overwrite earlier ones for the same
// attribute), and a Set converts into a renderable Style.
package style

import (
	"fmt"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Flag represents text attribute flags (bold, italic, etc.).
type Flag uint16

// FlagNone is the empty attribute set.
const FlagNone Flag = 0

// Text attribute flags.
const (
	FlagBold          Flag = 1 << iota
	FlagDim                // Faint/dim text
	FlagItalic             // Italic text
	FlagUnderline          // Underlined text
	FlagBlink              // Blinking text (rarely supported)
	FlagReverse            // Reverse video (swap fg/bg)
	FlagStrikethrough      // Strikethrough text
)

// Has returns true if the flag set contains the given flag.
func (f Flag) Has(flag Flag) bool {
	return f&flag != 0
}

// With returns a new flag set with the given flag added.
func (f Flag) With(flag Flag) Flag {
	return f | flag
}

// Without returns a new flag set with the given flag removed.
func (f Flag) Without(flag Flag) Flag {
	return f &^ flag
}

// Color represents a color value.
// Supports true color (RGB) and terminal palette colors.
type Color struct {
	R, G, B uint8
	// If Indexed is true, R contains the palette index (0-255).
	Indexed bool
	// Default indicates this is the terminal's default color.
	Default bool
}

// ColorDefault represents the terminal's default color.
var ColorDefault = Color{Default: true}

// namedColors maps the basic color names accepted in configuration.
var namedColors = map[string]Color{
	"black":   {R: 0, G: 0, B: 0},
	"white":   {R: 255, G: 255, B: 255},
	"red":     {R: 255, G: 0, B: 0},
	"green":   {R: 0, G: 255, B: 0},
	"blue":    {R: 0, G: 0, B: 255},
	"yellow":  {R: 255, G: 255, B: 0},
	"cyan":    {R: 0, G: 255, B: 255},
	"magenta": {R: 255, G: 0, B: 255},
	"gray":    {R: 128, G: 128, B: 128},
}

// ColorFromRGB creates a true color from RGB components.
func ColorFromRGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// ColorFromIndex creates an indexed palette color.
func ColorFromIndex(index uint8) Color {
	return Color{R: index, Indexed: true}
}

// ColorFromHex creates a color from a "#rgb" or "#rrggbb" string.
func ColorFromHex(hex string) (Color, error) {
	h := strings.TrimPrefix(hex, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	c, err := colorful.Hex("#" + h)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return ColorFromRGB(r, g, b), nil
}

// ParseColor accepts "default", a basic color name, a hex string or a
// palette index.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if lower == "" || lower == "default" {
		return ColorDefault, nil
	}
	if c, ok := namedColors[lower]; ok {
		return c, nil
	}
	if strings.HasPrefix(s, "#") {
		return ColorFromHex(s)
	}
	idx, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	return ColorFromIndex(uint8(idx)), nil
}

// IsDefault returns true if this is the default/transparent color.
func (c Color) IsDefault() bool {
	return c.Default
}

// String returns a string representation of the color.
func (c Color) String() string {
	if c.IsDefault() {
		return "default"
	}
	if c.Indexed {
		return fmt.Sprintf("idx(%d)", c.R)
	}
	return c.Hex()
}

// Hex returns the "#RRGGBB" form of a true color, or "" for other colors.
func (c Color) Hex() string {
	if c.Indexed || c.Default {
		return ""
	}
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Style represents the visual style of text.
type Style struct {
	Foreground Color
	Background Color
	Flags      Flag
}

// DefaultStyle returns the default terminal style.
func DefaultStyle() Style {
	return Style{
		Foreground: ColorDefault,
		Background: ColorDefault,
		Flags:      FlagNone,
	}
}

// IsDefault reports whether s renders as plain text.
func (s Style) IsDefault() bool {
	return s == DefaultStyle()
}
