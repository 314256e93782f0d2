package render

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/dshills/matchstyle/internal/host"
	"github.com/dshills/matchstyle/internal/style"
)

// ColorMode selects whether ANSI output carries escape sequences.
type ColorMode int

const (
	// ColorAuto emits colour only when writing to a terminal.
	ColorAuto ColorMode = iota
	// ColorAlways always emits true colour sequences.
	ColorAlways
	// ColorNever emits plain text.
	ColorNever
)

// String returns the mode name.
func (m ColorMode) String() string {
	switch m {
	case ColorAlways:
		return "always"
	case ColorNever:
		return "never"
	default:
		return "auto"
	}
}

// ParseColorMode parses "auto", "always" or "never".
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("unknown color mode %q (want auto, always or never)", s)
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Profile resolves a colour mode for w into a termenv profile.
func Profile(mode ColorMode, w io.Writer) termenv.Profile {
	switch mode {
	case ColorAlways:
		return termenv.TrueColor
	case ColorNever:
		return termenv.Ascii
	}
	if !IsTerminal(w) {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

// ANSI renders blocks as text with escape sequences.
type ANSI struct {
	renderer *lipgloss.Renderer
}

// NewANSI creates a renderer writing for w in the given colour mode.
func NewANSI(w io.Writer, mode ColorMode) *ANSI {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(Profile(mode, w))
	return &ANSI{renderer: r}
}

// LipglossStyle converts a style to a lipgloss style.
func (a *ANSI) LipglossStyle(s style.Style) lipgloss.Style {
	ls := a.renderer.NewStyle()

	if c, ok := lipglossColor(s.Foreground); ok {
		ls = ls.Foreground(c)
	}
	if c, ok := lipglossColor(s.Background); ok {
		ls = ls.Background(c)
	}

	if s.Flags.Has(style.FlagBold) {
		ls = ls.Bold(true)
	}
	if s.Flags.Has(style.FlagDim) {
		ls = ls.Faint(true)
	}
	if s.Flags.Has(style.FlagItalic) {
		ls = ls.Italic(true)
	}
	if s.Flags.Has(style.FlagUnderline) {
		ls = ls.Underline(true)
	}
	if s.Flags.Has(style.FlagBlink) {
		ls = ls.Blink(true)
	}
	if s.Flags.Has(style.FlagReverse) {
		ls = ls.Reverse(true)
	}
	if s.Flags.Has(style.FlagStrikethrough) {
		ls = ls.Strikethrough(true)
	}
	return ls
}

func lipglossColor(c style.Color) (lipgloss.Color, bool) {
	switch {
	case c.IsDefault():
		return "", false
	case c.Indexed:
		return lipgloss.Color(strconv.Itoa(int(c.R))), true
	default:
		return lipgloss.Color(c.Hex()), true
	}
}

// Render returns blocks as ANSI text. terminator is the host line
// terminator; it and any newline inside run text become "\n". Every block
// ends with "\n".
func (a *ANSI) Render(blocks []host.Block, terminator string) string {
	var b strings.Builder
	for _, block := range blocks {
		for _, r := range block.Runs {
			text := r.Text
			if terminator != "" && terminator != "\n" {
				text = strings.ReplaceAll(text, terminator, "\n")
			}
			if !r.Styled() {
				b.WriteString(text)
				continue
			}
			ls := a.LipglossStyle(r.Style.Style())
			// Style line by line so escape sequences never span a newline.
			for i, line := range strings.Split(text, "\n") {
				if i > 0 {
					b.WriteByte('\n')
				}
				if line != "" {
					b.WriteString(ls.Render(line))
				}
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Write renders blocks to w.
func (a *ANSI) Write(w io.Writer, blocks []host.Block, terminator string) error {
	_, err := io.WriteString(w, a.Render(blocks, terminator))
	return err
}
