// Package render draws restyled documents, either onto a tcell screen for
// the interactive editor or as ANSI text for the print and watch commands.
package render

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/matchstyle/internal/host"
	"github.com/dshills/matchstyle/internal/style"
)

// ConvertStyle converts a style to a tcell style.
func ConvertStyle(s style.Style) tcell.Style {
	st := tcell.StyleDefault

	if !s.Foreground.IsDefault() {
		st = st.Foreground(convertColor(s.Foreground))
	}
	if !s.Background.IsDefault() {
		st = st.Background(convertColor(s.Background))
	}

	st = st.Bold(s.Flags.Has(style.FlagBold)).
		Dim(s.Flags.Has(style.FlagDim)).
		Italic(s.Flags.Has(style.FlagItalic)).
		Underline(s.Flags.Has(style.FlagUnderline)).
		Blink(s.Flags.Has(style.FlagBlink)).
		Reverse(s.Flags.Has(style.FlagReverse)).
		StrikeThrough(s.Flags.Has(style.FlagStrikethrough))

	return st
}

func convertColor(c style.Color) tcell.Color {
	if c.Indexed {
		return tcell.PaletteColor(int(c.R))
	}
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// Cell is one laid out grapheme cluster.
type Cell struct {
	Text  string
	Style tcell.Style
	Width int
}

// Line is a row of laid out cells.
type Line []Cell

// Layout is a document broken into screen lines, with the caret located.
type Layout struct {
	Lines     []Line
	CaretLine int
	CaretCol  int // in screen columns
}

// LayoutBlocks lays out blocks as lines. Every block ends a line, and so
// does any "\r\n" or "\n" cluster inside a run. caretOffset counts text
// elements the same way the host does: one per cluster, one per block end.
func LayoutBlocks(blocks []host.Block, caretOffset int) Layout {
	lay := Layout{Lines: []Line{nil}}
	elem := 0
	col := 0

	mark := func() {
		if elem == caretOffset {
			lay.CaretLine = len(lay.Lines) - 1
			lay.CaretCol = col
		}
	}
	newline := func() {
		lay.Lines = append(lay.Lines, nil)
		col = 0
	}

	for _, b := range blocks {
		for _, r := range b.Runs {
			st := ConvertStyle(r.Style.Style())
			g := uniseg.NewGraphemes(r.Text)
			for g.Next() {
				cluster := g.Str()
				mark()
				elem++
				if cluster == "\r\n" || cluster == "\n" || cluster == "\r" {
					newline()
					continue
				}
				w := uniseg.StringWidth(cluster)
				if cluster == "\t" {
					w = 1
				}
				last := len(lay.Lines) - 1
				lay.Lines[last] = append(lay.Lines[last], Cell{Text: cluster, Style: st, Width: w})
				col += w
			}
		}
		mark()
		elem++
		newline()
	}
	if caretOffset >= elem {
		// Past the last block end: the empty line after the content.
		lay.CaretLine = len(lay.Lines) - 1
		lay.CaretCol = 0
	}
	// Drop the empty line opened by the final block end.
	if n := len(lay.Lines); n > 1 && len(lay.Lines[n-1]) == 0 && lay.CaretLine < n-1 {
		lay.Lines = lay.Lines[:n-1]
	}
	return lay
}

// EnsureVisible returns scroll offsets, in columns and rows, that keep the
// caret inside a width by height viewport.
func EnsureVisible(lay Layout, width, height, scrollX, scrollY int) (int, int) {
	if lay.CaretLine < scrollY {
		scrollY = lay.CaretLine
	} else if height > 0 && lay.CaretLine >= scrollY+height {
		scrollY = lay.CaretLine - height + 1
	}
	if lay.CaretCol < scrollX {
		scrollX = lay.CaretCol
	} else if width > 0 && lay.CaretCol >= scrollX+width {
		scrollX = lay.CaretCol - width + 1
	}
	return max(0, scrollX), max(0, scrollY)
}

// Frame is everything drawn in one screen update.
type Frame struct {
	Layout  Layout
	ScrollX int
	ScrollY int
	Status  string
}

var statusStyle = tcell.StyleDefault.Reverse(true)

// Draw renders f onto s and places the cursor. The last row holds the
// status line when Status is set. It does not call Show.
func Draw(s tcell.Screen, f Frame) {
	s.Clear()
	width, height := s.Size()

	textRows := height
	if f.Status != "" && height > 0 {
		textRows--
		drawString(s, 0, height-1, width, f.Status, statusStyle)
	}

	for row := 0; row < textRows; row++ {
		li := f.ScrollY + row
		if li < 0 || li >= len(f.Layout.Lines) {
			break
		}
		x := -f.ScrollX
		for _, c := range f.Layout.Lines[li] {
			if x >= width {
				break
			}
			if x >= 0 {
				putCluster(s, x, row, c.Text, c.Style)
			}
			x += c.Width
		}
	}

	cx := f.Layout.CaretCol - f.ScrollX
	cy := f.Layout.CaretLine - f.ScrollY
	if cx >= 0 && cx < width && cy >= 0 && cy < textRows {
		s.ShowCursor(cx, cy)
	} else {
		s.HideCursor()
	}
}

func drawString(s tcell.Screen, x, y, width int, text string, st tcell.Style) {
	g := uniseg.NewGraphemes(text)
	for g.Next() && x < width {
		putCluster(s, x, y, g.Str(), st)
		x += max(1, uniseg.StringWidth(g.Str()))
	}
	for ; x < width; x++ {
		s.SetContent(x, y, ' ', nil, st)
	}
}

func putCluster(s tcell.Screen, x, y int, cluster string, st tcell.Style) {
	runes := []rune(cluster)
	if len(runes) == 0 {
		return
	}
	if runes[0] == '\t' {
		runes[0] = ' '
	}
	s.SetContent(x, y, runes[0], runes[1:], st)
}
