// Package richtext is an in-memory rich-text control.
//
// A Document is a list of paragraphs, each a list of styled runs. Positions
// inside a document are symbol indexes: every paragraph start, paragraph
// end, run start and run end is one symbol, and every grapheme cluster of
// run text is one symbol. Structural symbols take up position space but
// produce no text, except that each paragraph end produces the document
// terminator ("\r\n" by default).
//
// Box wraps a Document with a caret, scroll offsets and text-changed
// notifications, and implements host.Control.
//
// Documents and boxes are not safe for concurrent use; confine each one to
// the goroutine running its event loop.
package richtext

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/dshills/matchstyle/internal/host"
	"github.com/dshills/matchstyle/internal/style"
)

// DefaultTerminator is appended to the text of every paragraph.
const DefaultTerminator = "\r\n"

// Pointer is a symbol index into a Document.
type Pointer int

// Compare implements host.Pointer.
func (p Pointer) Compare(other host.Pointer) int {
	o := toPointer(other)
	switch {
	case p < o:
		return -1
	case p > o:
		return 1
	}
	return 0
}

func toPointer(p host.Pointer) Pointer {
	rp, ok := p.(Pointer)
	if !ok {
		panic(fmt.Sprintf("richtext: foreign pointer type %T", p))
	}
	return rp
}

type symKind uint8

const (
	symParaStart symKind = iota
	symParaEnd
	symRunStart
	symRunEnd
	symText
)

type symbol struct {
	kind symKind
	para int
	text string
}

// run is a stored run with its text split into grapheme clusters.
type run struct {
	clusters []string
	style    style.Set
}

func (r run) text() string {
	return strings.Join(r.clusters, "")
}

// Document is a structured rich-text document.
type Document struct {
	paras      [][]run
	terminator string
	symbols    []symbol
}

// NewDocument creates a document from blocks. A document without blocks
// still has one empty paragraph, the way an empty editor does.
func NewDocument(terminator string, blocks ...host.Block) *Document {
	d := &Document{terminator: terminator}
	d.Replace(blocks...)
	return d
}

// Terminator returns the text produced by every paragraph end.
func (d *Document) Terminator() string {
	return d.terminator
}

// Replace discards every paragraph and installs blocks in their place.
func (d *Document) Replace(blocks ...host.Block) {
	d.paras = d.paras[:0]
	for _, b := range blocks {
		runs := make([]run, 0, len(b.Runs))
		for _, r := range b.Runs {
			runs = append(runs, run{clusters: Clusters(r.Text), style: r.Style.Clone()})
		}
		d.paras = append(d.paras, runs)
	}
	if len(d.paras) == 0 {
		d.paras = append(d.paras, nil)
	}
	d.reindex()
}

// Blocks returns a copy of the document structure.
func (d *Document) Blocks() []host.Block {
	blocks := make([]host.Block, len(d.paras))
	for i, runs := range d.paras {
		b := host.Block{Runs: make([]host.Run, len(runs))}
		for j, r := range runs {
			b.Runs[j] = host.Run{Text: r.text(), Style: r.style.Clone()}
		}
		blocks[i] = b
	}
	return blocks
}

// ParagraphCount returns the number of paragraphs.
func (d *Document) ParagraphCount() int {
	return len(d.paras)
}

// SymbolCount returns the size of the position space.
func (d *Document) SymbolCount() int {
	return len(d.symbols)
}

func (d *Document) reindex() {
	d.symbols = d.symbols[:0]
	for pi, runs := range d.paras {
		d.symbols = append(d.symbols, symbol{kind: symParaStart, para: pi})
		for _, r := range runs {
			d.symbols = append(d.symbols, symbol{kind: symRunStart, para: pi})
			for _, c := range r.clusters {
				d.symbols = append(d.symbols, symbol{kind: symText, para: pi, text: c})
			}
			d.symbols = append(d.symbols, symbol{kind: symRunEnd, para: pi})
		}
		d.symbols = append(d.symbols, symbol{kind: symParaEnd, para: pi, text: d.terminator})
	}
}

// ContentStart implements host.Document.
func (d *Document) ContentStart() host.Pointer {
	return Pointer(0)
}

// ContentEnd implements host.Document.
func (d *Document) ContentEnd() host.Pointer {
	return Pointer(len(d.symbols))
}

// Advance implements host.Document. The result is clamped to the content.
func (d *Document) Advance(p host.Pointer, n int) host.Pointer {
	return d.clamp(int(toPointer(p)) + n)
}

func (d *Document) clamp(i int) Pointer {
	return Pointer(max(0, min(i, len(d.symbols))))
}

// Text returns the text between two pointers, in either order.
func (d *Document) Text(from, to host.Pointer) string {
	a, b := d.clamp(int(toPointer(from))), d.clamp(int(toPointer(to)))
	if a > b {
		a, b = b, a
	}
	var sb strings.Builder
	for _, s := range d.symbols[a:b] {
		sb.WriteString(s.text)
	}
	return sb.String()
}

// FullText implements host.Document.
func (d *Document) FullText() string {
	return d.Text(d.ContentStart(), d.ContentEnd())
}

// TextRangeLength implements host.Document. It counts grapheme clusters.
func (d *Document) TextRangeLength(from, to host.Pointer) int {
	return uniseg.GraphemeClusterCount(d.Text(from, to))
}

// Clusters splits s into grapheme clusters.
func Clusters(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, len(s))
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}
