package richtext

import (
	"github.com/dshills/matchstyle/internal/style"
)

// loc is a logical caret location: a paragraph and the number of grapheme
// clusters before the caret inside it.
type loc struct {
	para int
	col  int
}

// cell is one grapheme cluster with its style.
type cell struct {
	text  string
	style style.Set
}

// locOf converts a pointer into a logical location. Pointers between
// paragraphs belong to the paragraph before them.
func (d *Document) locOf(p Pointer) loc {
	var l loc
	for _, s := range d.symbols[:d.clamp(int(p))] {
		switch s.kind {
		case symParaStart:
			l = loc{para: s.para}
		case symText:
			l.col++
		}
	}
	return l
}

// pointerAt converts a logical location into a pointer. Column zero sits
// inside the first run when there is one.
func (d *Document) pointerAt(l loc) Pointer {
	col := 0
	for i, s := range d.symbols {
		if s.para != l.para {
			continue
		}
		switch s.kind {
		case symParaStart:
			if l.col == 0 {
				if i+1 < len(d.symbols) && d.symbols[i+1].kind == symRunStart {
					return Pointer(i + 2)
				}
				return Pointer(i + 1)
			}
		case symText:
			col++
			if col == l.col {
				return Pointer(i + 1)
			}
		case symParaEnd:
			// Column past the end of the paragraph.
			return Pointer(i)
		}
	}
	return Pointer(len(d.symbols))
}

// snap moves a pointer that sits between two paragraphs to the start of
// the second, where typing lands in that paragraph.
func (d *Document) snap(p Pointer) Pointer {
	i := int(d.clamp(int(p)))
	if i == 0 || i >= len(d.symbols) || d.symbols[i-1].kind != symParaEnd {
		return p
	}
	return d.pointerAt(loc{para: d.symbols[i].para})
}

func (d *Document) cells(para int) []cell {
	var out []cell
	for _, r := range d.paras[para] {
		for _, c := range r.clusters {
			out = append(out, cell{text: c, style: r.style})
		}
	}
	return out
}

// setCells rebuilds the runs of para, merging neighbouring cells that
// share a style.
func (d *Document) setCells(para int, cells []cell) {
	var runs []run
	for _, c := range cells {
		if n := len(runs); n > 0 && runs[n-1].style.Equal(c.style) {
			runs[n-1].clusters = append(runs[n-1].clusters, c.text)
			continue
		}
		runs = append(runs, run{clusters: []string{c.text}, style: c.style.Clone()})
	}
	d.paras[para] = runs
}

// insertText inserts s at l and returns the location after it. The new
// text takes the style of the cluster before the insertion point, or the
// one after it at the start of a paragraph.
func (d *Document) insertText(l loc, s string) loc {
	clusters := Clusters(s)
	if len(clusters) == 0 {
		return l
	}
	cells := d.cells(l.para)
	col := min(l.col, len(cells))

	var st style.Set
	switch {
	case col > 0:
		st = cells[col-1].style
	case len(cells) > 0:
		st = cells[0].style
	}

	ins := make([]cell, len(clusters))
	for i, c := range clusters {
		ins[i] = cell{text: c, style: st}
	}

	out := make([]cell, 0, len(cells)+len(ins))
	out = append(out, cells[:col]...)
	out = append(out, ins...)
	out = append(out, cells[col:]...)
	d.setCells(l.para, out)
	d.reindex()

	return loc{para: l.para, col: col + len(ins)}
}

// splitParagraph breaks the paragraph at l and returns the start of the
// new paragraph.
func (d *Document) splitParagraph(l loc) loc {
	cells := d.cells(l.para)
	col := min(l.col, len(cells))
	left := append([]cell(nil), cells[:col]...)
	right := append([]cell(nil), cells[col:]...)

	d.paras = append(d.paras, nil)
	copy(d.paras[l.para+2:], d.paras[l.para+1:])
	d.setCells(l.para, left)
	d.setCells(l.para+1, right)
	d.reindex()

	return loc{para: l.para + 1}
}

// deleteBackward removes the cluster before l, joining paragraphs at a
// paragraph start. It reports whether anything changed.
func (d *Document) deleteBackward(l loc) (loc, bool) {
	if l.col == 0 {
		if l.para == 0 {
			return l, false
		}
		prev := d.cells(l.para - 1)
		joined := append(prev, d.cells(l.para)...)
		d.setCells(l.para-1, joined)
		d.paras = append(d.paras[:l.para], d.paras[l.para+1:]...)
		d.reindex()
		return loc{para: l.para - 1, col: len(prev)}, true
	}

	cells := d.cells(l.para)
	col := min(l.col, len(cells))
	if col == 0 {
		return l, false
	}
	cells = append(cells[:col-1], cells[col:]...)
	d.setCells(l.para, cells)
	d.reindex()
	return loc{para: l.para, col: col - 1}, true
}
