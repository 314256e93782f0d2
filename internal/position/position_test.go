package position

import (
	"testing"

	"github.com/dshills/matchstyle/internal/host"
)

// symbolDoc is a document made of symbols: 't' is a text element, any
// other byte is a structural symbol that produces no text.
type symbolDoc struct {
	symbols string
}

type ptr int

func (p ptr) Compare(other host.Pointer) int {
	o := other.(ptr)
	switch {
	case p < o:
		return -1
	case p > o:
		return 1
	}
	return 0
}

func (d symbolDoc) TextRangeLength(from, to host.Pointer) int {
	n := 0
	for _, c := range d.symbols[from.(ptr):to.(ptr)] {
		if c == 't' {
			n++
		}
	}
	return n
}

func (d symbolDoc) ContentStart() host.Pointer { return ptr(0) }
func (d symbolDoc) ContentEnd() host.Pointer   { return ptr(len(d.symbols)) }

func (d symbolDoc) Advance(p host.Pointer, n int) host.Pointer {
	q := int(p.(ptr)) + n
	q = max(0, min(q, len(d.symbols)))
	return ptr(q)
}

func TestLocateClamps(t *testing.T) {
	doc := symbolDoc{symbols: "[(ttt)]"}

	if got := Locate(doc, 0); got != ptr(0) {
		t.Errorf("Locate(0) = %v, want start", got)
	}
	if got := Locate(doc, -5); got != ptr(0) {
		t.Errorf("Locate(-5) = %v, want start", got)
	}
	if got := Locate(doc, 3); got != doc.ContentEnd() {
		t.Errorf("Locate(3) = %v, want end", got)
	}
	if got := Locate(doc, 99); got != doc.ContentEnd() {
		t.Errorf("Locate(99) = %v, want end", got)
	}
}

func TestLocateCorrectsForStructure(t *testing.T) {
	// Two paragraphs, each with two runs.
	doc := symbolDoc{symbols: "[(tt)(t)]" + "[(ttt)(tt)]"}
	total := doc.TextRangeLength(doc.ContentStart(), doc.ContentEnd())

	for target := 1; target < total; target++ {
		p := Locate(doc, target)
		if got := Offset(doc, p); got != target {
			t.Errorf("Offset(Locate(%d)) = %d, want %d", target, got, target)
		}
	}
}

func TestLocateLandsRightAfterTarget(t *testing.T) {
	doc := symbolDoc{symbols: "[(tt)]"}

	// First advance of 1 lands after "[", deficit 1, then after "(",
	// deficit 1, then after the first "t".
	if got := Locate(doc, 1); got != ptr(3) {
		t.Errorf("Locate(1) = %v, want 3", got)
	}
}

func TestTextElements(t *testing.T) {
	doc := symbolDoc{symbols: "[(tt)(t)]"}
	if got := TextElements(doc, ptr(0), ptr(4)); got != 2 {
		t.Errorf("TextElements = %d, want 2", got)
	}
	if got := TextElements(doc, ptr(4), ptr(9)); got != 1 {
		t.Errorf("TextElements = %d, want 1", got)
	}
}

// stuckDoc claims more text than it lets a pointer reach.
type stuckDoc struct{ symbolDoc }

func (d stuckDoc) TextRangeLength(from, to host.Pointer) int {
	if to.(ptr) == ptr(len(d.symbols)) && from.(ptr) == 0 {
		return 100
	}
	return d.symbolDoc.TextRangeLength(from, to)
}

func (d stuckDoc) Advance(p host.Pointer, n int) host.Pointer {
	q := min(int(p.(ptr))+n, 3)
	return ptr(q)
}

func TestLocateStalledAdvanceReturnsEnd(t *testing.T) {
	doc := stuckDoc{symbolDoc{symbols: "(t)tttt"}}
	if got := Locate(doc, 5); got != doc.ContentEnd() {
		t.Errorf("Locate = %v, want end", got)
	}
}

// endlessDoc never yields text but always lets pointers move.
type endlessDoc struct{}

func (endlessDoc) TextRangeLength(from, to host.Pointer) int {
	if to.(ptr) == ptr(-1) {
		return 10
	}
	return 0
}
func (endlessDoc) ContentStart() host.Pointer { return ptr(0) }
func (endlessDoc) ContentEnd() host.Pointer   { return ptr(-1) }
func (endlessDoc) Advance(p host.Pointer, n int) host.Pointer {
	return p.(ptr) + ptr(n)
}

func TestLocateGivesUpAfterMaxCorrections(t *testing.T) {
	if got := Locate(endlessDoc{}, 5); got != ptr(-1) {
		t.Errorf("Locate = %v, want end", got)
	}
}

// overshootDoc counts two elements for each symbol.
type overshootDoc struct{ symbolDoc }

func (d overshootDoc) TextRangeLength(from, to host.Pointer) int {
	return 2 * d.symbolDoc.TextRangeLength(from, to)
}

func TestLocateOvershootReturnsEnd(t *testing.T) {
	doc := overshootDoc{symbolDoc{symbols: "(tttt)"}}
	// Advance(0, 3) covers "(tt" = 4 elements, overshooting 3.
	if got := Locate(doc, 3); got != doc.ContentEnd() {
		t.Errorf("Locate = %v, want end", got)
	}
}
