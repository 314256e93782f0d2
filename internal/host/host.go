// Package host defines the narrow surface through which the highlighter
// talks to a rich-text control.
//
// The control itself (rendering, input handling, undo) lives elsewhere. The
// behaviour only needs to read text, move structural pointers, save and
// restore caret and scroll state, swap the document content, and listen for
// text changes.
package host

import "github.com/dshills/matchstyle/internal/style"

// Pointer is an opaque structural position inside a host document.
// Pointers are only meaningful for the document that produced them.
type Pointer interface {
	// Compare returns -1 if p is before other, 0 if equal, 1 if after.
	Compare(other Pointer) int
}

// Document is the read side of a host document.
type Document interface {
	// FullText returns the plain text of the whole document.
	FullText() string

	// TextRangeLength returns the number of text elements between two pointers.
	TextRangeLength(from, to Pointer) int

	// ContentStart returns the pointer at the start of the content.
	ContentStart() Pointer

	// ContentEnd returns the pointer at the end of the content.
	ContentEnd() Pointer

	// Advance moves p forward by n units, best effort.
	// Structural boundaries consume units without producing text.
	Advance(p Pointer, n int) Pointer
}

// Subscription is a live text-changed registration.
type Subscription interface {
	Unsubscribe()
}

// Control is a rich-text control the behaviour can attach to.
type Control interface {
	Document

	// Caret returns the current caret pointer.
	Caret() Pointer
	// SetCaret moves the caret.
	SetCaret(p Pointer)

	HorizontalOffset() float64
	VerticalOffset() float64
	ScrollTo(horizontal, vertical float64)

	// SubscribeTextChanged registers fn for text-changed notifications.
	SubscribeTextChanged(fn func()) Subscription

	// ReplaceContent replaces every block of the document with b.
	ReplaceContent(b Block) error
}

// Run is a span of text sharing one style.
type Run struct {
	Text  string
	Style style.Set
}

// Styled reports whether the run carries any style attributes.
func (r Run) Styled() bool {
	return len(r.Style) > 0
}

// Block is a single paragraph made of runs.
type Block struct {
	Runs []Run
}

// Text returns the concatenated text of all runs.
func (b Block) Text() string {
	n := 0
	for _, r := range b.Runs {
		n += len(r.Text)
	}
	buf := make([]byte, 0, n)
	for _, r := range b.Runs {
		buf = append(buf, r.Text...)
	}
	return string(buf)
}
