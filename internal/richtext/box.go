package richtext

import (
	"errors"

	"github.com/dshills/matchstyle/internal/host"
	"github.com/dshills/matchstyle/internal/notify"
	"github.com/dshills/matchstyle/internal/position"
)

// ErrClosed is returned by operations on a closed Box.
var ErrClosed = errors.New("richtext: box closed")

// Box is an editable rich-text control. It implements host.Control.
type Box struct {
	doc     *Document
	caret   Pointer
	hOffset float64
	vOffset float64
	changes *notify.Notifier
	closed  bool
}

var _ host.Control = (*Box)(nil)

// Option configures a Box.
type Option func(*boxConfig)

type boxConfig struct {
	terminator string
	text       string
}

// WithTerminator sets the text produced by every paragraph end.
func WithTerminator(t string) Option {
	return func(c *boxConfig) {
		c.terminator = t
	}
}

// WithText sets the initial content as a single unstyled paragraph.
func WithText(s string) Option {
	return func(c *boxConfig) {
		c.text = s
	}
}

// NewBox creates a Box with one paragraph.
func NewBox(opts ...Option) *Box {
	cfg := boxConfig{terminator: DefaultTerminator}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := &Box{
		doc:     NewDocument(cfg.terminator, plainBlock(cfg.text)),
		changes: notify.New(),
	}
	return b
}

func plainBlock(s string) host.Block {
	if s == "" {
		return host.Block{}
	}
	return host.Block{Runs: []host.Run{{Text: s}}}
}

// Document returns the underlying document.
func (b *Box) Document() *Document {
	return b.doc
}

// FullText implements host.Document.
func (b *Box) FullText() string {
	return b.doc.FullText()
}

// TextRangeLength implements host.Document.
func (b *Box) TextRangeLength(from, to host.Pointer) int {
	return b.doc.TextRangeLength(from, to)
}

// ContentStart implements host.Document.
func (b *Box) ContentStart() host.Pointer {
	return b.doc.ContentStart()
}

// ContentEnd implements host.Document.
func (b *Box) ContentEnd() host.Pointer {
	return b.doc.ContentEnd()
}

// Advance implements host.Document.
func (b *Box) Advance(p host.Pointer, n int) host.Pointer {
	return b.doc.Advance(p, n)
}

// Caret implements host.Control.
func (b *Box) Caret() host.Pointer {
	return b.caret
}

// SetCaret implements host.Control. The caret is clamped to the content.
func (b *Box) SetCaret(p host.Pointer) {
	b.caret = b.doc.clamp(int(toPointer(p)))
}

// CaretOffset returns the caret position in text elements.
func (b *Box) CaretOffset() int {
	return position.Offset(b.doc, b.caret)
}

// HorizontalOffset implements host.Control.
func (b *Box) HorizontalOffset() float64 {
	return b.hOffset
}

// VerticalOffset implements host.Control.
func (b *Box) VerticalOffset() float64 {
	return b.vOffset
}

// ScrollTo implements host.Control. Negative offsets are clamped to zero.
func (b *Box) ScrollTo(horizontal, vertical float64) {
	b.hOffset = max(0, horizontal)
	b.vOffset = max(0, vertical)
}

// SubscribeTextChanged implements host.Control.
func (b *Box) SubscribeTextChanged(fn func()) host.Subscription {
	return b.changes.Subscribe(func(notify.Change) { fn() })
}

// OnChange subscribes to changes together with their kind.
func (b *Box) OnChange(obs notify.Observer) *notify.Subscription {
	return b.changes.Subscribe(obs)
}

// ReplaceContent implements host.Control. Like a real control clearing its
// blocks, it moves the caret to the start and resets scrolling.
func (b *Box) ReplaceContent(block host.Block) error {
	if b.closed {
		return ErrClosed
	}
	b.doc.Replace(block)
	b.caret = 0
	b.hOffset, b.vOffset = 0, 0
	b.notify(notify.ChangeReplace, "replace")
	return nil
}

// InsertText types s at the caret.
func (b *Box) InsertText(s string) error {
	if b.closed {
		return ErrClosed
	}
	if s == "" {
		return nil
	}
	l := b.doc.insertText(b.doc.locOf(b.caret), s)
	b.caret = b.doc.pointerAt(l)
	b.notify(notify.ChangeEdit, "insert")
	return nil
}

// InsertParagraph breaks the current paragraph at the caret.
func (b *Box) InsertParagraph() error {
	if b.closed {
		return ErrClosed
	}
	l := b.doc.splitParagraph(b.doc.locOf(b.caret))
	b.caret = b.doc.pointerAt(l)
	b.notify(notify.ChangeEdit, "paragraph")
	return nil
}

// DeleteBackward removes the text element before the caret.
func (b *Box) DeleteBackward() error {
	if b.closed {
		return ErrClosed
	}
	l, changed := b.doc.deleteBackward(b.doc.locOf(b.caret))
	if !changed {
		return nil
	}
	b.caret = b.doc.pointerAt(l)
	b.notify(notify.ChangeEdit, "delete")
	return nil
}

// SetText replaces the content with a single unstyled paragraph holding s,
// keeping the caret at the same text-element offset where possible.
func (b *Box) SetText(s string) error {
	if b.closed {
		return ErrClosed
	}
	offset := b.CaretOffset()
	b.doc.Replace(plainBlock(s))
	b.caret = b.doc.snap(toPointer(position.Locate(b.doc, offset)))
	b.notify(notify.ChangeReload, "reload")
	return nil
}

// MoveCaret moves the caret by n text elements. Crossing a paragraph
// break puts the caret at the start of the next paragraph.
func (b *Box) MoveCaret(n int) {
	b.caret = b.doc.snap(toPointer(position.Locate(b.doc, b.CaretOffset()+n)))
}

// Close drops all subscribers and rejects further edits.
func (b *Box) Close() {
	b.closed = true
	b.changes.Close()
}

func (b *Box) notify(kind notify.ChangeKind, source string) {
	b.changes.Notify(notify.Change{Kind: kind, Source: source})
}
