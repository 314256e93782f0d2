// Package behaviour restyles a rich-text control so that every span of text
// matching a regular expression carries a configured set of style
// attributes, and nothing else carries any style.
//
// A Behaviour attaches to a host.Control, listens for text changes and,
// according to its change delay, rebuilds the whole document as a single
// block of alternating plain and styled runs. The caret (as a text-element
// offset) and the scroll offsets survive the rebuild.
//
// A Behaviour is not safe for concurrent use. All calls, change
// notifications and timer callbacks must arrive on one goroutine, normally
// the goroutine running a loop.Loop.
package behaviour

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rivo/uniseg"

	"github.com/dshills/matchstyle/internal/debounce"
	"github.com/dshills/matchstyle/internal/host"
	"github.com/dshills/matchstyle/internal/logging"
	"github.com/dshills/matchstyle/internal/loop"
	"github.com/dshills/matchstyle/internal/position"
	"github.com/dshills/matchstyle/internal/segment"
	"github.com/dshills/matchstyle/internal/style"
)

// DefaultTerminator is the line terminator a host appends to its content.
const DefaultTerminator = "\r\n"

var (
	// ErrNotAttached is returned by operations that need a control.
	ErrNotAttached = errors.New("behaviour: not attached")

	// ErrAlreadyAttached is returned when attaching an attached behaviour.
	ErrAlreadyAttached = errors.New("behaviour: already attached")
)

// Option configures a Behaviour.
type Option func(*Behaviour)

// WithTerminator sets the trailing terminator stripped before matching.
// An empty terminator disables stripping.
func WithTerminator(t string) Option {
	return func(b *Behaviour) {
		b.terminator = t
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(b *Behaviour) {
		if l != nil {
			b.log = l
		}
	}
}

// WithChangeDelay sets the initial change delay in milliseconds.
func WithChangeDelay(ms int) Option {
	return func(b *Behaviour) {
		b.initialDelay = ms
	}
}

// WithMatchFilter sets a filter deciding which matches are styled.
func WithMatchFilter(keep segment.KeepFunc) Option {
	return func(b *Behaviour) {
		b.keep = keep
	}
}

// Stats counts what the behaviour has done since it was created.
type Stats struct {
	Restyles    int
	Skipped     int
	LastSegment int
	LastMatches int
	LastTook    time.Duration
}

// Behaviour is the regex restyling behaviour.
type Behaviour struct {
	terminator   string
	log          *logging.Logger
	clock        loop.Clock
	initialDelay int

	source  *string
	flags   segment.Flags
	pattern *segment.Pattern
	specs   style.Specs
	keep    segment.KeepFunc

	control host.Control
	sub     host.Subscription
	sched   *debounce.Scheduler
	busy    bool
	stats   Stats
}

// New creates a detached behaviour with no pattern, no styles and a change
// delay of zero. Debounce timers are scheduled on clock, whose callbacks
// must run on the goroutine that drives the behaviour (see loop.LoopClock).
// New panics if clock is nil.
func New(clock loop.Clock, opts ...Option) *Behaviour {
	if clock == nil {
		panic("behaviour: nil clock")
	}
	b := &Behaviour{
		terminator: DefaultTerminator,
		log:        logging.Default(),
		clock:      clock,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.WithComponent("behaviour")
	b.sched = debounce.NewScheduler(b.clock, b.initialDelay, b.scheduledRestyle)
	return b
}

// Attach binds the behaviour to c and starts listening for text changes.
func (b *Behaviour) Attach(c host.Control) error {
	if b.control != nil {
		return ErrAlreadyAttached
	}
	if c == nil {
		return fmt.Errorf("behaviour: attach: nil control")
	}
	b.control = c
	b.subscribe()
	b.log.Debug("attached (delay %dms, mode %s)", b.sched.Delay(), b.sched.Mode())
	return nil
}

// Detach stops listening, cancels any pending restyle and releases the
// control.
func (b *Behaviour) Detach() error {
	if b.control == nil {
		return ErrNotAttached
	}
	b.sched.Cancel()
	b.unsubscribe()
	b.control = nil
	b.log.Debug("detached")
	return nil
}

// Attached reports whether the behaviour is bound to a control.
func (b *Behaviour) Attached() bool {
	return b.control != nil
}

// Subscribed reports whether the behaviour currently receives text-changed
// notifications.
func (b *Behaviour) Subscribed() bool {
	return b.sub != nil
}

// SetPattern sets the pattern source. A nil source disables restyling.
// If the source does not compile, the error (a *segment.PatternCompileError)
// is returned and restyling stays disabled until a valid pattern is set.
func (b *Behaviour) SetPattern(source *string) error {
	if source == nil {
		b.source = nil
		b.pattern = nil
		return nil
	}

	src := *source
	b.source = &src
	p, err := segment.Compile(src, b.flags)
	if err != nil {
		b.pattern = nil
		return err
	}
	b.pattern = p
	return nil
}

// Pattern returns the compiled pattern, or nil when restyling is disabled.
func (b *Behaviour) Pattern() *segment.Pattern {
	return b.pattern
}

// SetFlags sets the matching flags and recompiles the current source.
func (b *Behaviour) SetFlags(flags segment.Flags) error {
	b.flags = flags
	if b.source == nil {
		return nil
	}
	p, err := segment.Compile(*b.source, flags)
	if err != nil {
		b.pattern = nil
		return err
	}
	b.pattern = p
	return nil
}

// Flags returns the matching flags.
func (b *Behaviour) Flags() segment.Flags {
	return b.flags
}

// SetStyleSpecs sets the attributes applied to matched runs.
func (b *Behaviour) SetStyleSpecs(specs style.Specs) {
	b.specs = slices.Clone(specs)
}

// StyleSpecs returns a copy of the style specs.
func (b *Behaviour) StyleSpecs() style.Specs {
	return slices.Clone(b.specs)
}

// SetMatchFilter replaces the match filter; nil styles every match.
// Like the other setters it does not restyle.
func (b *Behaviour) SetMatchFilter(keep segment.KeepFunc) {
	b.keep = keep
}

// SetChangeDelay sets the change delay in milliseconds: negative for
// manual only, zero for immediate, positive for a debounce window. A
// pending restyle is rescheduled under the new delay.
func (b *Behaviour) SetChangeDelay(ms int) {
	b.sched.OnDelayChange(ms)
}

// ChangeDelay returns the change delay in milliseconds.
func (b *Behaviour) ChangeDelay() int {
	return b.sched.Delay()
}

// Pending reports whether a debounced restyle is waiting to fire.
func (b *Behaviour) Pending() bool {
	return b.sched.State() == debounce.TimerRunning
}

// Terminator returns the terminator stripped before matching.
func (b *Behaviour) Terminator() string {
	return b.terminator
}

// Stats returns the counters.
func (b *Behaviour) Stats() Stats {
	return b.stats
}

// Restyle rebuilds the attached document now. Without a pattern it does
// nothing.
func (b *Behaviour) Restyle() error {
	if b.control == nil {
		return ErrNotAttached
	}
	if b.pattern == nil || b.busy {
		b.stats.Skipped++
		b.log.Debug("restyle skipped (pattern=%v busy=%v)", b.pattern != nil, b.busy)
		return nil
	}
	return b.rebuild(b.control)
}

func (b *Behaviour) onTextChanged() {
	b.sched.OnChange()
}

func (b *Behaviour) scheduledRestyle() {
	if err := b.Restyle(); err != nil && !errors.Is(err, ErrNotAttached) {
		b.log.Error("restyle: %v", err)
	}
}

func (b *Behaviour) subscribe() {
	if b.control != nil && b.sub == nil {
		b.sub = b.control.SubscribeTextChanged(b.onTextChanged)
	}
}

func (b *Behaviour) unsubscribe() {
	if b.sub != nil {
		b.sub.Unsubscribe()
		b.sub = nil
	}
}

// rebuild replaces the document with one block of plain and styled runs.
// The text-changed subscription is dropped for the duration so the
// replacement is not observed as an edit, and restored on every exit path.
func (b *Behaviour) rebuild(c host.Control) error {
	b.busy = true
	b.unsubscribe()
	defer func() {
		b.busy = false
		b.subscribe()
	}()

	started := time.Now()

	text := c.FullText()
	if text == "" {
		return nil
	}

	caret := position.Offset(c, c.Caret())
	hOffset, vOffset := c.HorizontalOffset(), c.VerticalOffset()

	if b.terminator != "" {
		if stripped, ok := strings.CutSuffix(text, b.terminator); ok {
			text = stripped
			if c.Caret().Compare(c.ContentEnd()) == 0 {
				caret -= uniseg.GraphemeClusterCount(b.terminator)
			}
		}
	}
	if text == "" {
		return nil
	}

	segs := segment.Filter(text, segment.Split(text, b.pattern), b.keep)
	if err := c.ReplaceContent(BuildBlock(text, segs, b.specs)); err != nil {
		return fmt.Errorf("behaviour: replace content: %w", err)
	}

	c.SetCaret(position.Locate(c, caret))
	c.ScrollTo(hOffset, vOffset)

	b.stats.Restyles++
	b.stats.LastSegment = len(segs)
	b.stats.LastMatches = len(segment.Matches(segs))
	b.stats.LastTook = time.Since(started)
	b.log.Debug("restyled %d segments (%d matched) in %s",
		len(segs), b.stats.LastMatches, b.stats.LastTook)
	return nil
}

// BuildBlock turns segments of text into a single block. Matched segments
// become runs carrying specs resolved in order; unmatched segments become
// plain runs.
func BuildBlock(text string, segs []segment.Segment, specs style.Specs) host.Block {
	resolved := specs.Resolve()
	runs := make([]host.Run, 0, len(segs))
	for _, s := range segs {
		r := host.Run{Text: s.Text(text)}
		if s.IsMatch && len(resolved) > 0 {
			r.Style = resolved.Clone()
		}
		runs = append(runs, r)
	}
	return host.Block{Runs: runs}
}
