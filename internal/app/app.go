// Package app wires a rich-text box, a restyling behaviour and the event
// loop into one session, shared by the print, watch and edit commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dshills/matchstyle/internal/behaviour"
	"github.com/dshills/matchstyle/internal/config"
	"github.com/dshills/matchstyle/internal/logging"
	"github.com/dshills/matchstyle/internal/loop"
	"github.com/dshills/matchstyle/internal/richtext"
	"github.com/dshills/matchstyle/internal/script"
)

// Application errors.
var (
	// ErrQuit signals that the application should exit normally.
	ErrQuit = errors.New("quit requested")

	// ErrInitialization indicates an initialization failure.
	ErrInitialization = errors.New("initialization failed")
)

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.log = l
		}
	}
}

// WithClock replaces the loop clock, e.g. with a loop.FakeClock in tests.
func WithClock(c loop.Clock) Option {
	return func(a *App) {
		a.clock = c
	}
}

// WithQueueSize sets the loop queue capacity.
func WithQueueSize(n int) Option {
	return func(a *App) {
		a.queueSize = n
	}
}

// App is one editing session.
type App struct {
	id        string
	cfg       config.Options
	log       *logging.Logger
	clock     loop.Clock
	queueSize int

	loop      *loop.Loop
	box       *richtext.Box
	behaviour *behaviour.Behaviour
	filter    *script.Filter
}

// New builds a session from cfg. The behaviour is attached to an empty box.
func New(cfg config.Options, opts ...Option) (*App, error) {
	a := &App{
		id:  uuid.New().String(),
		cfg: cfg,
		log: logging.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.WithField("session", a.id[:8])

	a.loop = loop.New(a.queueSize)
	if a.clock == nil {
		a.clock = loop.NewLoopClock(a.loop)
	}

	a.box = richtext.NewBox(richtext.WithTerminator(cfg.Terminator))

	bopts := append(cfg.BehaviourOptions(), behaviour.WithLogger(a.log))
	if cfg.FilterScript != "" {
		scriptLog := a.log.WithComponent("script")
		f, err := script.Load(cfg.FilterScript, script.WithErrorHandler(func(err error) {
			scriptLog.Warn("%v", err)
		}))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
		}
		a.filter = f
		bopts = append(bopts, behaviour.WithMatchFilter(f.Keep))
	}

	a.behaviour = behaviour.New(a.clock, bopts...)
	if err := cfg.Apply(a.behaviour); err != nil {
		a.closeFilter()
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	if err := a.behaviour.Attach(a.box); err != nil {
		a.closeFilter()
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	a.log.WithComponent("app").Debug("session ready (delay %dms)", a.behaviour.ChangeDelay())
	return a, nil
}

// ID returns the session identifier. Its first eight characters tag
// every log line of the session.
func (a *App) ID() string {
	return a.id
}

// Config returns the options the session was built from.
func (a *App) Config() config.Options {
	return a.cfg
}

// Logger returns the session logger.
func (a *App) Logger() *logging.Logger {
	return a.log
}

// Loop returns the event loop.
func (a *App) Loop() *loop.Loop {
	return a.loop
}

// Box returns the rich-text box.
func (a *App) Box() *richtext.Box {
	return a.box
}

// Behaviour returns the restyling behaviour.
func (a *App) Behaviour() *behaviour.Behaviour {
	return a.behaviour
}

// Post queues fn on the loop.
func (a *App) Post(fn func()) error {
	return a.loop.Post(fn)
}

// Run runs the loop until ctx is done or Stop is called.
func (a *App) Run(ctx context.Context) error {
	err := a.loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop ends Run.
func (a *App) Stop() {
	a.loop.Stop()
}

// Load replaces the box content with text from a file. Line endings are
// normalised to "\n" and one trailing newline is dropped, because the box
// already ends its content with a terminator.
func (a *App) Load(text string) error {
	return a.box.SetText(FromFile(text))
}

// Content returns the box text as file content: the trailing terminator
// becomes one "\n" and any terminator inside the text becomes "\n".
func (a *App) Content() string {
	return ToFile(a.box.FullText(), a.cfg.Terminator)
}

// Shutdown detaches the behaviour, closes the box and stops the loop.
func (a *App) Shutdown() {
	if a.behaviour.Attached() {
		_ = a.behaviour.Detach()
	}
	a.box.Close()
	a.loop.Stop()
	a.closeFilter()
}

func (a *App) closeFilter() {
	if a.filter != nil {
		a.filter.Close()
	}
}

// FromFile normalises file content for the box.
func FromFile(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimSuffix(text, "\n")
}

// ToFile converts box text back into file content.
func ToFile(text, terminator string) string {
	if terminator == "" {
		return text + "\n"
	}
	text = strings.TrimSuffix(text, terminator)
	return strings.ReplaceAll(text, terminator, "\n") + "\n"
}
