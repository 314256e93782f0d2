package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/matchstyle/internal/debounce"
	"github.com/dshills/matchstyle/internal/logging"
	"github.com/dshills/matchstyle/internal/render"
)

// Editor is an interactive terminal front end for an App.
//
// All of its methods except Run must be called on the loop goroutine.
type Editor struct {
	app    *App
	screen tcell.Screen
	path   string
	log    *logging.Logger

	message string
	dirty   bool
}

// NewEditor creates an editor drawing on screen. path is where Ctrl-S
// saves; it may be empty.
func NewEditor(a *App, screen tcell.Screen, path string) *Editor {
	return &Editor{
		app:    a,
		screen: screen,
		path:   path,
		log:    a.Logger().WithComponent("editor"),
	}
}

// Dirty reports whether the content changed since the last load or save.
func (e *Editor) Dirty() bool {
	return e.dirty
}

// Message returns the transient status message.
func (e *Editor) Message() string {
	return e.message
}

// Run polls the screen for events and runs the app loop until the user
// quits or ctx is done. The screen must already be initialised; Run does
// not finalise it.
func (e *Editor) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.app.Loop().AfterEach(e.Redraw)
	if err := e.app.Post(func() {}); err != nil {
		return err
	}

	go e.pollEvents(ctx)

	return e.app.Run(ctx)
}

// pollEvents forwards screen events to the loop. PollEvent blocks; it
// returns nil once the screen is finalised.
func (e *Editor) pollEvents(ctx context.Context) {
	for {
		ev := e.screen.PollEvent()
		if ev == nil || ctx.Err() != nil {
			return
		}
		err := e.app.Post(func() {
			if err := e.HandleEvent(ev); errors.Is(err, ErrQuit) {
				e.app.Stop()
			}
		})
		if err != nil {
			return
		}
	}
}

// HandleEvent applies one terminal event. It returns ErrQuit when the user
// asks to leave.
func (e *Editor) HandleEvent(ev tcell.Event) error {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		e.screen.Sync()
		return nil
	case *tcell.EventKey:
		return e.handleKey(ev)
	default:
		return nil
	}
}

func (e *Editor) handleKey(ev *tcell.EventKey) error {
	box := e.app.Box()
	var err error

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlQ:
		return ErrQuit
	case tcell.KeyCtrlS:
		e.save()
		return nil
	case tcell.KeyCtrlR:
		if err := e.app.Behaviour().Restyle(); err != nil {
			e.setMessage("restyle failed: %v", err)
		}
		return nil
	case tcell.KeyEnter:
		err = box.InsertParagraph()
	case tcell.KeyTab:
		err = box.InsertText("\t")
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		err = box.DeleteBackward()
	case tcell.KeyLeft:
		box.MoveCaret(-1)
		return nil
	case tcell.KeyRight:
		box.MoveCaret(1)
		return nil
	case tcell.KeyRune:
		if ev.Modifiers()&(tcell.ModCtrl|tcell.ModAlt) != 0 {
			return nil
		}
		err = box.InsertText(string(ev.Rune()))
	default:
		return nil
	}

	if err != nil {
		e.log.Warn("edit failed: %v", err)
		return nil
	}
	e.dirty = true
	e.message = ""
	return nil
}

func (e *Editor) save() {
	if e.path == "" {
		e.setMessage("no file to save to")
		return
	}
	if err := os.WriteFile(e.path, []byte(e.app.Content()), 0o644); err != nil {
		e.setMessage("save failed: %v", err)
		e.log.Error("save %s: %v", e.path, err)
		return
	}
	e.dirty = false
	e.setMessage("saved %s", filepath.Base(e.path))
	e.log.Info("saved %s", e.path)
}

func (e *Editor) setMessage(format string, args ...any) {
	e.message = fmt.Sprintf(format, args...)
}

// Redraw lays out the box, scrolls the caret into view and shows the frame.
func (e *Editor) Redraw() {
	box := e.app.Box()
	lay := render.LayoutBlocks(box.Document().Blocks(), box.CaretOffset())

	width, height := e.screen.Size()
	sx, sy := render.EnsureVisible(lay, width, height-1,
		int(box.HorizontalOffset()), int(box.VerticalOffset()))
	box.ScrollTo(float64(sx), float64(sy))

	render.Draw(e.screen, render.Frame{
		Layout:  lay,
		ScrollX: sx,
		ScrollY: sy,
		Status:  e.Status(),
	})
	e.screen.Show()
}

// Status returns the status line text.
func (e *Editor) Status() string {
	b := e.app.Behaviour()

	name := "[scratch]"
	if e.path != "" {
		name = filepath.Base(e.path)
	}
	if e.dirty {
		name += " *"
	}

	parts := []string{name}
	if p := b.Pattern(); p != nil {
		parts = append(parts, "/"+p.Source()+"/")
	} else {
		parts = append(parts, "no pattern")
	}

	mode := debounce.ModeFor(b.ChangeDelay())
	switch {
	case mode == debounce.ModeManual:
		parts = append(parts, "manual (^R)")
	case b.Pending():
		parts = append(parts, mode.String()+" pending")
	default:
		parts = append(parts, mode.String())
	}

	st := b.Stats()
	parts = append(parts, fmt.Sprintf("%d matches", st.LastMatches))
	if e.message != "" {
		parts = append(parts, e.message)
	}
	return " " + strings.Join(parts, " | ")
}
