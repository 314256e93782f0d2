package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/matchstyle/internal/render"
	"github.com/dshills/matchstyle/internal/style"
)

func newSimScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatalf("Init error = %v", err)
	}
	t.Cleanup(s.Fini)
	s.SetSize(w, h)
	return s
}

func runeKey(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func key(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func typeString(t *testing.T, e *Editor, s string) {
	t.Helper()
	for _, r := range s {
		if err := e.HandleEvent(runeKey(r)); err != nil {
			t.Fatalf("HandleEvent(%q) error = %v", r, err)
		}
	}
}

func TestEditorDebouncedTyping(t *testing.T) {
	a, clock := newTestApp(t, testConfig("foo", 20))
	s := newSimScreen(t, 40, 5)
	e := NewEditor(a, s, "")

	typeString(t, e, "foo")
	if !a.Behaviour().Pending() {
		t.Fatal("restyle not pending after typing")
	}
	if st := e.Status(); !strings.Contains(st, "debounced pending") {
		t.Errorf("Status() = %q, want pending marker", st)
	}

	clock.Advance(20 * time.Millisecond)
	if got := a.Behaviour().Stats().Restyles; got != 1 {
		t.Fatalf("Restyles = %d, want 1", got)
	}

	e.Redraw()
	boldStyle := render.ConvertStyle(style.Set{style.Bold: true}.Style())
	for x, want := range "foo" {
		r, _, st, _ := s.GetContent(x, 0)
		if r != want || st != boldStyle {
			t.Errorf("cell %d = %q %v, want %q bold", x, r, st, want)
		}
	}
	if x, y, visible := s.GetCursor(); !visible || x != 3 || y != 0 {
		t.Errorf("cursor = (%d, %d, %v), want (3, 0, true)", x, y, visible)
	}

	st := e.Status()
	for _, want := range []string{"[scratch] *", "/foo/", "1 matches"} {
		if !strings.Contains(st, want) {
			t.Errorf("Status() = %q, missing %q", st, want)
		}
	}
}

func TestEditorEditingKeys(t *testing.T) {
	a, _ := newTestApp(t, testConfig("z", -1))
	e := NewEditor(a, newSimScreen(t, 40, 5), "")

	typeString(t, e, "ab")
	steps := []*tcell.EventKey{
		key(tcell.KeyEnter),
		runeKey('c'),
		runeKey('x'),
		key(tcell.KeyBackspace2),
		key(tcell.KeyLeft),
		key(tcell.KeyLeft),
		key(tcell.KeyLeft),
		runeKey('-'),
		key(tcell.KeyRight),
		key(tcell.KeyTab),
	}
	for _, ev := range steps {
		if err := e.HandleEvent(ev); err != nil {
			t.Fatalf("HandleEvent error = %v", err)
		}
	}

	if got, want := a.Content(), "a-b\n\tc\n"; got != want {
		t.Errorf("Content() = %q, want %q", got, want)
	}
	if got := a.Behaviour().Stats().Restyles; got != 0 {
		t.Errorf("Restyles = %d in manual mode, want 0", got)
	}

	if err := e.HandleEvent(key(tcell.KeyCtrlR)); err != nil {
		t.Fatalf("Ctrl-R error = %v", err)
	}
	// Pattern "z" never matches but the restyle still runs.
	if got := a.Behaviour().Stats().Restyles; got != 1 {
		t.Errorf("Restyles after Ctrl-R = %d, want 1", got)
	}
	if got, want := a.Content(), "a-b\n\tc\n"; got != want {
		t.Errorf("Content() after restyle = %q, want %q", got, want)
	}
}

func TestEditorIgnoresModifiedRunes(t *testing.T) {
	a, _ := newTestApp(t, testConfig("x", -1))
	e := NewEditor(a, newSimScreen(t, 40, 5), "")

	if err := e.HandleEvent(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModAlt)); err != nil {
		t.Fatal(err)
	}
	if e.Dirty() {
		t.Error("Alt-x marked the buffer dirty")
	}
	if got := a.Content(); got != "\n" {
		t.Errorf("Content() = %q, want empty line", got)
	}
}

func TestEditorSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	a, _ := newTestApp(t, testConfig("o", 0))
	e := NewEditor(a, newSimScreen(t, 40, 5), path)

	typeString(t, e, "foo")
	if !e.Dirty() {
		t.Fatal("Dirty() = false after typing")
	}
	if err := e.HandleEvent(key(tcell.KeyCtrlS)); err != nil {
		t.Fatalf("Ctrl-S error = %v", err)
	}
	if e.Dirty() {
		t.Error("Dirty() = true after save")
	}
	if msg := e.Message(); msg != "saved out.txt" {
		t.Errorf("Message() = %q, want %q", msg, "saved out.txt")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error = %v", err)
	}
	if string(data) != "foo\n" {
		t.Errorf("saved %q, want %q", data, "foo\n")
	}
}

func TestEditorSaveWithoutPath(t *testing.T) {
	a, _ := newTestApp(t, testConfig("o", 0))
	e := NewEditor(a, newSimScreen(t, 40, 5), "")

	if err := e.HandleEvent(key(tcell.KeyCtrlS)); err != nil {
		t.Fatal(err)
	}
	if msg := e.Message(); msg != "no file to save to" {
		t.Errorf("Message() = %q", msg)
	}
}

func TestEditorQuitKeys(t *testing.T) {
	a, _ := newTestApp(t, testConfig("o", 0))
	e := NewEditor(a, newSimScreen(t, 40, 5), "")

	for _, k := range []tcell.Key{tcell.KeyEscape, tcell.KeyCtrlQ} {
		if err := e.HandleEvent(key(k)); !errors.Is(err, ErrQuit) {
			t.Errorf("HandleEvent(%v) error = %v, want ErrQuit", k, err)
		}
	}
}

func TestEditorScrollsToCaret(t *testing.T) {
	a, _ := newTestApp(t, testConfig("o", -1))
	s := newSimScreen(t, 5, 3)
	e := NewEditor(a, s, "")

	typeString(t, e, "abcdefgh")
	e.Redraw()

	if got := a.Box().HorizontalOffset(); got != 4 {
		t.Errorf("HorizontalOffset() = %v, want 4", got)
	}
	r, _, _, _ := s.GetContent(0, 0)
	if r != 'e' {
		t.Errorf("first visible cell = %q, want 'e'", r)
	}
	if x, _, visible := s.GetCursor(); !visible || x != 4 {
		t.Errorf("cursor x = %d (visible %v), want 4", x, visible)
	}
}

func TestEditorRun(t *testing.T) {
	a, _ := newTestApp(t, testConfig("o", 0))
	s := newSimScreen(t, 40, 5)
	e := NewEditor(a, s, "")

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	for _, ev := range []tcell.Event{runeKey('h'), runeKey('o'), key(tcell.KeyEscape)} {
		if err := s.PostEvent(ev); err != nil {
			t.Fatalf("PostEvent error = %v", err)
		}
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Escape")
	}

	if got := a.Content(); got != "ho\n" {
		t.Errorf("Content() = %q, want %q", got, "ho\n")
	}
}
