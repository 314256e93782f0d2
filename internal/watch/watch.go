// Package watch reports changes to a single file.
//
// The file's directory is watched rather than the file itself, so editors
// that save by writing a temporary file and renaming it over the original
// keep producing events.
package watch

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

var (
	// ErrWatcherClosed is returned when operating on a closed watcher.
	ErrWatcherClosed = errors.New("watch: watcher closed")

	// ErrIsDirectory is returned when asked to watch a directory.
	ErrIsDirectory = errors.New("watch: path is a directory")
)

// Op describes what happened to the file.
type Op uint8

const (
	// OpWrite means the file content changed in place.
	OpWrite Op = 1 << iota
	// OpCreate means the file appeared, possibly by rename.
	OpCreate
	// OpRemove means the file was removed or renamed away.
	OpRemove
)

// Has reports whether op includes other.
func (op Op) Has(other Op) bool {
	return op&other != 0
}

// String returns a readable form of the op.
func (op Op) String() string {
	switch {
	case op.Has(OpRemove):
		return "remove"
	case op.Has(OpCreate):
		return "create"
	case op.Has(OpWrite):
		return "write"
	default:
		return "none"
	}
}

// Event is one change to the watched file.
type Event struct {
	Path      string
	Op        Op
	Timestamp time.Time
}

// Changed reports whether the file content may have changed.
func (e Event) Changed() bool {
	return e.Op.Has(OpWrite) || e.Op.Has(OpCreate)
}

// FileWatcher watches one file.
type FileWatcher struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	path    string

	events chan Event
	errors chan error

	totalEvents int64
	closed      bool
	closeCh     chan struct{}
	closedWg    sync.WaitGroup
}

// NewFileWatcher starts watching path. The file must exist.
func NewFileWatcher(path string) (*FileWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrIsDirectory
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &FileWatcher{
		watcher: fsw,
		path:    absPath,
		events:  make(chan Event, 16),
		errors:  make(chan error, 4),
		closeCh: make(chan struct{}),
	}

	w.closedWg.Add(1)
	go w.processLoop()

	return w, nil
}

// Path returns the absolute path being watched.
func (w *FileWatcher) Path() string {
	return w.path
}

// Events returns the event channel. It is closed by Close.
func (w *FileWatcher) Events() <-chan Event {
	return w.events
}

// Errors returns the error channel. It is closed by Close.
func (w *FileWatcher) Errors() <-chan error {
	return w.errors
}

// TotalEvents returns how many events were delivered.
func (w *FileWatcher) TotalEvents() int64 {
	return atomic.LoadInt64(&w.totalEvents)
}

// Close stops the watcher. It is safe to call Close multiple times.
func (w *FileWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	// Wait for processLoop to finish
	w.closedWg.Wait()

	close(w.events)
	close(w.errors)

	return w.watcher.Close()
}

// ReadFile reads the watched file.
func (w *FileWatcher) ReadFile() ([]byte, error) {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return nil, ErrWatcherClosed
	}
	return os.ReadFile(w.path)
}

func (w *FileWatcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case fsEvent, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(fsEvent)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				// Channel full, drop error
			}
		}
	}
}

func (w *FileWatcher) handleFSEvent(fsEvent fsnotify.Event) {
	if filepath.Clean(fsEvent.Name) != w.path {
		return
	}
	op := convertOp(fsEvent.Op)
	if op == 0 {
		return
	}

	event := Event{Path: w.path, Op: op, Timestamp: time.Now()}
	select {
	case w.events <- event:
		atomic.AddInt64(&w.totalEvents, 1)
	case <-w.closeCh:
	}
}

// convertOp converts fsnotify.Op to Op. Chmod is ignored.
func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Remove) || fsOp.Has(fsnotify.Rename) {
		op |= OpRemove
	}
	return op
}
