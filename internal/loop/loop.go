// Package loop provides a single-goroutine event loop and the timer
// primitive the debounce scheduler runs on.
//
// Everything that touches a document (edits, change notifications, timer
// expiry, restyling) is posted to one Loop, so none of it needs locks.
package loop

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is returned by Post after the loop has stopped.
var ErrStopped = errors.New("loop: stopped")

// Loop runs posted functions one at a time on the goroutine calling Run.
type Loop struct {
	mu      sync.Mutex
	queue   chan func()
	done    chan struct{}
	stopped bool
	after   []func()
}

// New creates a loop with the given queue capacity.
func New(capacity int) *Loop {
	if capacity <= 0 {
		capacity = 64
	}
	return &Loop{
		queue: make(chan func(), capacity),
		done:  make(chan struct{}),
	}
}

// Post queues fn to run on the loop goroutine. It blocks while the queue is
// full and fails once the loop has stopped.
func (l *Loop) Post(fn func()) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrStopped
	}
	l.mu.Unlock()

	select {
	case l.queue <- fn:
		return nil
	case <-l.done:
		return ErrStopped
	}
}

// AfterEach registers fn to run on the loop goroutine after every posted
// function, e.g. to redraw a screen. Register before calling Run.
func (l *Loop) AfterEach(fn func()) {
	l.after = append(l.after, fn)
}

// Run processes posted functions until ctx is done or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.queue:
			fn()
			for _, a := range l.after {
				a()
			}
		}
	}
}

// Stop ends Run. It is safe to call Stop multiple times.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	close(l.done)
}
