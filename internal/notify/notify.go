// Package notify provides text-changed notification for documents.
//
// The notify package implements an observer pattern: a document owns a
// Notifier, editing code calls Notify after every mutation, and interested
// components subscribe to receive callbacks.
package notify

import (
	"sync"
)

// ChangeKind represents the kind of document change.
type ChangeKind int

const (
	// ChangeEdit indicates text was inserted or deleted by editing.
	ChangeEdit ChangeKind = iota

	// ChangeReplace indicates the whole block list was replaced.
	ChangeReplace

	// ChangeReload indicates the text was reset from an outside source.
	ChangeReload
)

// String returns the change kind name.
func (c ChangeKind) String() string {
	switch c {
	case ChangeEdit:
		return "edit"
	case ChangeReplace:
		return "replace"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change represents a text change event.
type Change struct {
	// Kind is the kind of change.
	Kind ChangeKind

	// Source identifies where the change came from.
	Source string
}

// Observer is called when a change occurs.
type Observer func(change Change)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *Notifier
	once     sync.Once
}

// Unsubscribe removes this subscription. Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.notifier == nil {
		return
	}
	s.once.Do(func() {
		s.notifier.unsubscribe(s.id)
	})
}

type entry struct {
	id       uint64
	observer Observer
}

// Notifier manages change subscriptions. Observers are called
// synchronously, in subscription order.
type Notifier struct {
	mu        sync.RWMutex
	observers []entry
	nextID    uint64
	closed    bool
}

// New creates a new Notifier.
func New() *Notifier {
	return &Notifier{}
}

// Subscribe registers an observer for all changes.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.observers = append(n.observers, entry{id: id, observer: observer})

	return &Subscription{
		id:       id,
		notifier: n,
	}
}

// Count returns the number of live subscriptions.
func (n *Notifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.observers)
}

// Notify sends a change to all observers.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	observers := make([]Observer, len(n.observers))
	for i, e := range n.observers {
		observers[i] = e.observer
	}
	n.mu.RUnlock()

	// Call observers outside the lock so they may unsubscribe.
	for _, obs := range observers {
		obs(change)
	}
}

// Close drops all observers and ignores later notifications.
// It is safe to call Close multiple times.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.observers = nil
}

// unsubscribe removes an observer by ID.
func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, e := range n.observers {
		if e.id == id {
			n.observers = append(n.observers[:i:i], n.observers[i+1:]...)
			return
		}
	}
}
