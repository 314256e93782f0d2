// Package debounce coalesces bursts of change notifications into a single
// restyle.
//
// The configured delay selects the mode: a negative delay is manual only
// (changes never trigger a restyle), zero restyles synchronously on every
// change, and a positive delay restarts a one-shot timer on every change so
// only the last change of a burst restyles, once the document has been
// quiet for the whole delay.
package debounce

import (
	"time"

	"github.com/dshills/matchstyle/internal/loop"
)

// Mode is the scheduling mode implied by a delay.
type Mode int

const (
	// ModeManual ignores change notifications.
	ModeManual Mode = iota
	// ModeImmediate restyles synchronously on every change.
	ModeImmediate
	// ModeDebounced restyles after a quiet period.
	ModeDebounced
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeManual:
		return "manual"
	case ModeImmediate:
		return "immediate"
	case ModeDebounced:
		return "debounced"
	default:
		return "unknown"
	}
}

// ModeFor returns the mode for a delay in milliseconds.
func ModeFor(delayMs int) Mode {
	switch {
	case delayMs < 0:
		return ModeManual
	case delayMs == 0:
		return ModeImmediate
	default:
		return ModeDebounced
	}
}

// State is the scheduler state.
type State int

const (
	// Idle means no restyle is pending.
	Idle State = iota
	// TimerRunning means a debounced restyle is pending.
	TimerRunning
)

// String returns the state name.
func (s State) String() string {
	if s == TimerRunning {
		return "timer-running"
	}
	return "idle"
}

// Scheduler owns at most one pending timer. It is not safe for concurrent
// use; call it from the goroutine the clock delivers callbacks on.
type Scheduler struct {
	clock   loop.Clock
	delayMs int
	restyle func()
	timer   loop.Timer
	seq     uint64 // sequence number to detect stale callbacks
	fired   uint64
}

// NewScheduler creates a scheduler that calls restyle according to delayMs.
func NewScheduler(clock loop.Clock, delayMs int, restyle func()) *Scheduler {
	return &Scheduler{
		clock:   clock,
		delayMs: delayMs,
		restyle: restyle,
	}
}

// Delay returns the configured delay in milliseconds.
func (s *Scheduler) Delay() int {
	return s.delayMs
}

// Mode returns the current mode.
func (s *Scheduler) Mode() Mode {
	return ModeFor(s.delayMs)
}

// State returns whether a restyle is pending.
func (s *Scheduler) State() State {
	if s.timer != nil {
		return TimerRunning
	}
	return Idle
}

// Fired returns how many restyles the scheduler has triggered.
func (s *Scheduler) Fired() uint64 {
	return s.fired
}

// OnChange handles one text-changed notification.
func (s *Scheduler) OnChange() {
	switch s.Mode() {
	case ModeManual:
	case ModeImmediate:
		s.run()
	case ModeDebounced:
		s.start()
	}
}

// OnDelayChange reconfigures the delay. A pending restyle follows the new
// mode: it is restarted with the new delay, run at once, or dropped when
// switching to manual.
func (s *Scheduler) OnDelayChange(delayMs int) {
	pending := s.State() == TimerRunning
	s.Cancel()
	s.delayMs = delayMs
	if pending {
		s.OnChange()
	}
}

// Cancel stops any pending restyle.
func (s *Scheduler) Cancel() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	// Increment seq to invalidate a callback already on its way.
	s.seq++
}

// Flush runs a pending restyle now. It reports whether one was pending.
func (s *Scheduler) Flush() bool {
	if s.State() != TimerRunning {
		return false
	}
	s.Cancel()
	s.run()
	return true
}

func (s *Scheduler) start() {
	s.Cancel()
	current := s.seq
	s.timer = s.clock.AfterFunc(time.Duration(s.delayMs)*time.Millisecond, func() {
		// Only execute if this is still the current scheduled callback.
		if s.seq != current {
			return
		}
		s.timer = nil
		s.run()
	})
}

func (s *Scheduler) run() {
	s.fired++
	if s.restyle != nil {
		s.restyle()
	}
}
