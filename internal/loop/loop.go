// Package loop defines the contract between the scheduler and the host
// event loop. The scheduler only ever asks the loop for one thing: invoke a
// no-argument callback periodically, single-threaded and non-reentrant, with
// no guarantee beyond eventually-fires. Anything that can do that — a
// bubbletea program ticking from Update, a test driving ticks by hand — can
// host tasks.
package loop

import (
	"sync"
	"time"
)

// PollFunc is one registered poll callback. A non-nil error is surfaced by
// the host loop as a loop-visible fault (the abort-on-worker-error path);
// loops with no better option may panic with it.
type PollFunc func() error

// Loop is implemented by the host event loop adapter. The returned cancel
// function unregisters the callback and is safe to call from within the
// callback itself.
type Loop interface {
	RegisterPoll(interval time.Duration, fn PollFunc) (cancel func())
}

type pollEntry struct {
	interval time.Duration
	last     time.Time
	fn       PollFunc
}

// Manual is a Loop driven by explicit Tick calls on the caller's goroutine.
// It is the deterministic host used by tests and by the demo TUI, which
// ticks it from its Update function so every poll callback runs on the UI
// goroutine.
type Manual struct {
	mu     sync.Mutex
	nextID int
	polls  map[int]*pollEntry
}

// NewManual creates an empty Manual loop.
func NewManual() *Manual {
	return &Manual{polls: make(map[int]*pollEntry)}
}

// RegisterPoll implements Loop.
func (m *Manual) RegisterPoll(interval time.Duration, fn PollFunc) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.polls[id] = &pollEntry{interval: interval, fn: fn}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.polls, id)
	}
}

// Tick runs every registered callback whose interval has elapsed since its
// previous run. Callbacks may unregister themselves or register new polls;
// newly registered polls first run on a later tick. Returns the first
// callback error, after all due callbacks have run.
func (m *Manual) Tick(now time.Time) error {
	return m.run(func(e *pollEntry) bool {
		if !e.last.IsZero() && now.Sub(e.last) < e.interval {
			return false
		}
		e.last = now
		return true
	})
}

// TickAll runs every registered callback regardless of interval. Test use.
func (m *Manual) TickAll() error {
	return m.run(func(*pollEntry) bool { return true })
}

func (m *Manual) run(due func(*pollEntry) bool) error {
	m.mu.Lock()
	var fns []PollFunc
	for _, e := range m.polls {
		if due(e) {
			fns = append(fns, e.fn)
		}
	}
	m.mu.Unlock()

	// Callbacks run outside the lock so they can register and unregister.
	var first error
	for _, fn := range fns {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Len reports the number of registered poll callbacks.
func (m *Manual) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.polls)
}
