// Package task implements the background-task scheduler: the caller-facing
// Task and its lifecycle, the worker-facing Handle, and the Poller that
// drains progress and terminal signals back onto the host UI loop.
//
// A Task runs its work function off the UI loop on one of two backends and
// reports back exclusively through a coalescing progress mailbox and a
// lossless control channel. All caller-registered callbacks fire on the UI
// thread, from within a poll tick.
package task

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"taskloop/internal/backend"
	"taskloop/internal/loop"
	"taskloop/internal/mailbox"
)

// State is the lifecycle state of a Task:
//
//	pending → running ⇄ paused → done | stopped | error
//
// The three terminal states are mutually exclusive and irreversible.
type State string

const (
	StatePending State = "pending"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateDone    State = "done"
	StateStopped State = "stopped"
	StateFailed  State = "error"
)

// Terminal reports whether s is one of the three terminal states.
func (s State) Terminal() bool {
	return s == StateDone || s == StateStopped || s == StateFailed
}

// WorkFunc is the user work function. It runs off the UI thread, receives
// the worker-side Handle and the (possibly transferred) payload, and should
// call h.CheckMessage / h.CheckPause at convenient points if it wants to be
// pausable and stoppable. A non-nil error becomes the task's error terminal
// signal; so does a panic.
type WorkFunc func(h *Handle, payload any) error

// Diagnostic is a non-error condition reported to OnDiagnostic callbacks.
// Currently the only diagnostic is backpressure: progress values coalesced
// away between two poll ticks.
type Diagnostic struct {
	Dropped int
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d progress values dropped this cycle", d.Dropped)
}

// ErrNoWorkFunc is returned by Schedule when the work function is nil.
var ErrNoWorkFunc = errors.New("work function is nil")

// ErrBadInterval is returned by Schedule for a negative poll interval.
var ErrBadInterval = errors.New("poll interval must not be negative")

var nextTaskID atomic.Uint64

// Task is the caller-facing handle for one scheduled unit of background
// work. It is owned by the UI side: callback registration and
// Pause/Resume/Stop are meant to be called from the UI thread, and every
// registered callback fires on the UI thread during a poll tick.
type Task struct {
	id       uint64
	mode     backend.Mode
	cfg      Config // snapshot taken at Schedule time
	adapter  backend.Adapter
	ctl      *mailbox.Control
	mbox     *mailbox.Mailbox
	join     *backend.Join
	span     taskSpan
	registry *Registry

	mu          sync.Mutex
	state       State
	err         error
	drops       int // total values coalesced away over the task's lifetime
	delivered   int // progress values actually handed to callbacks
	settled     bool
	progressFns []func(v any)
	doneFns     []func()
	errorFns    []func(err error)
	diagFns     []func(d Diagnostic)
	cancelPoll  func()
}

// Schedule constructs a task, registers its poller with the host loop, and
// spawns the work function on the selected backend. It never blocks: the
// only synchronous failures are construction errors (invalid options, or a
// non-transferable payload under the isolated mode).
func Schedule(lp loop.Loop, payload any, fn WorkFunc, opts Options) (*Task, error) {
	if fn == nil {
		return nil, ErrNoWorkFunc
	}
	if opts.PollInterval < 0 {
		return nil, fmt.Errorf("%w: %v", ErrBadInterval, opts.PollInterval)
	}

	cfg := CurrentDefaults()
	mode := opts.Mode
	if mode == "" {
		mode = cfg.DefaultMode
	}
	interval := opts.PollInterval
	if interval == 0 {
		interval = cfg.DefaultPollInterval
	}

	adapter, err := backend.ForMode(mode)
	if err != nil {
		return nil, err
	}

	t := &Task{
		id:       nextTaskID.Add(1),
		mode:     mode,
		cfg:      cfg,
		adapter:  adapter,
		ctl:      mailbox.NewControl(),
		mbox:     mailbox.New(),
		state:    StatePending,
		registry: live,
	}

	join, err := adapter.Spawn(payload, t.runWorker(fn), t.ctl, t.mbox)
	if err != nil {
		return nil, err
	}
	t.join = join
	t.span = startTaskSpan(t.id, mode)
	t.cancelPoll = lp.RegisterPoll(interval, t.poll)
	t.registry.add(t)
	return t, nil
}

// runWorker wraps the user work function into the closure handed to the
// backend. The wrapper produces the terminal signal for every normal return
// path; panics escape it and are converted by the backend.
func (t *Task) runWorker(fn WorkFunc) func(payload any) {
	return func(payload any) {
		t.setState(StateRunning)
		h := &Handle{task: t}
		err := fn(h, payload)
		switch {
		case err != nil:
			t.ctl.Finish(mailbox.Signal{Outcome: mailbox.OutcomeFailed, Err: err})
		case h.sawStop:
			t.ctl.Finish(mailbox.Signal{Outcome: mailbox.OutcomeStopped})
		default:
			t.ctl.Finish(mailbox.Signal{Outcome: mailbox.OutcomeDone})
		}
	}
}

// ID returns the task's process-unique identity.
func (t *Task) ID() uint64 { return t.id }

// Mode returns the execution mode the task was scheduled under.
func (t *Task) Mode() backend.Mode { return t.mode }

// State returns the task's current lifecycle state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns the captured worker error once the task is in StateFailed.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Drops returns the total number of progress values coalesced away under
// backpressure over the task's lifetime.
func (t *Task) Drops() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.drops
}

// Finished reports whether the backend unit has terminated. The terminal
// callbacks may not have fired yet; they fire on the next poll tick.
func (t *Task) Finished() bool {
	return t.adapter.Terminated(t.join)
}

// OnProgress registers a callback invoked with each drained progress value,
// in registration order, on the UI thread. Returns the task for chaining.
func (t *Task) OnProgress(fn func(v any)) *Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progressFns = append(t.progressFns, fn)
	return t
}

// OnDone registers a callback invoked once when the task reaches StateDone
// or StateStopped. A callback registered after the terminal signal has been
// drained fires immediately, so there is no missed-terminal window.
func (t *Task) OnDone(fn func()) *Task {
	t.mu.Lock()
	late := t.settled && (t.state == StateDone || t.state == StateStopped)
	if !late {
		t.doneFns = append(t.doneFns, fn)
	}
	t.mu.Unlock()
	if late {
		fn()
	}
	return t
}

// OnError registers a callback invoked once with the captured worker error
// when the task reaches StateFailed. Like OnDone, a late registration fires
// immediately.
func (t *Task) OnError(fn func(err error)) *Task {
	t.mu.Lock()
	late := t.settled && t.state == StateFailed
	err := t.err
	if !late {
		t.errorFns = append(t.errorFns, fn)
	}
	t.mu.Unlock()
	if late {
		fn(err)
	}
	return t
}

// OnDiagnostic registers a callback for non-error conditions, currently
// backpressure drop reports. Returns the task for chaining.
func (t *Task) OnDiagnostic(fn func(d Diagnostic)) *Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.diagFns = append(t.diagFns, fn)
	return t
}

// Pause asks the worker to pause at its next CheckPause. Non-blocking;
// no-op once the task is terminal.
func (t *Task) Pause() { t.send(mailbox.MsgPause) }

// Resume releases a worker blocked in CheckPause. Non-blocking; no-op once
// the task is terminal.
func (t *Task) Resume() { t.send(mailbox.MsgResume) }

// Stop asks the worker to stop. Purely cooperative: a worker that never
// checks for messages runs to completion regardless. Non-blocking; no-op
// once the task is terminal.
func (t *Task) Stop() { t.send(mailbox.MsgStop) }

func (t *Task) send(msg mailbox.Message) {
	t.mu.Lock()
	terminal := t.state.Terminal()
	t.mu.Unlock()
	if terminal {
		return
	}
	t.ctl.Send(msg)
}

// setState is called from the worker goroutine on running/paused
// transitions. Terminal states are only ever set by the poller; a worker
// transition arriving after that is discarded.
func (t *Task) setState(s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Terminal() {
		return
	}
	t.state = s
}
