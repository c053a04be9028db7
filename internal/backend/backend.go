// Package backend abstracts the two execution strategies a task can run
// under. Both spawn the work on its own goroutine; they differ in how the
// payload crosses the boundary. The shared-lock mode hands the payload over
// by reference, so aliasing with UI-owned state is physically possible and
// is the caller's responsibility. The isolated mode deep-copies the payload
// at spawn time and rejects payloads that cannot be fully transferred
// (anything reachable containing a channel, function, or unexported struct
// field), so the worker can never race with the UI side through the payload.
package backend

import (
	"fmt"

	"taskloop/internal/mailbox"
)

// Mode selects an execution strategy.
type Mode string

const (
	ModeSharedLock Mode = "shared_lock"
	ModeIsolated   Mode = "isolated"
)

// Valid reports whether m names a known execution mode.
func (m Mode) Valid() bool {
	return m == ModeSharedLock || m == ModeIsolated
}

// Join is the handle to one spawned worker. It is owned by the task that
// spawned it; Terminated is the only query it supports.
type Join struct {
	done chan struct{}
}

// Adapter spawns work functions under one execution strategy. The run
// closure is expected to produce the task's terminal signal on ctl before
// returning; the adapter only converts panics that escape run into the
// error terminal signal, seals the mailbox once the worker is finished,
// and tracks termination.
type Adapter interface {
	Spawn(payload any, run func(payload any), ctl *mailbox.Control, mbox *mailbox.Mailbox) (*Join, error)
	Terminated(j *Join) bool
}

// ForMode returns the Adapter for the given mode.
func ForMode(m Mode) (Adapter, error) {
	switch m {
	case ModeSharedLock:
		return sharedLock{}, nil
	case ModeIsolated:
		return isolated{}, nil
	default:
		return nil, fmt.Errorf("unknown execution mode %q", m)
	}
}

// sharedLock runs the worker on a goroutine that shares the payload with
// the caller by reference.
type sharedLock struct{}

func (sharedLock) Spawn(payload any, run func(payload any), ctl *mailbox.Control, mbox *mailbox.Mailbox) (*Join, error) {
	j := &Join{done: make(chan struct{})}
	go execute(payload, run, ctl, mbox, j)
	return j, nil
}

func (sharedLock) Terminated(j *Join) bool { return terminated(j) }

// isolated runs the worker on a goroutine that owns a deep copy of the
// payload. Non-transferable payloads fail Spawn synchronously.
type isolated struct{}

func (isolated) Spawn(payload any, run func(payload any), ctl *mailbox.Control, mbox *mailbox.Mailbox) (*Join, error) {
	copied, err := TransferCopy(payload)
	if err != nil {
		return nil, err
	}
	j := &Join{done: make(chan struct{})}
	go execute(copied, run, ctl, mbox, j)
	return j, nil
}

func (isolated) Terminated(j *Join) bool { return terminated(j) }

// execute is the shared worker body. Defer order matters: a panic escaping
// run is converted to the failed terminal signal, then the mailbox is
// sealed, then the join is released.
func execute(payload any, run func(payload any), ctl *mailbox.Control, mbox *mailbox.Mailbox, j *Join) {
	defer close(j.done)
	defer mbox.Seal()
	defer func() {
		if r := recover(); r != nil {
			ctl.Finish(mailbox.Signal{
				Outcome: mailbox.OutcomeFailed,
				Err:     fmt.Errorf("worker panicked: %v", r),
			})
		}
	}()
	run(payload)
}

func terminated(j *Join) bool {
	if j == nil {
		return true
	}
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}
