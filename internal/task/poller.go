package task

import "taskloop/internal/mailbox"

// poll is the task's poll tick, registered with the host loop at Schedule
// time and invoked on the UI thread. The terminal check always runs before
// the progress drain, so no progress callback can ever fire after the
// terminal callback.
func (t *Task) poll() error {
	if sig, ok := t.ctl.Terminal(); ok {
		return t.settle(sig)
	}
	t.drainProgress()
	return nil
}

// drainProgress delivers the latest undelivered progress value, if any,
// reporting coalesced drops through OnDiagnostic first.
func (t *Task) drainProgress() {
	v, drops, ok := t.mbox.Take()
	if !ok {
		return
	}

	t.mu.Lock()
	t.drops += drops
	t.delivered++
	progressFns := append([]func(any){}, t.progressFns...)
	var diagFns []func(Diagnostic)
	if drops > 0 {
		diagFns = append([]func(Diagnostic){}, t.diagFns...)
	}
	t.mu.Unlock()

	for _, fn := range diagFns {
		fn(Diagnostic{Dropped: drops})
	}
	for _, fn := range progressFns {
		fn(v)
	}
}

// settle handles the terminal signal: delivers or discards the last pending
// progress value, transitions to the terminal state, fires the terminal
// callbacks, and unregisters the poller. Runs at most once per task.
func (t *Task) settle(sig mailbox.Signal) error {
	// A normally completed worker gets its final progress value delivered
	// ahead of OnDone; a stopped or failed worker's undelivered progress is
	// stale and is discarded.
	if sig.Outcome == mailbox.OutcomeDone {
		t.drainProgress()
	} else {
		t.mbox.Take()
	}

	t.mu.Lock()
	switch sig.Outcome {
	case mailbox.OutcomeStopped:
		t.state = StateStopped
	case mailbox.OutcomeFailed:
		t.state = StateFailed
		t.err = sig.Err
	default:
		t.state = StateDone
	}
	t.settled = true
	doneFns := append([]func(){}, t.doneFns...)
	errorFns := append([]func(error){}, t.errorFns...)
	cancel := t.cancelPoll
	t.cancelPoll = nil
	state, err, drops, delivered := t.state, t.err, t.drops, t.delivered
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	t.registry.remove(t.id)
	t.span.end(state, err, drops, delivered)

	if state == StateFailed {
		for _, fn := range errorFns {
			fn(err)
		}
		if t.cfg.AbortOnWorkerError {
			return err
		}
		return nil
	}
	for _, fn := range doneFns {
		fn()
	}
	return nil
}
