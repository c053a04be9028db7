package ui

import (
	"time"

	"taskloop/internal/mailbox"
	"taskloop/internal/task"
)

// DemoPayload drives one demo worker. All fields are exported so the
// payload is transferable to an isolated worker.
type DemoPayload struct {
	Steps     int
	StepDelay time.Duration
}

// DemoWork is a cooperative CPU-shaped worker: it yields fractional
// progress after every step and honors pause and stop between steps.
func DemoWork(h *task.Handle, payload any) error {
	p := payload.(DemoPayload)
	for i := 1; i <= p.Steps; i++ {
		if h.CheckMessage() == mailbox.MsgStop {
			return nil
		}
		h.CheckPause()
		if p.StepDelay > 0 {
			time.Sleep(p.StepDelay)
		}
		h.Yield(float64(i) / float64(p.Steps))
	}
	return nil
}
