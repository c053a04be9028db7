package task

import "taskloop/internal/mailbox"

// Handle is the worker-facing capability for one task. It is handed to the
// work function and must not be retained or used after the work function
// returns. All methods are called from the worker goroutine only; the
// handle itself needs no locking.
type Handle struct {
	task *Task

	paused  bool            // a pause message has been observed and not yet resumed
	sawStop bool            // a stop message has been observed
	stashed mailbox.Message // message consumed by CheckPause, owed to CheckMessage
}

// Yield publishes v as the task's latest progress value. Never blocks: an
// undelivered prior value is overwritten and counted as a drop. A yield
// issued after the task has terminated is a no-op.
func (h *Handle) Yield(v any) {
	h.task.mbox.Put(v)
}

// CheckMessage consumes and returns the next pending control message:
// mailbox.MsgPause, mailbox.MsgStop, or mailbox.MsgNone when the queue is
// empty. Resume messages are absorbed here (they only matter to CheckPause).
// Never blocks.
func (h *Handle) CheckMessage() mailbox.Message {
	if h.stashed != mailbox.MsgNone {
		msg := h.stashed
		h.stashed = mailbox.MsgNone
		return msg
	}
	for {
		switch msg := h.task.ctl.Poll(); msg {
		case mailbox.MsgPause:
			h.paused = true
			return msg
		case mailbox.MsgStop:
			h.sawStop = true
			return msg
		case mailbox.MsgResume:
			h.paused = false
		default:
			return mailbox.MsgNone
		}
	}
}

// CheckPause blocks the worker until a resume message arrives if a pause is
// pending (observed either by a prior CheckMessage or by this call);
// otherwise it returns immediately. This is the only blocking primitive
// exposed to worker code. A stop message encountered while checking is not
// lost: the next CheckMessage returns it.
func (h *Handle) CheckPause() {
	h.observePending()
	if !h.paused {
		return
	}
	h.task.setState(StatePaused)
	h.task.ctl.AwaitResume()
	h.paused = false
	h.task.setState(StateRunning)
}

// observePending drains the control queue without blocking, updating the
// pause flag. At most one stop can be pending per observation pass; it is
// stashed for the next CheckMessage rather than swallowed.
func (h *Handle) observePending() {
	for {
		switch msg := h.task.ctl.Poll(); msg {
		case mailbox.MsgPause:
			h.paused = true
		case mailbox.MsgResume:
			h.paused = false
		case mailbox.MsgStop:
			h.sawStop = true
			h.stashed = mailbox.MsgStop
		default:
			return
		}
	}
}
