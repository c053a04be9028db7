package mailbox

import "sync"

// Message is a control message sent from the UI side to a running worker.
type Message string

const (
	// MsgNone is returned by Poll when no message is pending.
	MsgNone   Message = ""
	MsgPause  Message = "pause"
	MsgResume Message = "resume"
	MsgStop   Message = "stop"
)

// Outcome classifies the single terminal signal a worker produces.
type Outcome string

const (
	OutcomeDone    Outcome = "done"    // work function returned normally
	OutcomeStopped Outcome = "stopped" // work function honored a stop message
	OutcomeFailed  Outcome = "error"   // work function returned an error or panicked
)

// Signal is the terminal signal carried back from the worker. Err is set
// only for OutcomeFailed.
type Signal struct {
	Outcome Outcome
	Err     error
}

// Control is the duplex signaling channel between the UI side and one
// worker. Control messages are queued FIFO and never dropped or coalesced;
// the terminal signal is produced at most once per Control.
//
// Send is called from the UI side; Poll, AwaitResume, and Finish from the
// worker; Terminal from the poller.
type Control struct {
	mu    sync.Mutex
	cond  *sync.Cond
	queue []Message

	term     chan Signal
	termOnce sync.Once
}

// NewControl creates an empty Control.
func NewControl() *Control {
	c := &Control{term: make(chan Signal, 1)}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Send enqueues a control message. Never blocks.
func (c *Control) Send(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue = append(c.queue, msg)
	c.cond.Broadcast()
}

// Poll removes and returns the next pending message, or MsgNone when the
// queue is empty. Never blocks.
func (c *Control) Poll() Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return MsgNone
	}
	msg := c.queue[0]
	c.queue = c.queue[1:]
	return msg
}

// AwaitResume blocks the calling worker until a resume message arrives,
// consuming it. Messages observed while waiting that are not the resume
// (a queued stop, a redundant pause) are retained in order for later Polls.
func (c *Control) AwaitResume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var held []Message
	for {
		for len(c.queue) == 0 {
			c.cond.Wait()
		}
		msg := c.queue[0]
		c.queue = c.queue[1:]
		if msg == MsgResume {
			c.queue = append(held, c.queue...)
			return
		}
		held = append(held, msg)
	}
}

// Finish records the terminal signal. Only the first call has any effect;
// the exactly-one-terminal-signal invariant is enforced here.
func (c *Control) Finish(sig Signal) {
	c.termOnce.Do(func() {
		c.term <- sig
	})
}

// Terminal is the poller-side non-blocking check for the terminal signal.
func (c *Control) Terminal() (Signal, bool) {
	select {
	case sig := <-c.term:
		return sig, true
	default:
		return Signal{}, false
	}
}
