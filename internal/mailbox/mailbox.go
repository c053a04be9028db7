// Package mailbox provides the two signaling primitives that connect a
// background worker to the UI-side poller: a single-slot coalescing Mailbox
// for progress values, and a lossless Control queue for pause/resume/stop
// messages plus the one terminal signal a worker produces.
//
// A Mailbox/Control pair belongs to exactly one task; pairs are never shared.
package mailbox

import "sync"

// Mailbox is a single-slot, latest-value-wins channel for progress values.
// A writer that outpaces the reader overwrites the undelivered slot and the
// overwritten values are counted as drops. Put never blocks and Take never
// blocks, so the worker's yield rate and the UI's poll rate are fully
// decoupled.
type Mailbox struct {
	mu     sync.Mutex
	value  any
	full   bool
	drops  int
	sealed bool
}

// New creates an empty Mailbox.
func New() *Mailbox {
	return &Mailbox{}
}

// Put stores v as the latest progress value, overwriting any undelivered
// prior value (which counts as a drop). After Seal, Put is a no-op.
func (m *Mailbox) Put(v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sealed {
		return
	}
	if m.full {
		m.drops++
	}
	m.value = v
	m.full = true
}

// Take removes and returns the latest value along with the number of values
// dropped since the previous Take. ok is false when the slot is empty.
func (m *Mailbox) Take() (v any, drops int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.full {
		return nil, 0, false
	}
	v, drops = m.value, m.drops
	m.value = nil
	m.full = false
	m.drops = 0
	return v, drops, true
}

// Seal permanently closes the mailbox for writing. Called once the worker has
// produced its terminal signal; any stray Put from a retained handle after
// that point is a no-op.
func (m *Mailbox) Seal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sealed = true
}
