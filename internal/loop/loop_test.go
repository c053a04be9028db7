package loop

import (
	"errors"
	"testing"
	"time"
)

func TestRegisterAndTickAll(t *testing.T) {
	m := NewManual()
	calls := 0
	m.RegisterPoll(time.Second, func() error {
		calls++
		return nil
	})

	if err := m.TickAll(); err != nil {
		t.Fatalf("TickAll() error: %v", err)
	}
	m.TickAll()
	if calls != 2 {
		t.Errorf("callback ran %d times, want 2", calls)
	}
}

func TestCancelUnregisters(t *testing.T) {
	m := NewManual()
	calls := 0
	cancel := m.RegisterPoll(time.Second, func() error {
		calls++
		return nil
	})

	cancel()
	m.TickAll()
	if calls != 0 {
		t.Errorf("callback ran %d times after cancel, want 0", calls)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d after cancel, want 0", m.Len())
	}
}

func TestCancelFromWithinCallback(t *testing.T) {
	m := NewManual()
	calls := 0
	var cancel func()
	cancel = m.RegisterPoll(time.Second, func() error {
		calls++
		cancel()
		return nil
	})

	m.TickAll()
	m.TickAll()
	if calls != 1 {
		t.Errorf("self-unregistering callback ran %d times, want 1", calls)
	}
}

func TestTickHonorsInterval(t *testing.T) {
	m := NewManual()
	calls := 0
	m.RegisterPoll(100*time.Millisecond, func() error {
		calls++
		return nil
	})

	base := time.Now()
	m.Tick(base)                            // first tick always fires
	m.Tick(base.Add(10 * time.Millisecond)) // too soon
	m.Tick(base.Add(120 * time.Millisecond))
	if calls != 2 {
		t.Errorf("callback ran %d times, want 2", calls)
	}
}

func TestTickReturnsFirstError(t *testing.T) {
	m := NewManual()
	boom := errors.New("boom")
	ran := 0
	m.RegisterPoll(0, func() error { ran++; return boom })
	m.RegisterPoll(0, func() error { ran++; return nil })

	err := m.TickAll()
	if !errors.Is(err, boom) {
		t.Errorf("TickAll() error = %v, want boom", err)
	}
	// All callbacks still run even when an earlier one fails.
	if ran != 2 {
		t.Errorf("%d callbacks ran, want 2", ran)
	}
}
