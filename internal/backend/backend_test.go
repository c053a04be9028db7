package backend

import (
	"errors"
	"testing"
	"time"

	"taskloop/internal/mailbox"
)

func waitTerminated(t *testing.T, a Adapter, j *Join) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !a.Terminated(j) {
		if time.Now().After(deadline) {
			t.Fatal("worker did not terminate in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestModeValid(t *testing.T) {
	tests := []struct {
		mode Mode
		want bool
	}{
		{ModeSharedLock, true},
		{ModeIsolated, true},
		{Mode(""), false},
		{Mode("process_pool"), false},
	}
	for _, tt := range tests {
		if got := tt.mode.Valid(); got != tt.want {
			t.Errorf("Mode(%q).Valid() = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestForModeUnknown(t *testing.T) {
	if _, err := ForMode(Mode("bogus")); err == nil {
		t.Error("ForMode(bogus) did not return an error")
	}
}

func TestSharedLockSpawnRunsAndTerminates(t *testing.T) {
	a, _ := ForMode(ModeSharedLock)
	ctl := mailbox.NewControl()
	mbox := mailbox.New()

	got := make(chan any, 1)
	j, err := a.Spawn("payload", func(p any) {
		got <- p
		ctl.Finish(mailbox.Signal{Outcome: mailbox.OutcomeDone})
	}, ctl, mbox)
	if err != nil {
		t.Fatalf("Spawn() error: %v", err)
	}

	waitTerminated(t, a, j)
	if p := <-got; p != "payload" {
		t.Errorf("worker received payload %v, want \"payload\"", p)
	}
	sig, ok := ctl.Terminal()
	if !ok || sig.Outcome != mailbox.OutcomeDone {
		t.Errorf("terminal = (%+v, %v), want done signal", sig, ok)
	}
}

func TestSharedLockPayloadAliased(t *testing.T) {
	a, _ := ForMode(ModeSharedLock)
	ctl := mailbox.NewControl()
	payload := map[string]int{"n": 1}

	j, err := a.Spawn(payload, func(p any) {
		p.(map[string]int)["n"] = 2
		ctl.Finish(mailbox.Signal{Outcome: mailbox.OutcomeDone})
	}, ctl, mailbox.New())
	if err != nil {
		t.Fatalf("Spawn() error: %v", err)
	}
	waitTerminated(t, a, j)

	// Shared-lock mode passes the payload by reference.
	if payload["n"] != 2 {
		t.Errorf("caller map n = %d, want 2 (aliased)", payload["n"])
	}
}

func TestIsolatedPayloadCopied(t *testing.T) {
	a, _ := ForMode(ModeIsolated)
	ctl := mailbox.NewControl()
	payload := map[string]int{"n": 1}

	j, err := a.Spawn(payload, func(p any) {
		p.(map[string]int)["n"] = 2
		ctl.Finish(mailbox.Signal{Outcome: mailbox.OutcomeDone})
	}, ctl, mailbox.New())
	if err != nil {
		t.Fatalf("Spawn() error: %v", err)
	}
	waitTerminated(t, a, j)

	// Isolated mode must hand the worker an independent copy.
	if payload["n"] != 1 {
		t.Errorf("caller map n = %d, want 1 (worker got a copy)", payload["n"])
	}
}

func TestIsolatedRejectsNonTransferable(t *testing.T) {
	a, _ := ForMode(ModeIsolated)
	ran := false
	_, err := a.Spawn(map[string]any{"cb": func() {}}, func(any) {
		ran = true
	}, mailbox.NewControl(), mailbox.New())

	if !errors.Is(err, ErrNotTransferable) {
		t.Fatalf("Spawn() error = %v, want ErrNotTransferable", err)
	}
	if ran {
		t.Error("run closure executed despite construction error")
	}
}

func TestPanicBecomesFailedSignal(t *testing.T) {
	a, _ := ForMode(ModeSharedLock)
	ctl := mailbox.NewControl()
	mbox := mailbox.New()

	j, err := a.Spawn(nil, func(any) {
		panic("boom")
	}, ctl, mbox)
	if err != nil {
		t.Fatalf("Spawn() error: %v", err)
	}
	waitTerminated(t, a, j)

	sig, ok := ctl.Terminal()
	if !ok {
		t.Fatal("no terminal signal after panic")
	}
	if sig.Outcome != mailbox.OutcomeFailed || sig.Err == nil {
		t.Errorf("terminal = %+v, want failed signal with error", sig)
	}

	// The mailbox is sealed once the worker is gone.
	mbox.Put("stray")
	if _, _, ok := mbox.Take(); ok {
		t.Error("mailbox accepted a write after worker termination")
	}
}

func TestTerminatedNilJoin(t *testing.T) {
	a, _ := ForMode(ModeSharedLock)
	if !a.Terminated(nil) {
		t.Error("Terminated(nil) = false, want true")
	}
}
