package task

import (
	"sync"
	"time"

	"taskloop/internal/backend"
)

// Config is the process-wide scheduling configuration. It is mutable global
// state by design, but each Schedule call snapshots it, so changing it never
// retroactively affects a task that is already running.
type Config struct {
	// DefaultMode is the execution mode used when Options.Mode is unset.
	DefaultMode backend.Mode
	// DefaultPollInterval is the poll interval used when Options.PollInterval
	// is unset. Roughly one UI frame by default.
	DefaultPollInterval time.Duration
	// AbortOnWorkerError converts a worker error from a callback delivery
	// into a loop-visible fault: the captured error is returned from the
	// poll tick itself, after OnError callbacks have fired.
	AbortOnWorkerError bool
}

var (
	defaultsMu sync.Mutex
	defaults   = Config{
		DefaultMode:         backend.ModeSharedLock,
		DefaultPollInterval: 16 * time.Millisecond,
	}
)

// SetDefaults replaces the process-wide configuration. Tasks scheduled
// before the call keep the configuration they were scheduled under.
func SetDefaults(c Config) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaults = c
}

// CurrentDefaults returns a copy of the process-wide configuration.
func CurrentDefaults() Config {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	return defaults
}

// Options overrides the process-wide configuration for one Schedule call.
// Zero values fall back to the configured defaults.
type Options struct {
	Mode         backend.Mode
	PollInterval time.Duration
}
