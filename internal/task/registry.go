package task

import (
	"sort"
	"sync"
)

// Registry tracks live tasks so the UI can enumerate them. Tasks register
// themselves at Schedule time and drop out when their poller settles them.
// Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tasks map[uint64]*Task
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[uint64]*Task)}
}

func (r *Registry) add(t *Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.id] = t
}

func (r *Registry) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
}

// All returns the live tasks in scheduling order.
func (r *Registry) All() []*Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Count returns the number of live tasks.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

// live is the process-wide registry all scheduled tasks join.
var live = NewRegistry()

// Live returns the currently live tasks in scheduling order.
func Live() []*Task { return live.All() }

// LiveCount returns the number of currently live tasks.
func LiveCount() int { return live.Count() }
