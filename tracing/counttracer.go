package tracing

import (
	"sync"

	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/sim/hooking"
)

// FailedFaults is the counter of faults that could not be resolved.
const FailedFaults = "FailedFault"

// CountTracer counts how often each hook position is reached.
type CountTracer struct {
	lock   sync.Mutex
	names  []string
	counts map[string]uint64
}

// NewCountTracer creates a CountTracer with all counters at zero.
func NewCountTracer() *CountTracer {
	return &CountTracer{
		counts: make(map[string]uint64),
	}
}

// Func counts the position of ctx.
func (t *CountTracer) Func(ctx hooking.HookCtx) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.count(ctx.Pos.Name)

	if e, ok := ctx.Item.(vm.Event); ok && ctx.Pos == vm.HookPosFault && !e.OK {
		t.count(FailedFaults)
	}
}

func (t *CountTracer) count(name string) {
	if _, ok := t.counts[name]; !ok {
		t.names = append(t.names, name)
	}

	t.counts[name]++
}

// Count returns the counter of a position.
func (t *CountTracer) Count(name string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.counts[name]
}

// Names returns the counters in the order they were first reached.
func (t *CountTracer) Names() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]string(nil), t.names...)
}

// Counts returns a copy of all counters.
func (t *CountTracer) Counts() map[string]uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	counts := make(map[string]uint64, len(t.counts))
	for name, n := range t.counts {
		counts[name] = n
	}

	return counts
}
