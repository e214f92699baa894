// Package tracing observes a virtual memory system through its hooks.
package tracing

import (
	"context"
	"sync"

	"github.com/sarchlab/vmsim/datarecording"
	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/sim/hooking"
	"github.com/sarchlab/vmsim/sim/id"
)

// EventTable is the table that holds the recorded events.
const EventTable = "vm_events"

// An EventEntry is a row of the vm_events table.
type EventEntry struct {
	ID       string
	Seq      uint64
	Position string
	PID      uint32
	VAddr    uint64
	KVA      uint64
	Kind     string
	OK       bool
}

// An EventRecorder stores every event of a system in the vm_events table of
// a data recorder.
type EventRecorder struct {
	lock      sync.Mutex
	recorder  datarecording.DataRecorder
	idGen     id.IDGenerator
	tableName string
	seq       uint64
}

// NewEventRecorder creates the vm_events table in recorder.
func NewEventRecorder(recorder datarecording.DataRecorder) *EventRecorder {
	r := &EventRecorder{
		recorder:  recorder,
		idGen:     id.NewParallelIDGenerator(),
		tableName: EventTable,
	}

	recorder.CreateTable(r.tableName, EventEntry{})

	return r
}

// Func records the event carried by ctx.
func (r *EventRecorder) Func(ctx hooking.HookCtx) {
	e, ok := ctx.Item.(vm.Event)
	if !ok {
		return
	}

	r.lock.Lock()
	r.seq++
	entry := EventEntry{
		ID:       r.idGen.Generate(),
		Seq:      r.seq,
		Position: ctx.Pos.Name,
		PID:      uint32(e.PID),
		VAddr:    e.VAddr,
		KVA:      e.KVA,
		Kind:     e.Kind.String(),
		OK:       e.OK,
	}
	r.lock.Unlock()

	r.recorder.InsertData(r.tableName, entry)
}

// An EventFilter selects recorded events. The zero filter selects all of
// them.
type EventFilter struct {
	// PID only applies if ByPID is set, as 0 is a valid PID.
	PID   vm.PID
	ByPID bool

	Position string
	Limit    int
	Offset   int
}

func (f EventFilter) query() datarecording.Query {
	q := datarecording.Select().OrderBy("Seq").Page(f.Limit, f.Offset)

	if f.ByPID {
		q = q.Where("PID", uint32(f.PID))
	}

	if f.Position != "" {
		q = q.Where("Position", f.Position)
	}

	return q
}

// ReadEvents returns the recorded events that pass f, in the order they
// happened, and the number of events that pass f regardless of its limit
// and offset.
func ReadEvents(
	ctx context.Context,
	r *datarecording.Reader,
	f EventFilter,
) ([]EventEntry, int, error) {
	r.Register(EventTable, EventEntry{})

	return datarecording.ReadAs[EventEntry](ctx, r, EventTable, f.query())
}
