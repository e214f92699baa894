package tracing

import (
	"encoding/csv"
	"io"
	"strconv"
	"sync"

	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/sim/hooking"
)

// CSVTracer writes one line per event.
type CSVTracer struct {
	lock   sync.Mutex
	writer *csv.Writer
	seq    uint64
}

// NewCSVTracer creates a CSVTracer and writes the header.
func NewCSVTracer(w io.Writer) *CSVTracer {
	t := &CSVTracer{writer: csv.NewWriter(w)}

	t.write([]string{"Seq", "Position", "PID", "VAddr", "KVA", "Kind", "OK"})

	return t
}

// Func writes the event carried by ctx.
func (t *CSVTracer) Func(ctx hooking.HookCtx) {
	e, ok := ctx.Item.(vm.Event)
	if !ok {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.seq++
	t.write([]string{
		strconv.FormatUint(t.seq, 10),
		ctx.Pos.Name,
		strconv.FormatUint(uint64(e.PID), 10),
		"0x" + strconv.FormatUint(e.VAddr, 16),
		"0x" + strconv.FormatUint(e.KVA, 16),
		e.Kind.String(),
		strconv.FormatBool(e.OK),
	})
}

func (t *CSVTracer) write(record []string) {
	err := t.writer.Write(record)
	if err != nil {
		panic(err)
	}
}

// Flush writes buffered lines to the underlying writer.
func (t *CSVTracer) Flush() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.writer.Flush()

	return t.writer.Error()
}
