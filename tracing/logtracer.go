package tracing

import (
	"context"
	"log/slog"

	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/sim/hooking"
)

// LogTracer writes every event to a logger.
type LogTracer struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogTracer creates a LogTracer logging at level.
func NewLogTracer(logger *slog.Logger, level slog.Level) *LogTracer {
	return &LogTracer{logger: logger, level: level}
}

// Func logs the event carried by ctx.
func (t *LogTracer) Func(ctx hooking.HookCtx) {
	e, ok := ctx.Item.(vm.Event)
	if !ok {
		return
	}

	t.logger.LogAttrs(context.Background(), t.level, "vm event",
		slog.String("pos", ctx.Pos.Name),
		slog.Uint64("pid", uint64(e.PID)),
		slog.Uint64("va", e.VAddr),
		slog.Uint64("kva", e.KVA),
		slog.String("kind", e.Kind.String()),
		slog.Bool("ok", e.OK),
	)
}
