package vm

import "github.com/sarchlab/vmsim/sim/hooking"

// Hook positions of a System. The item of every hook context is an Event.
var (
	HookPosFault     = &hooking.HookPos{Name: "Fault"}
	HookPosClaim     = &hooking.HookPos{Name: "Claim"}
	HookPosEvict     = &hooking.HookPos{Name: "Evict"}
	HookPosSwapIn    = &hooking.HookPos{Name: "SwapIn"}
	HookPosSwapOut   = &hooking.HookPos{Name: "SwapOut"}
	HookPosWriteBack = &hooking.HookPos{Name: "WriteBack"}
	HookPosMap       = &hooking.HookPos{Name: "Map"}
	HookPosUnmap     = &hooking.HookPos{Name: "Unmap"}
	HookPosFork      = &hooking.HookPos{Name: "Fork"}
	HookPosExit      = &hooking.HookPos{Name: "Exit"}
)

// An Event describes what happened at a hook position.
type Event struct {
	PID   PID
	VAddr uint64
	KVA   uint64
	Kind  VariantKind

	// OK is false for faults that could not be resolved.
	OK bool
}

func (s *System) invokeHook(pos *hooking.HookPos, p *Page, f *Frame) {
	if s.NumHooks() == 0 {
		return
	}

	e := Event{PID: p.pid(), VAddr: p.vAddr, Kind: p.Kind(), OK: true}
	if f != nil {
		e.KVA = f.kva
	}

	s.InvokeHook(hooking.HookCtx{Domain: s, Pos: pos, Item: e})
}

func (s *System) invokeEventHook(pos *hooking.HookPos, e Event) {
	if s.NumHooks() == 0 {
		return
	}

	s.InvokeHook(hooking.HookCtx{Domain: s, Pos: pos, Item: e})
}
