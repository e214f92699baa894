package vm

import (
	"fmt"
	"log"
	"log/slog"
	"sync"
)

// A Frame is one page-sized unit of physical memory.
type Frame struct {
	kva  uint64
	data []byte

	// page is a lookup-only back reference to the page bound to the frame.
	page   *Page
	pinned bool
}

// KVA returns the kernel address of the frame.
func (f *Frame) KVA() uint64 {
	return f.kva
}

// Data returns the memory of the frame.
func (f *Frame) Data() []byte {
	return f.data
}

// evictor persists the page bound to a victim frame and tears down its
// mapping.
type evictor interface {
	evict(p *Page) error
}

// A FrameManager owns all frames of the physical memory and hands them out to
// pages, evicting resident pages when none is free.
type FrameManager struct {
	lock     sync.Mutex
	unpinned *sync.Cond

	frames       []*Frame
	free         []*Frame
	victimFinder VictimFinder
	evictor      evictor
	log          *slog.Logger
}

// NewFrameManager splits mem into frames of pageSize bytes.
func NewFrameManager(
	mem PhysicalMemory,
	pageSize uint64,
	victimFinder VictimFinder,
) *FrameManager {
	numFrames := mem.Capacity() / pageSize
	if numFrames == 0 {
		log.Panicf("physical memory of %d bytes holds no %d-byte frame",
			mem.Capacity(), pageSize)
	}

	m := &FrameManager{
		frames:       make([]*Frame, numFrames),
		free:         make([]*Frame, 0, numFrames),
		victimFinder: victimFinder,
		log:          slog.New(slog.DiscardHandler),
	}
	m.unpinned = sync.NewCond(&m.lock)

	for i := uint64(0); i < numFrames; i++ {
		kva := mem.Base() + i*pageSize
		m.frames[i] = &Frame{
			kva:  kva,
			data: mem.Bytes(kva, pageSize),
		}
	}

	for i := len(m.frames) - 1; i >= 0; i-- {
		m.free = append(m.free, m.frames[i])
	}

	return m
}

// NumFrames returns the number of frames managed.
func (m *FrameManager) NumFrames() int {
	return len(m.frames)
}

// NumFree returns the number of frames in the free pool.
func (m *FrameManager) NumFree() int {
	m.lock.Lock()
	defer m.lock.Unlock()

	return len(m.free)
}

// Allocate returns a zero-filled frame that is not bound to any page. The
// frame comes back pinned; the caller unpins it with Unpin, or returns it
// with Free. When the pool is empty a resident page is evicted to make room.
// Allocate blocks while every resident frame is pinned and panics when no
// frame can ever be evicted.
func (m *FrameManager) Allocate() *Frame {
	f, err := m.allocate()
	if err != nil {
		log.Panic(err)
	}

	return f
}

func (m *FrameManager) allocate() (*Frame, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	failed := make(map[*Frame]bool)

	for {
		if n := len(m.free); n > 0 {
			f := m.free[n-1]
			m.free = m.free[:n-1]
			clear(f.data)
			f.pinned = true

			return f, nil
		}

		victim, found := m.victimFinder.FindVictim(m.frames,
			func(f *Frame) bool { return failed[f] })
		if !found {
			if !m.waitForVictim(failed) {
				return nil, fmt.Errorf("%w: none of %d frames can be evicted",
					ErrOutOfMemory, len(m.frames))
			}

			continue
		}

		page := victim.page

		err := m.evictor.evict(page)
		if err != nil {
			m.log.Warn("eviction failed",
				"pid", page.pid(), "va", page.vAddr, "err", err)
			failed[victim] = true

			continue
		}

		m.unbind(victim)
		clear(victim.data)
		victim.pinned = true

		return victim, nil
	}
}

// waitForVictim blocks until a pinned frame is released. It returns false
// without waiting if nothing is pinned, as no frame can become a victim then.
func (m *FrameManager) waitForVictim(failed map[*Frame]bool) bool {
	for _, f := range m.frames {
		if f.pinned {
			m.unpinned.Wait()
			clear(failed)

			return true
		}
	}

	return false
}

// Free returns f to the pool. The frame must already be unbound.
func (m *FrameManager) Free(f *Frame) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.freeLocked(f)
}

func (m *FrameManager) freeLocked(f *Frame) {
	if f.page != nil {
		log.Panicf("freeing frame 0x%x still bound to %s", f.kva, f.page)
	}

	f.pinned = false
	m.free = append(m.free, f)
	m.unpinned.Broadcast()
}

// bind links f and p and pins f until Unpin. It returns false and leaves
// both untouched if p already has a frame.
func (m *FrameManager) bind(f *Frame, p *Page) bool {
	m.lock.Lock()
	defer m.lock.Unlock()

	if f.page != nil {
		log.Panicf("binding frame 0x%x to %s while bound to %s",
			f.kva, p, f.page)
	}

	if p.frame != nil {
		return false
	}

	f.page = p
	f.pinned = true
	p.frame = f

	return true
}

func (m *FrameManager) unbind(f *Frame) {
	f.page.frame = nil
	f.page = nil
	f.pinned = false
}

// release unbinds f from its page and returns it to the pool.
func (m *FrameManager) release(f *Frame) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.unbind(f)
	m.freeLocked(f)
}

// pinPage pins the frame of p so that it cannot be evicted, and returns it.
// It returns nil if p is not resident.
func (m *FrameManager) pinPage(p *Page) *Frame {
	m.lock.Lock()
	defer m.lock.Unlock()

	f := p.frame
	if f != nil {
		f.pinned = true
	}

	return f
}

// Unpin makes f eligible for eviction again.
func (m *FrameManager) Unpin(f *Frame) {
	m.lock.Lock()
	defer m.lock.Unlock()

	f.pinned = false
	m.unpinned.Broadcast()
}

// awaitResident blocks while the frame of p is pinned by a claim in progress
// and reports whether p is resident afterwards.
func (m *FrameManager) awaitResident(p *Page) bool {
	m.lock.Lock()
	defer m.lock.Unlock()

	for p.frame != nil && p.frame.pinned {
		m.unpinned.Wait()
	}

	return p.frame != nil
}

// isResident reports whether p currently has a frame.
func (m *FrameManager) isResident(p *Page) bool {
	return m.frameOf(p) != nil
}

func (m *FrameManager) frameOf(p *Page) *Frame {
	m.lock.Lock()
	defer m.lock.Unlock()

	return p.frame
}

// FrameInfo describes the state of one frame.
type FrameInfo struct {
	KVA    uint64 `json:"kva"`
	Bound  bool   `json:"bound"`
	PID    PID    `json:"pid"`
	VAddr  uint64 `json:"vaddr"`
	Pinned bool   `json:"pinned"`
}

// Frames returns the state of every frame, in kernel address order.
func (m *FrameManager) Frames() []FrameInfo {
	m.lock.Lock()
	defer m.lock.Unlock()

	infos := make([]FrameInfo, 0, len(m.frames))
	for _, f := range m.frames {
		info := FrameInfo{KVA: f.kva, Pinned: f.pinned}
		if f.page != nil {
			info.Bound = true
			info.PID = f.page.pid()
			info.VAddr = f.page.vAddr
		}

		infos = append(infos, info)
	}

	return infos
}
