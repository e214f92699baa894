package vm

import (
	"fmt"
	"log"
	"log/slog"
	"sort"
	"sync"

	"github.com/sarchlab/vmsim/sim/hooking"
)

// ForkMappingPolicy decides what happens to memory-mapped files when an
// address space is copied.
type ForkMappingPolicy int

const (
	// ForkSkipMappings leaves mappings out of the copy.
	ForkSkipMappings ForkMappingPolicy = iota

	// ForkInheritMappings gives the copy its own handles to the same files,
	// under the same mapping base addresses.
	ForkInheritMappings
)

func (p ForkMappingPolicy) String() string {
	if p == ForkInheritMappings {
		return "inherit"
	}

	return "skip"
}

// A System is the virtual memory subsystem shared by all address spaces.
type System struct {
	hooking.HookableBase

	pageSize     uint64
	log2PageSize uint64
	userTop      uint64
	forkPolicy   ForkMappingPolicy

	frames *FrameManager
	mmu    MMU
	swap   SwapDevice

	// fsLock serializes every file system call made by the system. It is
	// coarse on purpose and may be shared with other file system users.
	fsLock *sync.Mutex

	log *slog.Logger

	spacesLock sync.Mutex
	spaces     map[PID]*AddressSpace
}

// PageSize returns the size of a page in bytes.
func (s *System) PageSize() uint64 {
	return s.pageSize
}

// UserTop returns the first address that is not a user address.
func (s *System) UserTop() uint64 {
	return s.userTop
}

// FrameManager returns the frame manager of the system.
func (s *System) FrameManager() *FrameManager {
	return s.frames
}

// FileLock returns the lock that serializes file system access.
func (s *System) FileLock() *sync.Mutex {
	return s.fsLock
}

func (s *System) pageOffset(addr uint64) uint64 {
	return addr & (s.pageSize - 1)
}

func (s *System) isUserAddr(addr uint64) bool {
	return addr != 0 && addr < s.userTop
}

// NewAddressSpace creates an address space with an empty supplemental page
// table. The address space takes ownership of executable, which may be nil.
func (s *System) NewAddressSpace(pid PID, executable File) *AddressSpace {
	space := &AddressSpace{
		pid:        pid,
		spt:        NewSupplementalPageTable(s.log2PageSize),
		Executable: executable,
	}

	s.spacesLock.Lock()
	defer s.spacesLock.Unlock()

	if _, found := s.spaces[pid]; found {
		log.Panicf("address space %d already exists", pid)
	}

	s.spaces[pid] = space

	return space
}

// AddressSpace returns the live address space of a process.
func (s *System) AddressSpace(pid PID) (*AddressSpace, bool) {
	s.spacesLock.Lock()
	defer s.spacesLock.Unlock()

	space, found := s.spaces[pid]

	return space, found
}

// AddressSpaces returns the live address spaces ordered by PID.
func (s *System) AddressSpaces() []*AddressSpace {
	s.spacesLock.Lock()
	defer s.spacesLock.Unlock()

	spaces := make([]*AddressSpace, 0, len(s.spaces))
	for _, space := range s.spaces {
		spaces = append(spaces, space)
	}

	sort.Slice(spaces, func(i, j int) bool {
		return spaces[i].pid < spaces[j].pid
	})

	return spaces
}

// AllocPage registers an uninitialized page at vAddr that becomes a page of
// the given kind on its first fault, when init runs with aux.
func (s *System) AllocPage(
	space *AddressSpace,
	kind VariantKind,
	vAddr uint64,
	writable bool,
	init Initializer,
	aux Aux,
) error {
	if kind == KindUninit {
		log.Panicf("cannot allocate a page that stays uninitialized")
	}

	if !s.isUserAddr(vAddr) || s.pageOffset(vAddr) != 0 {
		return fmt.Errorf("%w: 0x%x", ErrBadAddress, vAddr)
	}

	p := newUninitPage(space, vAddr, writable, kind, init, aux)

	return space.spt.Insert(p)
}

// RemovePage takes p out of its address space and destroys it.
func (s *System) RemovePage(p *Page) {
	p.space.spt.remove(p)
	s.deallocPage(p)
}

// deallocPage destroys the variant of p and gives back its frame.
func (s *System) deallocPage(p *Page) {
	f := s.frames.pinPage(p)

	s.destroy(p)

	if f != nil {
		s.mmu.ClearMapping(p.pid(), p.vAddr)
		s.frames.release(f)
	}
}

// Destroy tears down every page of the address space, writing modified
// file-backed pages back, and closes its executable.
func (s *System) Destroy(space *AddressSpace) {
	if space == nil {
		panic("destroying a nil address space")
	}

	for _, p := range space.spt.Pages() {
		s.RemovePage(p)
	}

	s.closeFile(space.Executable)
	space.Executable = nil

	s.spacesLock.Lock()
	delete(s.spaces, space.pid)
	s.spacesLock.Unlock()
}

// Exit destroys the address space of an exiting process.
func (s *System) Exit(space *AddressSpace) {
	s.Destroy(space)

	s.invokeEventHook(HookPosExit, Event{PID: space.pid, OK: true})
	s.log.Debug("address space destroyed", "pid", space.pid)
}
