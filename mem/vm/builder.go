package vm

import (
	"log"
	"log/slog"
	"math/bits"
	"sync"
)

// A Builder can build a System.
type Builder struct {
	pageSize     uint64
	userTop      uint64
	forkPolicy   ForkMappingPolicy
	memory       PhysicalMemory
	mmu          MMU
	swap         SwapDevice
	fsLock       *sync.Mutex
	victimFinder VictimFinder
	logger       *slog.Logger
}

// MakeBuilder creates a builder with 4 KiB pages and the user address space
// ending at 0x8004000000.
func MakeBuilder() Builder {
	return Builder{
		pageSize: 4096,
		userTop:  0x8004000000,
	}
}

// WithPageSize sets the page size. It must be a power of two.
func (b Builder) WithPageSize(pageSize uint64) Builder {
	b.pageSize = pageSize
	return b
}

// WithUserTop sets the first address above the user address space.
func (b Builder) WithUserTop(userTop uint64) Builder {
	b.userTop = userTop
	return b
}

// WithForkMappingPolicy sets how memory mappings are treated by Copy.
func (b Builder) WithForkMappingPolicy(policy ForkMappingPolicy) Builder {
	b.forkPolicy = policy
	return b
}

// WithPhysicalMemory sets the memory that frames are carved from.
func (b Builder) WithPhysicalMemory(memory PhysicalMemory) Builder {
	b.memory = memory
	return b
}

// WithMMU sets the MMU that mappings are installed into.
func (b Builder) WithMMU(mmu MMU) Builder {
	b.mmu = mmu
	return b
}

// WithSwapDevice sets where evicted anonymous pages go. Without a swap
// device anonymous pages are never evicted.
func (b Builder) WithSwapDevice(swap SwapDevice) Builder {
	b.swap = swap
	return b
}

// WithFileLock shares a file system lock with other users of the file
// system. By default the system creates its own.
func (b Builder) WithFileLock(lock *sync.Mutex) Builder {
	b.fsLock = lock
	return b
}

// WithVictimFinder replaces the clock eviction policy.
func (b Builder) WithVictimFinder(victimFinder VictimFinder) Builder {
	b.victimFinder = victimFinder
	return b
}

// WithLogger sets the logger for diagnostics.
func (b Builder) WithLogger(logger *slog.Logger) Builder {
	b.logger = logger
	return b
}

func (b Builder) parametersMustBeValid() {
	if b.pageSize == 0 || bits.OnesCount64(b.pageSize) != 1 {
		log.Panicf("page size %d is not a power of two", b.pageSize)
	}

	if b.memory == nil {
		panic("physical memory is not set")
	}

	if b.mmu == nil {
		panic("MMU is not set")
	}

	if b.userTop%b.pageSize != 0 {
		log.Panicf("user top 0x%x is not page aligned", b.userTop)
	}
}

// Build creates the System.
func (b Builder) Build() *System {
	b.parametersMustBeValid()

	s := &System{
		pageSize:     b.pageSize,
		log2PageSize: uint64(bits.TrailingZeros64(b.pageSize)),
		userTop:      b.userTop,
		forkPolicy:   b.forkPolicy,
		mmu:          b.mmu,
		swap:         b.swap,
		fsLock:       b.fsLock,
		log:          b.logger,
		spaces:       make(map[PID]*AddressSpace),
	}

	if s.fsLock == nil {
		s.fsLock = &sync.Mutex{}
	}

	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}

	victimFinder := b.victimFinder
	if victimFinder == nil {
		victimFinder = NewClockVictimFinder(b.mmu)
	}

	s.frames = NewFrameManager(b.memory, b.pageSize, victimFinder)
	s.frames.evictor = s
	s.frames.log = s.log

	return s
}
