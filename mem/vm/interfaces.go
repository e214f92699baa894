// Package vm implements demand paging for simulated processes: supplemental
// page tables, lazily initialized pages, frame allocation with eviction,
// memory-mapped files and address-space duplication.
package vm

// PID identifies an address space.
type PID uint32

// A File is an open handle to a file. Each handle has its own lifetime;
// closing one handle never affects another handle to the same file.
type File interface {
	ReadAt(p []byte, off int64) (int, error)
	WriteAt(p []byte, off int64) (int, error)
	Length() (int64, error)

	// Reopen returns a new, independent handle to the same file.
	Reopen() (File, error)

	Close() error
}

// An MMU installs virtual-to-physical mappings and reports the status bits
// the hardware maintains for them.
type MMU interface {
	SetMapping(pid PID, vAddr, pAddr uint64, writable bool) error
	ClearMapping(pid PID, vAddr uint64)
	IsDirty(pid PID, vAddr uint64) bool
	AccessTracker
}

// An AccessTracker exposes the accessed bit of a mapping.
type AccessTracker interface {
	IsAccessed(pid PID, vAddr uint64) bool
	ClearAccessed(pid PID, vAddr uint64)
}

// Slot identifies a page-sized location on a swap device.
type Slot uint64

// A SwapDevice stores evicted anonymous pages.
type SwapDevice interface {
	Reserve() (Slot, error)
	Write(slot Slot, data []byte) error
	Read(slot Slot, data []byte) error
	Release(slot Slot)
}

// PhysicalMemory provides the byte storage behind frames.
type PhysicalMemory interface {
	Base() uint64
	Capacity() uint64

	// Bytes returns a view of length bytes starting at addr.
	Bytes(addr, length uint64) []byte
}
