// Package mmu models the page tables walked by the hardware of the simulated
// machine.
package mmu

import (
	"container/list"
	"errors"
	"sync"

	"github.com/sarchlab/vmsim/mem/vm"
)

var (
	// ErrNotPresent is returned when no mapping covers an address.
	ErrNotPresent = errors.New("page not present")

	// ErrReadOnly is returned when a write hits a read-only mapping.
	ErrReadOnly = errors.New("write to read-only mapping")
)

// An Entry maps one virtual page to a frame.
type Entry struct {
	VAddr    uint64 `json:"vaddr"`
	PAddr    uint64 `json:"paddr"`
	Writable bool   `json:"writable"`
	Dirty    bool   `json:"dirty"`
	Accessed bool   `json:"accessed"`
}

// MMU holds one page table per process. It sets the accessed and dirty bits
// of an entry when a translation uses it, like hardware does.
type MMU struct {
	sync.Mutex
	log2PageSize uint64
	tables       map[vm.PID]*processTable
}

// lookupTable returns the table of pid without creating one.
func (m *MMU) lookupTable(pid vm.PID) (*processTable, bool) {
	m.Lock()
	defer m.Unlock()

	table, found := m.tables[pid]

	return table, found
}

func (m *MMU) getTable(pid vm.PID) *processTable {
	m.Lock()
	defer m.Unlock()

	table, found := m.tables[pid]
	if !found {
		table = &processTable{
			entries:      list.New(),
			entriesTable: make(map[uint64]*list.Element),
		}
		m.tables[pid] = table
	}

	return table
}

func (m *MMU) alignToPage(addr uint64) uint64 {
	return (addr >> m.log2PageSize) << m.log2PageSize
}

// SetMapping installs or replaces the mapping of the page at vAddr. The new
// entry starts with clear status bits.
func (m *MMU) SetMapping(pid vm.PID, vAddr, pAddr uint64, writable bool) error {
	if m.alignToPage(vAddr) != vAddr || m.alignToPage(pAddr) != pAddr {
		return errors.New("mapping is not page aligned")
	}

	m.getTable(pid).set(Entry{VAddr: vAddr, PAddr: pAddr, Writable: writable})

	return nil
}

// ClearMapping removes the mapping of the page at vAddr, if any.
func (m *MMU) ClearMapping(pid vm.PID, vAddr uint64) {
	if table, found := m.lookupTable(pid); found {
		table.remove(m.alignToPage(vAddr))
	}
}

// IsDirty reports whether the page at vAddr has been written since it was
// mapped.
func (m *MMU) IsDirty(pid vm.PID, vAddr uint64) bool {
	e, found := m.Find(pid, vAddr)
	return found && e.Dirty
}

// IsAccessed reports whether the page at vAddr has been used since its
// accessed bit was last cleared.
func (m *MMU) IsAccessed(pid vm.PID, vAddr uint64) bool {
	e, found := m.Find(pid, vAddr)
	return found && e.Accessed
}

// ClearAccessed clears the accessed bit of the page at vAddr.
func (m *MMU) ClearAccessed(pid vm.PID, vAddr uint64) {
	m.update(pid, vAddr, func(e *Entry) {
		e.Accessed = false
	})
}

// SetDirty sets the dirty bit of the page at vAddr, as a write through a
// kernel alias would.
func (m *MMU) SetDirty(pid vm.PID, vAddr uint64) {
	m.update(pid, vAddr, func(e *Entry) {
		e.Dirty = true
	})
}

func (m *MMU) update(pid vm.PID, vAddr uint64, fn func(e *Entry)) {
	if table, found := m.lookupTable(pid); found {
		table.update(m.alignToPage(vAddr), fn)
	}
}

// Find returns the entry covering vAddr.
func (m *MMU) Find(pid vm.PID, vAddr uint64) (Entry, bool) {
	table, found := m.lookupTable(pid)
	if !found {
		return Entry{}, false
	}

	return table.find(m.alignToPage(vAddr))
}

// Translate returns the physical address of vAddr and marks the entry as
// accessed, and as dirty for writes.
func (m *MMU) Translate(pid vm.PID, vAddr uint64, write bool) (uint64, error) {
	page := m.alignToPage(vAddr)

	var (
		pAddr uint64
		err   = ErrNotPresent
	)

	m.update(pid, page, func(e *Entry) {
		if write && !e.Writable {
			err = ErrReadOnly
			return
		}

		e.Accessed = true
		if write {
			e.Dirty = true
		}

		pAddr = e.PAddr + (vAddr - page)
		err = nil
	})

	return pAddr, err
}

// Entries returns the mappings of a process in the order they were installed.
func (m *MMU) Entries(pid vm.PID) []Entry {
	table, found := m.lookupTable(pid)
	if !found {
		return nil
	}

	return table.list()
}

// NumTables returns the number of processes that have a page table.
func (m *MMU) NumTables() int {
	m.Lock()
	defer m.Unlock()

	return len(m.tables)
}

// RemoveTable drops the page table of a process.
func (m *MMU) RemoveTable(pid vm.PID) {
	m.Lock()
	defer m.Unlock()

	delete(m.tables, pid)
}

type processTable struct {
	sync.Mutex
	entries      *list.List
	entriesTable map[uint64]*list.Element
}

func (t *processTable) set(e Entry) {
	t.Lock()
	defer t.Unlock()

	if elem, found := t.entriesTable[e.VAddr]; found {
		elem.Value = e
		return
	}

	t.entriesTable[e.VAddr] = t.entries.PushBack(e)
}

func (t *processTable) remove(vAddr uint64) {
	t.Lock()
	defer t.Unlock()

	elem, found := t.entriesTable[vAddr]
	if !found {
		return
	}

	t.entries.Remove(elem)
	delete(t.entriesTable, vAddr)
}

// update applies fn to the entry at vAddr. It does nothing if there is no
// entry.
func (t *processTable) update(vAddr uint64, fn func(e *Entry)) {
	t.Lock()
	defer t.Unlock()

	elem, found := t.entriesTable[vAddr]
	if !found {
		return
	}

	e := elem.Value.(Entry)
	fn(&e)
	elem.Value = e
}

func (t *processTable) find(vAddr uint64) (Entry, bool) {
	t.Lock()
	defer t.Unlock()

	elem, found := t.entriesTable[vAddr]
	if found {
		return elem.Value.(Entry), true
	}

	return Entry{}, false
}

func (t *processTable) list() []Entry {
	t.Lock()
	defer t.Unlock()

	entries := make([]Entry, 0, t.entries.Len())
	for elem := t.entries.Front(); elem != nil; elem = elem.Next() {
		entries = append(entries, elem.Value.(Entry))
	}

	return entries
}
