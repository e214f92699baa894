// Package machine models the CPU side of memory accesses: address
// translation, page faults and the termination of faulting processes.
package machine

import (
	"errors"
	"fmt"

	"github.com/sarchlab/vmsim/mem/mmu"
	"github.com/sarchlab/vmsim/mem/physmem"
	"github.com/sarchlab/vmsim/mem/vm"
)

// ErrSegFault is returned when an access faults and the fault cannot be
// resolved. The process that made the access must be terminated.
var ErrSegFault = errors.New("segmentation fault")

// A Machine performs user memory accesses on behalf of processes. It models
// a single CPU: accesses are not atomic with respect to evictions made by
// other goroutines.
type Machine struct {
	sys *vm.System
	mmu *mmu.MMU
	mem *physmem.Memory
}

// New creates a machine whose page tables are held by mmu and whose frames
// live in mem. sys must have been built on the same mmu and memory.
func New(sys *vm.System, mmu *mmu.MMU, mem *physmem.Memory) *Machine {
	return &Machine{sys: sys, mmu: mmu, mem: mem}
}

// System returns the virtual memory system of the machine.
func (m *Machine) System() *vm.System {
	return m.sys
}

// MMU returns the MMU of the machine.
func (m *Machine) MMU() *mmu.MMU {
	return m.mmu
}

// Read reads length bytes at vAddr in the address space.
func (m *Machine) Read(space *vm.AddressSpace, vAddr uint64, length int) ([]byte, error) {
	buf := make([]byte, length)

	err := m.access(space, vAddr, buf, false)
	if err != nil {
		return nil, err
	}

	return buf, nil
}

// Write writes data at vAddr in the address space.
func (m *Machine) Write(space *vm.AddressSpace, vAddr uint64, data []byte) error {
	return m.access(space, vAddr, data, true)
}

func (m *Machine) access(
	space *vm.AddressSpace,
	vAddr uint64,
	buf []byte,
	write bool,
) error {
	pageSize := m.sys.PageSize()

	for len(buf) > 0 {
		chunk := min(uint64(len(buf)), pageSize-vAddr%pageSize)

		pAddr, err := m.translate(space, vAddr, write)
		if err != nil {
			return err
		}

		frame := m.mem.Bytes(pAddr, chunk)
		if write {
			copy(frame, buf[:chunk])
		} else {
			copy(buf[:chunk], frame)
		}

		buf = buf[chunk:]
		vAddr += chunk
	}

	return nil
}

// translate walks the page table and raises page faults until the access
// can proceed.
func (m *Machine) translate(
	space *vm.AddressSpace,
	vAddr uint64,
	write bool,
) (uint64, error) {
	for {
		pAddr, err := m.mmu.Translate(space.PID(), vAddr, write)
		if err == nil {
			return pAddr, nil
		}

		if !m.sys.HandleFault(space, vAddr, write, true) {
			return 0, fmt.Errorf("%w: pid %d at 0x%x (%v)",
				ErrSegFault, space.PID(), vAddr, err)
		}
	}
}

// Exit terminates a process: its address space is destroyed and its page
// table dropped.
func (m *Machine) Exit(space *vm.AddressSpace) {
	m.sys.Exit(space)
	m.mmu.RemoveTable(space.PID())
}
