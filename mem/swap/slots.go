// Package swap provides the devices that hold evicted anonymous pages.
package swap

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/sarchlab/vmsim/mem/vm"
)

var (
	// ErrFull is returned when every slot of a device is reserved.
	ErrFull = errors.New("swap device is full")

	// ErrBadSlot is returned when a slot is out of range or not reserved.
	ErrBadSlot = errors.New("invalid swap slot")
)

// slotTable tracks which slots of a device are reserved. Released slots are
// reused first.
type slotTable struct {
	sync.Mutex
	inUse []bool
	free  []vm.Slot
	used  int
}

func (t *slotTable) init(numSlots int) {
	t.inUse = make([]bool, numSlots)
	t.free = make([]vm.Slot, 0, numSlots)

	for i := numSlots - 1; i >= 0; i-- {
		t.free = append(t.free, vm.Slot(i))
	}
}

// Reserve takes a free slot.
func (t *slotTable) Reserve() (vm.Slot, error) {
	t.Lock()
	defer t.Unlock()

	n := len(t.free)
	if n == 0 {
		return 0, ErrFull
	}

	slot := t.free[n-1]
	t.free = t.free[:n-1]
	t.inUse[slot] = true
	t.used++

	return slot, nil
}

// Release gives a slot back. Releasing a slot that is not reserved panics.
func (t *slotTable) Release(slot vm.Slot) {
	t.Lock()
	defer t.Unlock()

	if uint64(slot) >= uint64(len(t.inUse)) || !t.inUse[slot] {
		log.Panicf("releasing swap slot %d that is not reserved", slot)
	}

	t.inUse[slot] = false
	t.free = append(t.free, slot)
	t.used--
}

func (t *slotTable) mustBeReserved(slot vm.Slot) error {
	t.Lock()
	defer t.Unlock()

	if uint64(slot) >= uint64(len(t.inUse)) || !t.inUse[slot] {
		return fmt.Errorf("%w: %d", ErrBadSlot, slot)
	}

	return nil
}

// NumSlots returns the capacity of the device in pages.
func (t *slotTable) NumSlots() int {
	return len(t.inUse)
}

// NumUsed returns the number of reserved slots.
func (t *slotTable) NumUsed() int {
	t.Lock()
	defer t.Unlock()

	return t.used
}

func checkPageBuffer(data []byte, pageSize uint64) error {
	if uint64(len(data)) != pageSize {
		return fmt.Errorf("swap transfers whole pages of %d bytes, got %d",
			pageSize, len(data))
	}

	return nil
}
