package swap

import "github.com/sarchlab/vmsim/mem/vm"

// A MemoryDevice keeps swapped pages in memory.
type MemoryDevice struct {
	slotTable
	pageSize uint64
	data     []byte
}

// NewMemoryDevice creates a device with numSlots page-sized slots.
func NewMemoryDevice(pageSize uint64, numSlots int) *MemoryDevice {
	d := &MemoryDevice{
		pageSize: pageSize,
		data:     make([]byte, pageSize*uint64(numSlots)),
	}
	d.slotTable.init(numSlots)

	return d
}

func (d *MemoryDevice) slotBytes(slot vm.Slot) []byte {
	start := uint64(slot) * d.pageSize
	return d.data[start : start+d.pageSize]
}

// Write stores a page in a reserved slot.
func (d *MemoryDevice) Write(slot vm.Slot, data []byte) error {
	if err := d.check(slot, data); err != nil {
		return err
	}

	copy(d.slotBytes(slot), data)

	return nil
}

// Read loads the page stored in a reserved slot.
func (d *MemoryDevice) Read(slot vm.Slot, data []byte) error {
	if err := d.check(slot, data); err != nil {
		return err
	}

	copy(data, d.slotBytes(slot))

	return nil
}

func (d *MemoryDevice) check(slot vm.Slot, data []byte) error {
	if err := checkPageBuffer(data, d.pageSize); err != nil {
		return err
	}

	return d.mustBeReserved(slot)
}
