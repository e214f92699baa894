package swap

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/vmsim/mem/vm"
)

// A FileDevice keeps swapped pages in a swap file. Slot i occupies the bytes
// starting at i times the page size.
type FileDevice struct {
	slotTable
	pageSize uint64
	file     *os.File
}

// NewFileDevice creates the swap file at path, replacing any existing file,
// and sizes it for numSlots pages.
func NewFileDevice(path string, pageSize uint64, numSlots int) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening swap file: %w", err)
	}

	err = f.Truncate(int64(pageSize) * int64(numSlots))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("sizing swap file: %w", err)
	}

	d := &FileDevice{
		pageSize: pageSize,
		file:     f,
	}
	d.slotTable.init(numSlots)

	return d, nil
}

// Path returns the name of the swap file.
func (d *FileDevice) Path() string {
	return d.file.Name()
}

func (d *FileDevice) offset(slot vm.Slot) int64 {
	return int64(uint64(slot) * d.pageSize)
}

// Write stores a page in a reserved slot.
func (d *FileDevice) Write(slot vm.Slot, data []byte) error {
	if err := d.check(slot, data); err != nil {
		return err
	}

	_, err := d.file.WriteAt(data, d.offset(slot))
	if err != nil {
		return fmt.Errorf("writing swap slot %d: %w", slot, err)
	}

	return nil
}

// Read loads the page stored in a reserved slot.
func (d *FileDevice) Read(slot vm.Slot, data []byte) error {
	if err := d.check(slot, data); err != nil {
		return err
	}

	_, err := d.file.ReadAt(data, d.offset(slot))
	if err != nil && err != io.EOF {
		return fmt.Errorf("reading swap slot %d: %w", slot, err)
	}

	return nil
}

func (d *FileDevice) check(slot vm.Slot, data []byte) error {
	if err := checkPageBuffer(data, d.pageSize); err != nil {
		return err
	}

	return d.mustBeReserved(slot)
}

// Close closes the swap file.
func (d *FileDevice) Close() error {
	return d.file.Close()
}
