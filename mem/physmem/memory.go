// Package physmem models the physical memory of the simulated machine.
package physmem

import (
	"errors"
	"log"
)

// ErrOutOfRange is returned when an access falls outside of the memory.
var ErrOutOfRange = errors.New("accessing physical address beyond the memory")

// A Memory is a contiguous range of physical addresses, starting at base,
// backed by one byte slice.
type Memory struct {
	base uint64
	data []byte
}

// New creates a zero-filled memory of capacity bytes starting at base.
func New(base, capacity uint64) *Memory {
	return &Memory{
		base: base,
		data: make([]byte, capacity),
	}
}

// Base returns the first address of the memory.
func (m *Memory) Base() uint64 {
	return m.base
}

// Capacity returns the size of the memory in bytes.
func (m *Memory) Capacity() uint64 {
	return uint64(len(m.data))
}

func (m *Memory) inRange(addr, length uint64) bool {
	return addr >= m.base &&
		addr-m.base <= m.Capacity() &&
		length <= m.Capacity()-(addr-m.base)
}

// Bytes returns the memory between addr and addr+length. Writes to the slice
// change the memory. It panics if the range is outside of the memory.
func (m *Memory) Bytes(addr, length uint64) []byte {
	if !m.inRange(addr, length) {
		log.Panicf("physical range 0x%x+%d outside of memory 0x%x+%d",
			addr, length, m.base, m.Capacity())
	}

	offset := addr - m.base

	return m.data[offset : offset+length : offset+length]
}

// Read returns a copy of length bytes starting at addr.
func (m *Memory) Read(addr, length uint64) ([]byte, error) {
	if !m.inRange(addr, length) {
		return nil, ErrOutOfRange
	}

	res := make([]byte, length)
	copy(res, m.Bytes(addr, length))

	return res, nil
}

// Write copies data to addr.
func (m *Memory) Write(addr uint64, data []byte) error {
	if !m.inRange(addr, uint64(len(data))) {
		return ErrOutOfRange
	}

	copy(m.Bytes(addr, uint64(len(data))), data)

	return nil
}
