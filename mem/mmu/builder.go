package mmu

import (
	"log"
	"math/bits"

	"github.com/sarchlab/vmsim/mem/vm"
)

// A Builder can build MMUs.
type Builder struct {
	log2PageSize uint64
}

// MakeBuilder returns a builder for MMUs with 4 KiB pages.
func MakeBuilder() Builder {
	return Builder{
		log2PageSize: 12,
	}
}

// WithLog2PageSize sets the page size as a power of 2.
func (b Builder) WithLog2PageSize(log2PageSize uint64) Builder {
	b.log2PageSize = log2PageSize
	return b
}

// WithPageSize sets the page size. It must be a power of 2.
func (b Builder) WithPageSize(pageSize uint64) Builder {
	if bits.OnesCount64(pageSize) != 1 {
		log.Panicf("page size %d is not a power of 2", pageSize)
	}

	b.log2PageSize = uint64(bits.TrailingZeros64(pageSize))

	return b
}

// Build creates a new MMU.
func (b Builder) Build() *MMU {
	if b.log2PageSize == 0 || b.log2PageSize >= 64 {
		log.Panicf("invalid log2 page size %d", b.log2PageSize)
	}

	return &MMU{
		log2PageSize: b.log2PageSize,
		tables:       make(map[vm.PID]*processTable),
	}
}
