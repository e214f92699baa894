package mmu

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vmsim/mem/vm"
)

var _ vm.MMU = (*MMU)(nil)

var _ = Describe("MMU", func() {
	var m *MMU

	BeforeEach(func() {
		m = MakeBuilder().Build()
	})

	It("should translate addresses inside a mapped page", func() {
		Expect(m.SetMapping(1, 0x400000, 0x10000, true)).To(Succeed())

		pAddr, err := m.Translate(1, 0x400123, false)

		Expect(err).NotTo(HaveOccurred())
		Expect(pAddr).To(Equal(uint64(0x10123)))
	})

	It("should keep processes apart", func() {
		Expect(m.SetMapping(1, 0x400000, 0x10000, true)).To(Succeed())

		_, err := m.Translate(2, 0x400000, false)

		Expect(err).To(MatchError(ErrNotPresent))
	})

	It("should set the accessed and dirty bits", func() {
		Expect(m.SetMapping(1, 0x400000, 0x10000, true)).To(Succeed())
		Expect(m.IsAccessed(1, 0x400000)).To(BeFalse())

		_, err := m.Translate(1, 0x400010, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.IsAccessed(1, 0x400000)).To(BeTrue())
		Expect(m.IsDirty(1, 0x400000)).To(BeFalse())

		_, err = m.Translate(1, 0x400010, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.IsDirty(1, 0x400000)).To(BeTrue())

		m.ClearAccessed(1, 0x400000)
		Expect(m.IsAccessed(1, 0x400000)).To(BeFalse())
		Expect(m.IsDirty(1, 0x400000)).To(BeTrue())
	})

	It("should refuse writes to read-only mappings", func() {
		Expect(m.SetMapping(1, 0x400000, 0x10000, false)).To(Succeed())

		_, err := m.Translate(1, 0x400000, true)

		Expect(err).To(MatchError(ErrReadOnly))
		Expect(m.IsDirty(1, 0x400000)).To(BeFalse())
	})

	It("should reset the status bits when a mapping is replaced", func() {
		Expect(m.SetMapping(1, 0x400000, 0x10000, true)).To(Succeed())
		m.SetDirty(1, 0x400000)

		Expect(m.SetMapping(1, 0x400000, 0x20000, true)).To(Succeed())

		e, found := m.Find(1, 0x400000)
		Expect(found).To(BeTrue())
		Expect(e).To(Equal(Entry{VAddr: 0x400000, PAddr: 0x20000, Writable: true}))
	})

	It("should remove mappings", func() {
		Expect(m.SetMapping(1, 0x400000, 0x10000, true)).To(Succeed())

		m.ClearMapping(1, 0x400000)
		m.ClearMapping(1, 0x500000)

		_, found := m.Find(1, 0x400000)
		Expect(found).To(BeFalse())
		Expect(m.IsDirty(1, 0x400000)).To(BeFalse())
	})

	It("should reject unaligned mappings", func() {
		Expect(m.SetMapping(1, 0x400010, 0x10000, true)).NotTo(Succeed())
		Expect(m.SetMapping(1, 0x400000, 0x10010, true)).NotTo(Succeed())
	})

	It("should list entries in installation order", func() {
		Expect(m.SetMapping(1, 0x500000, 0x10000, true)).To(Succeed())
		Expect(m.SetMapping(1, 0x400000, 0x11000, false)).To(Succeed())

		entries := m.Entries(1)

		Expect(entries).To(HaveLen(2))
		Expect(entries[0].VAddr).To(Equal(uint64(0x500000)))
		Expect(entries[1].VAddr).To(Equal(uint64(0x400000)))

		m.RemoveTable(1)
		Expect(m.Entries(1)).To(BeEmpty())
	})

	It("should not create tables on lookups", func() {
		Expect(m.SetMapping(1, 0x400000, 0x10000, true)).To(Succeed())
		m.RemoveTable(1)

		Expect(m.Entries(1)).To(BeNil())
		_, found := m.Find(1, 0x400000)
		Expect(found).To(BeFalse())
		Expect(m.IsDirty(2, 0x400000)).To(BeFalse())
		Expect(m.IsAccessed(2, 0x400000)).To(BeFalse())
		m.ClearAccessed(3, 0x400000)
		m.SetDirty(3, 0x400000)
		m.ClearMapping(3, 0x400000)
		_, err := m.Translate(4, 0x400000, false)
		Expect(err).To(MatchError(ErrNotPresent))

		Expect(m.NumTables()).To(Equal(0))
	})

	It("should panic on page sizes that are not powers of two", func() {
		Expect(func() { MakeBuilder().WithPageSize(3000) }).To(Panic())
		Expect(MakeBuilder().WithPageSize(8192).Build().log2PageSize).
			To(Equal(uint64(13)))
	})
})
