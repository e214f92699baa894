package vm

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SupplementalPageTable", func() {
	var (
		space *AddressSpace
		spt   *SupplementalPageTable
	)

	BeforeEach(func() {
		spt = NewSupplementalPageTable(12)
		space = &AddressSpace{pid: 1, spt: spt}
	})

	newPage := func(vAddr uint64) *Page {
		return newUninitPage(space, vAddr, true, KindAnon, nil, nil)
	}

	It("should find a page by any address inside it", func() {
		p := newPage(0x400000)
		Expect(spt.Insert(p)).To(Succeed())

		found, ok := spt.Find(0x400123)
		Expect(ok).To(BeTrue())
		Expect(found).To(BeIdenticalTo(p))

		found, ok = spt.Find(0x400fff)
		Expect(ok).To(BeTrue())
		Expect(found).To(BeIdenticalTo(p))

		_, ok = spt.Find(0x401000)
		Expect(ok).To(BeFalse())
	})

	It("should not replace a page at a taken address", func() {
		first := newPage(0x400000)
		second := newPage(0x400000)

		Expect(spt.Insert(first)).To(Succeed())
		Expect(spt.Insert(second)).To(MatchError(ErrPageExists))

		found, _ := spt.Find(0x400000)
		Expect(found).To(BeIdenticalTo(first))
		Expect(spt.Len()).To(Equal(1))
	})

	It("should list pages by address", func() {
		for _, vAddr := range []uint64{0x403000, 0x400000, 0x401000} {
			Expect(spt.Insert(newPage(vAddr))).To(Succeed())
		}

		addrs := []uint64{}
		for _, p := range spt.Pages() {
			addrs = append(addrs, p.VAddr())
		}

		Expect(addrs).To(Equal([]uint64{0x400000, 0x401000, 0x403000}))
	})

	It("should remove a page", func() {
		p := newPage(0x400000)
		Expect(spt.Insert(p)).To(Succeed())

		spt.remove(p)

		_, ok := spt.Find(0x400000)
		Expect(ok).To(BeFalse())
	})

	It("should panic when removing a page it does not hold", func() {
		Expect(spt.Insert(newPage(0x400000))).To(Succeed())

		Expect(func() { spt.remove(newPage(0x400000)) }).To(Panic())
	})
})
