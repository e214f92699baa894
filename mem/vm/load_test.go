package vm

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Program loading", func() {
	var (
		mmu   *fakeMMU
		s     *System
		exe   *memFile
		space *AddressSpace
	)

	BeforeEach(func() {
		mmu = newFakeMMU()
		s = testBuilder(4, mmu).Build()
		exe = newMemFile(pattern(6000, 3))
		space = s.NewAddressSpace(1, exe)
	})

	It("should read the segment on the first fault", func() {
		Expect(s.LoadProgram(space, 0x400000, 0, 100, 3996, false)).
			To(Succeed())

		p, found := space.SPT().Find(0x400000)
		Expect(found).To(BeTrue())
		Expect(p.Kind()).To(Equal(KindAnon))
		Expect(p.VariantKind()).To(Equal(KindUninit))
		Expect(p.Writable()).To(BeFalse())

		Expect(s.HandleFault(space, 0x400000, false, true)).To(BeTrue())

		Expect(p.VariantKind()).To(Equal(KindAnon))
		Expect(p.Contents()[:100]).To(Equal(exe.inode.data[:100]))
		Expect(p.Contents()[100:]).To(Equal(make([]byte, 3996)))
	})

	It("should split a segment into pages", func() {
		Expect(s.LoadProgram(space, 0x400000, 0, 5000, 3192, true)).
			To(Succeed())
		Expect(space.SPT().Len()).To(Equal(2))

		data, ok := readUser(s, mmu, space, 0x401000, testPageSize)
		Expect(ok).To(BeTrue())
		Expect(data[:904]).To(Equal(exe.inode.data[4096:5000]))
		Expect(data[904:]).To(Equal(make([]byte, 3192)))
	})

	It("should register pages that only hold zeros", func() {
		Expect(s.LoadProgram(space, 0x600000, 0, 0, 2*testPageSize, true)).
			To(Succeed())

		data, ok := readUser(s, mmu, space, 0x601000, 16)
		Expect(ok).To(BeTrue())
		Expect(data).To(Equal(make([]byte, 16)))
	})

	It("should fail the fault when the executable is too short", func() {
		short := newMemFile(pattern(50, 1))
		other := s.NewAddressSpace(2, short)
		Expect(s.LoadProgram(other, 0x400000, 0, 100, 3996, false)).
			To(Succeed())

		Expect(s.HandleFault(other, 0x400000, false, true)).To(BeFalse())

		p, _ := other.SPT().Find(0x400000)
		Expect(p.VariantKind()).To(Equal(KindUninit))
		Expect(s.FrameManager().NumFree()).To(Equal(4))
	})

	It("should reject unaligned segments", func() {
		Expect(s.LoadProgram(space, 0x400000, 0, 100, 100, false)).
			To(MatchError(ErrBadAddress))
		Expect(s.LoadProgram(space, 0x400010, 0, 100, 3996, false)).
			To(MatchError(ErrBadAddress))
	})

	It("should need an executable", func() {
		other := s.NewAddressSpace(2, nil)

		Expect(s.LoadProgram(other, 0x400000, 0, 100, 3996, false)).
			To(MatchError(ErrNoExecutable))
	})

	It("should close the executable on exit", func() {
		Expect(s.LoadProgram(space, 0x400000, 0, 100, 3996, false)).
			To(Succeed())

		s.Exit(space)

		Expect(exe.closed).To(BeTrue())
		Expect(space.Executable).To(BeNil())
	})
})
