package vm

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Fork", func() {
	var (
		mmu    *fakeMMU
		swap   *memSwap
		s      *System
		exe    *memFile
		parent *AddressSpace
	)

	build := func(b Builder) {
		s = b.WithSwapDevice(swap).Build()
		exe = newMemFile(pattern(8192, 5))
		parent = s.NewAddressSpace(1, exe)
	}

	BeforeEach(func() {
		mmu = newFakeMMU()
		swap = newMemSwap(16)
		build(testBuilder(4, mmu))
	})

	It("should give the child independent anonymous memory", func() {
		Expect(s.AllocPage(parent, KindAnon, 0x600000, true, nil, nil)).
			To(Succeed())
		Expect(writeUser(s, mmu, parent, 0x600000, []byte("parent"))).
			To(BeTrue())

		child, err := s.Fork(parent, 2)
		Expect(err).NotTo(HaveOccurred())

		data, ok := readUser(s, mmu, child, 0x600000, 6)
		Expect(ok).To(BeTrue())
		Expect(string(data)).To(Equal("parent"))

		Expect(writeUser(s, mmu, child, 0x600000, []byte("child!"))).
			To(BeTrue())

		data, _ = readUser(s, mmu, parent, 0x600000, 6)
		Expect(string(data)).To(Equal("parent"))
	})

	It("should make copied anonymous pages resident", func() {
		Expect(s.AllocPage(parent, KindAnon, 0x600000, true, nil, nil)).
			To(Succeed())
		Expect(s.Claim(parent, 0x600000)).To(Succeed())

		child, err := s.Fork(parent, 2)
		Expect(err).NotTo(HaveOccurred())

		src, _ := parent.SPT().Find(0x600000)
		dst, _ := child.SPT().Find(0x600000)
		Expect(dst.VariantKind()).To(Equal(KindAnon))
		Expect(dst.Contents()).NotTo(BeNil())
		Expect(dst.frame).NotTo(BeIdenticalTo(src.frame))
	})

	It("should keep untouched program pages lazy and read them from the child's executable", func() {
		Expect(s.LoadProgram(parent, 0x400000, 0, 100, 3996, false)).
			To(Succeed())

		child, err := s.Fork(parent, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(exe.inode.handles).To(Equal(2))
		Expect(child.Executable).NotTo(BeIdenticalTo(parent.Executable))

		p, _ := child.SPT().Find(0x400000)
		Expect(p.VariantKind()).To(Equal(KindUninit))
		Expect(p.Kind()).To(Equal(KindAnon))
		Expect(p.uninit.aux.(*LoadAux).File).To(BeIdenticalTo(child.Executable))

		data, ok := readUser(s, mmu, child, 0x400000, 100)
		Expect(ok).To(BeTrue())
		Expect(data).To(Equal(exe.inode.data[:100]))

		s.Exit(child)
		Expect(exe.inode.handles).To(Equal(1))
	})

	It("should copy anonymous pages that are swapped out", func() {
		s = testBuilder(2, mmu).WithSwapDevice(swap).Build()
		parent = s.NewAddressSpace(1, nil)

		for i := uint64(0); i < 3; i++ {
			vAddr := 0x600000 + i*testPageSize
			Expect(s.AllocPage(parent, KindAnon, vAddr, true, nil, nil)).
				To(Succeed())
			Expect(writeUser(s, mmu, parent, vAddr, pattern(32, byte(i)))).
				To(BeTrue())
		}

		child, err := s.Fork(parent, 2)
		Expect(err).NotTo(HaveOccurred())

		for i := uint64(0); i < 3; i++ {
			data, ok := readUser(s, mmu, child, 0x600000+i*testPageSize, 32)
			Expect(ok).To(BeTrue())
			Expect(data).To(Equal(pattern(32, byte(i))))
		}
	})

	It("should copy a resident page when there is a single frame", func() {
		s = testBuilder(1, mmu).WithSwapDevice(swap).Build()
		parent = s.NewAddressSpace(1, nil)

		Expect(s.AllocPage(parent, KindAnon, 0x600000, true, nil, nil)).
			To(Succeed())
		Expect(writeUser(s, mmu, parent, 0x600000, []byte("parent"))).
			To(BeTrue())

		done := make(chan *AddressSpace)
		go func() {
			defer GinkgoRecover()

			child, err := s.Fork(parent, 2)
			Expect(err).NotTo(HaveOccurred())
			done <- child
		}()

		var child *AddressSpace
		Eventually(done, "2s").Should(Receive(&child))

		data, ok := readUser(s, mmu, child, 0x600000, 6)
		Expect(ok).To(BeTrue())
		Expect(string(data)).To(Equal("parent"))

		data, ok = readUser(s, mmu, parent, 0x600000, 6)
		Expect(ok).To(BeTrue())
		Expect(string(data)).To(Equal("parent"))
	})

	It("should fail the fork when no frame can be freed", func() {
		s = testBuilder(2, mmu).WithSwapDevice(newMemSwap(0)).Build()
		parent = s.NewAddressSpace(1, nil)

		for i := uint64(0); i < 2; i++ {
			vAddr := 0x600000 + i*testPageSize
			Expect(s.AllocPage(parent, KindAnon, vAddr, true, nil, nil)).
				To(Succeed())
			Expect(writeUser(s, mmu, parent, vAddr, pattern(32, byte(i)))).
				To(BeTrue())
		}

		done := make(chan error)
		go func() {
			_, err := s.Fork(parent, 2)
			done <- err
		}()

		var err error
		Eventually(done, "2s").Should(Receive(&err))
		Expect(err).To(MatchError(ErrOutOfMemory))

		_, found := s.AddressSpace(2)
		Expect(found).To(BeFalse())

		for i := uint64(0); i < 2; i++ {
			data, ok := readUser(s, mmu, parent, 0x600000+i*testPageSize, 32)
			Expect(ok).To(BeTrue())
			Expect(data).To(Equal(pattern(32, byte(i))))
		}
	})

	It("should leave mappings out of the child by default", func() {
		file := newMemFile(pattern(4096, 1))
		_, err := s.Map(parent, 0x500000, 4096, true, file, 0)
		Expect(err).NotTo(HaveOccurred())

		child, err := s.Fork(parent, 2)
		Expect(err).NotTo(HaveOccurred())

		_, found := child.SPT().Find(0x500000)
		Expect(found).To(BeFalse())
		Expect(file.inode.handles).To(Equal(2))
	})

	It("should give the child its own handles when mappings are inherited", func() {
		build(testBuilder(4, mmu).WithForkMappingPolicy(ForkInheritMappings))

		file := newMemFile(pattern(8192, 1))
		_, err := s.Map(parent, 0x500000, 8192, true, file, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(writeUser(s, mmu, parent, 0x500000, []byte("shared"))).
			To(BeTrue())

		child, err := s.Fork(parent, 2)
		Expect(err).NotTo(HaveOccurred())

		Expect(file.inode.handles).To(Equal(5))
		Expect(string(file.inode.data[:6])).To(Equal("shared"))

		for _, vAddr := range []uint64{0x500000, 0x501000} {
			p, found := child.SPT().Find(vAddr)
			Expect(found).To(BeTrue())
			Expect(p.Kind()).To(Equal(KindFile))

			base, _ := p.MapBase()
			Expect(base).To(Equal(uint64(0x500000)))
		}

		data, ok := readUser(s, mmu, child, 0x500000, 6)
		Expect(ok).To(BeTrue())
		Expect(string(data)).To(Equal("shared"))

		s.Unmap(child, 0x500000)
		Expect(file.inode.handles).To(Equal(3))
	})

	It("should discard the child when copying fails", func() {
		Expect(s.LoadProgram(parent, 0x400000, 0, 100, 3996, false)).
			To(Succeed())
		parent.Executable = nil

		_, err := s.Fork(parent, 2)

		Expect(err).To(MatchError(ErrNoExecutable))
		_, found := s.AddressSpace(2)
		Expect(found).To(BeFalse())

		parent.Executable = exe
	})
})
